package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/pkg/enums"
)

// GroupOrder is the shared cart a set of hostel members fund together. One
// group produces at most one StoreOrder. LockVersion is the optimistic
// concurrency token: every mutation bumps it, and the bump doubles as the
// serialization point for racing writers.
type GroupOrder struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string            `gorm:"column:name;not null"`
	InviteCode      string            `gorm:"column:invite_code;size:6;not null;index"`
	HostelBlock     string            `gorm:"column:hostel_block;not null"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null"`
	OrderDeadline   time.Time         `gorm:"column:order_deadline;not null"`
	Status          enums.GroupStatus `gorm:"column:status;type:group_status;not null;default:'open'"`
	CreatedBy       uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	MinOrderAmount  int               `gorm:"column:min_order_amount;not null;default:0"`
	DeliveryFee     int               `gorm:"column:delivery_fee;not null;default:10"`
	Currency        enums.Currency    `gorm:"column:currency;type:text;not null;default:'INR'"`
	LockVersion     int64             `gorm:"column:lock_version;not null;default:0"`
	Members         []GroupMember     `gorm:"foreignKey:GroupOrderID;constraint:OnDelete:CASCADE"`
	Items           []GroupItem       `gorm:"foreignKey:GroupOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
