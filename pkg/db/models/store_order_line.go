package models

import (
	"time"

	"github.com/google/uuid"
)

// StoreOrderLine is one snapshotted item row on an emitted store order.
// MemberID records which group member contributed the line so fulfillment
// can hand the right bag to the right person.
type StoreOrderLine struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreOrderID uuid.UUID `gorm:"column:store_order_id;type:uuid;not null;index"`
	MemberID     uuid.UUID `gorm:"column:member_id;type:uuid;not null"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName  string    `gorm:"column:product_name;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	Price        int       `gorm:"column:price;not null"`
	LineTotal    int       `gorm:"column:line_total;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
