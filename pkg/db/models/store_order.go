package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/pkg/enums"
)

// StoreOrder is the single downstream order emitted when a locked group is
// placed. One group order converts to exactly one store order; the unique
// index on group_order_id enforces that at the storage layer.
type StoreOrder struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID    uuid.UUID              `gorm:"column:group_order_id;type:uuid;not null;uniqueIndex:ux_store_orders_group"`
	PlacedBy        uuid.UUID              `gorm:"column:placed_by;type:uuid;not null"`
	HostelBlock     string                 `gorm:"column:hostel_block;not null"`
	DeliveryAddress string                 `gorm:"column:delivery_address;not null"`
	Subtotal        int                    `gorm:"column:subtotal;not null"`
	DeliveryFee     int                    `gorm:"column:delivery_fee;not null"`
	Total           int                    `gorm:"column:total;not null"`
	Currency        enums.Currency         `gorm:"column:currency;type:text;not null;default:'INR'"`
	Status          enums.StoreOrderStatus `gorm:"column:status;type:store_order_status;not null;default:'placed'"`
	Lines           []StoreOrderLine       `gorm:"foreignKey:StoreOrderID;constraint:OnDelete:CASCADE"`
	DeliveredAt     *time.Time             `gorm:"column:delivered_at"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
