package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupItem is a line a member contributed to the shared cart. Product name
// and price are snapshots taken when the item is added; settlement never
// re-fetches the catalog, so mid-cycle price drift cannot move totals.
type GroupItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID uuid.UUID `gorm:"column:group_order_id;type:uuid;not null;index"`
	MemberID     uuid.UUID `gorm:"column:member_id;type:uuid;not null;index"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName  string    `gorm:"column:product_name;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	Price        int       `gorm:"column:price;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LineTotal returns price multiplied by quantity.
func (i GroupItem) LineTotal() int {
	return i.Price * i.Quantity
}
