package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupMember is a user's participation record within one group order.
// Rows are append-only: leaving is not modeled, so settlement history
// survives cancellation. (group_order_id, user_id) is unique — a user
// joins a group at most once.
type GroupMember struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID uuid.UUID `gorm:"column:group_order_id;type:uuid;not null;uniqueIndex:ux_group_members_group_user"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_group_members_group_user"`
	IsAdmin      bool      `gorm:"column:is_admin;not null;default:false"`
	HasPaid      bool      `gorm:"column:has_paid;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
