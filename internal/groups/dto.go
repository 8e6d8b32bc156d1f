package groups

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
)

// CreateGroupInput carries everything needed to open a new group order.
type CreateGroupInput struct {
	CreatorID       uuid.UUID
	Name            string
	HostelBlock     string
	DeliveryAddress string
	OrderDeadline   time.Time
	MinOrderAmount  int
}

// JoinInput identifies the joining user and the invite code they entered.
type JoinInput struct {
	InviteCode string
	UserID     uuid.UUID
}

// ActionInput identifies a group mutation and the acting user.
type ActionInput struct {
	GroupID uuid.UUID
	UserID  uuid.UUID
}

// CancelInput carries the optional human-readable reason alongside the action.
type CancelInput struct {
	GroupID uuid.UUID
	UserID  uuid.UUID
	Reason  string
}

// GroupDetail is the full group view: record plus membership rows.
type GroupDetail struct {
	Group   models.GroupOrder
	Members []models.GroupMember
}

// GroupList is one cursor page of a user's groups.
type GroupList struct {
	Groups     []models.GroupOrder
	NextCursor *string
}
