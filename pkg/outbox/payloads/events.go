package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/pkg/enums"
)

// GroupCreatedEvent signals that a new group order opened for joining.
type GroupCreatedEvent struct {
	GroupID     uuid.UUID `json:"group_id"`
	CreatorID   uuid.UUID `json:"creator_id"`
	InviteCode  string    `json:"invite_code"`
	Deadline    time.Time `json:"deadline"`
	DeliveryFee int       `json:"delivery_fee"`
}

// GroupChangedEvent is the coarse change notification published after every
// successful group mutation so clients can refetch the detail view.
type GroupChangedEvent struct {
	GroupID     uuid.UUID         `json:"group_id"`
	Status      enums.GroupStatus `json:"status"`
	LockVersion int64             `json:"lock_version"`
	ChangedBy   uuid.UUID         `json:"changed_by"`
}

// MemberJoinedEvent records a successful join.
type MemberJoinedEvent struct {
	GroupID     uuid.UUID `json:"group_id"`
	MemberID    uuid.UUID `json:"member_id"`
	UserID      uuid.UUID `json:"user_id"`
	MemberCount int       `json:"member_count"`
}

// GroupLockedEvent signals the group stopped accepting joins and item edits.
type GroupLockedEvent struct {
	GroupID       uuid.UUID `json:"group_id"`
	LockedBy      uuid.UUID `json:"locked_by"`
	MemberCount   int       `json:"member_count"`
	GroupSubtotal int       `json:"group_subtotal"`
}

// GroupCancelledEvent signals the group was abandoned before ordering.
type GroupCancelledEvent struct {
	GroupID     uuid.UUID `json:"group_id"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason,omitempty"`
}

// StoreOrderPlacedEvent carries the snapshot identifiers for the emitted store order.
type StoreOrderPlacedEvent struct {
	GroupID      uuid.UUID `json:"group_id"`
	StoreOrderID uuid.UUID `json:"store_order_id"`
	PlacedBy     uuid.UUID `json:"placed_by"`
	Subtotal     int       `json:"subtotal"`
	DeliveryFee  int       `json:"delivery_fee"`
	Total        int       `json:"total"`
	LineCount    int       `json:"line_count"`
	UnpaidCount  int       `json:"unpaid_count"`
}

// GroupDeliveredEvent closes out the lifecycle once the runner drops the order.
type GroupDeliveredEvent struct {
	GroupID      uuid.UUID `json:"group_id"`
	StoreOrderID uuid.UUID `json:"store_order_id"`
	DeliveredBy  uuid.UUID `json:"delivered_by"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

// MemberPaidEvent records a settlement payment (or its reversal).
type MemberPaidEvent struct {
	GroupID  uuid.UUID `json:"group_id"`
	MemberID uuid.UUID `json:"member_id"`
	UserID   uuid.UUID `json:"user_id"`
	Amount   int       `json:"amount"`
	HasPaid  bool      `json:"has_paid"`
}
