package settlement

import (
	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/pkg/enums"
)

// MemberShare is one member's line in the settlement breakdown.
type MemberShare struct {
	MemberID      uuid.UUID `json:"member_id"`
	UserID        uuid.UUID `json:"user_id"`
	IsAdmin       bool      `json:"is_admin"`
	HasPaid       bool      `json:"has_paid"`
	ItemsSubtotal int       `json:"items_subtotal"`
	DeliveryShare int       `json:"delivery_share"`
	TotalDue      int       `json:"total_due"`
}

// Breakdown is the full settlement view for one group: per-member dues plus
// the group-level totals. All figures are recomputed from item rows on every
// read.
type Breakdown struct {
	GroupID        uuid.UUID         `json:"group_id"`
	Status         enums.GroupStatus `json:"status"`
	Currency       enums.Currency    `json:"currency"`
	MemberCount    int               `json:"member_count"`
	GroupSubtotal  int               `json:"group_subtotal"`
	DeliveryFee    int               `json:"delivery_fee"`
	DeliveryShare  int               `json:"delivery_share"`
	GrandTotal     int               `json:"grand_total"`
	MinOrderAmount int               `json:"min_order_amount"`
	MeetsMinimum   bool              `json:"meets_minimum"`
	Members        []MemberShare     `json:"members"`
}

// PayResult reports the outcome of a wallet payment.
type PayResult struct {
	MemberID      uuid.UUID `json:"member_id"`
	AmountCharged int       `json:"amount_charged"`
	AlreadyPaid   bool      `json:"already_paid"`
}
