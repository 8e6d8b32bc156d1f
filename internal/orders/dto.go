package orders

import "github.com/google/uuid"

// PlaceResult reports the emitted store order. UnpaidMemberIDs is a warning,
// not an error: placement proceeds even when dues are outstanding, and the
// admin chases the stragglers.
type PlaceResult struct {
	StoreOrderID    uuid.UUID   `json:"store_order_id"`
	Subtotal        int         `json:"subtotal"`
	DeliveryFee     int         `json:"delivery_fee"`
	Total           int         `json:"total"`
	LineCount       int         `json:"line_count"`
	UnpaidMemberIDs []uuid.UUID `json:"unpaid_member_ids,omitempty"`
}
