package items

import "github.com/google/uuid"

// AddItemInput carries one cart addition. Name and price are snapshots the
// client resolved from the catalog; settlement never re-fetches them.
type AddItemInput struct {
	GroupID     uuid.UUID
	UserID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Price       int
	Quantity    int
}

// RemoveItemInput identifies the item and the user asking to remove it.
type RemoveItemInput struct {
	GroupID uuid.UUID
	ItemID  uuid.UUID
	UserID  uuid.UUID
}
