package enums

import "fmt"

// StoreOrderStatus maps to the store_order_status enum in Postgres.
type StoreOrderStatus string

const (
	StoreOrderStatusPlaced    StoreOrderStatus = "placed"
	StoreOrderStatusDelivered StoreOrderStatus = "delivered"
	StoreOrderStatusCancelled StoreOrderStatus = "cancelled"
)

var validStoreOrderStatuses = []StoreOrderStatus{
	StoreOrderStatusPlaced,
	StoreOrderStatusDelivered,
	StoreOrderStatusCancelled,
}

// IsValid reports whether the value matches the canonical store_order_status enum.
func (s StoreOrderStatus) IsValid() bool {
	for _, candidate := range validStoreOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStoreOrderStatus converts raw input into StoreOrderStatus.
func ParseStoreOrderStatus(value string) (StoreOrderStatus, error) {
	for _, candidate := range validStoreOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store order status %q", value)
}
