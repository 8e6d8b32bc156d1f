package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateGroupOrder OutboxAggregateType = "group_order"
	AggregateStoreOrder OutboxAggregateType = "store_order"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateGroupOrder,
	AggregateStoreOrder,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventGroupCreated     OutboxEventType = "group_created"
	EventGroupChanged     OutboxEventType = "group_changed"
	EventGroupLocked      OutboxEventType = "group_locked"
	EventGroupCancelled   OutboxEventType = "group_cancelled"
	EventGroupOrdered     OutboxEventType = "group_ordered"
	EventGroupDelivered   OutboxEventType = "group_delivered"
	EventMemberJoined     OutboxEventType = "member_joined"
	EventMemberPaid       OutboxEventType = "member_paid"
	EventStoreOrderPlaced OutboxEventType = "store_order_placed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventGroupCreated,
	EventGroupChanged,
	EventGroupLocked,
	EventGroupCancelled,
	EventGroupOrdered,
	EventGroupDelivered,
	EventMemberJoined,
	EventMemberPaid,
	EventStoreOrderPlaced,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
