package enums

import "fmt"

// GroupStatus maps to the group_status enum in Postgres.
type GroupStatus string

const (
	GroupStatusOpen      GroupStatus = "open"
	GroupStatusLocked    GroupStatus = "locked"
	GroupStatusOrdered   GroupStatus = "ordered"
	GroupStatusDelivered GroupStatus = "delivered"
	GroupStatusCancelled GroupStatus = "cancelled"
)

var validGroupStatuses = []GroupStatus{
	GroupStatusOpen,
	GroupStatusLocked,
	GroupStatusOrdered,
	GroupStatusDelivered,
	GroupStatusCancelled,
}

// IsValid reports whether the value matches the canonical group_status enum.
// String implements fmt.Stringer.
func (g GroupStatus) String() string {
	return string(g)
}

func (g GroupStatus) IsValid() bool {
	for _, candidate := range validGroupStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGroupStatus converts raw input into GroupStatus.
func ParseGroupStatus(value string) (GroupStatus, error) {
	for _, candidate := range validGroupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group status %q", value)
}

// CanTransitionTo reports whether the lifecycle permits moving to target.
// Transitions are monotonic: open -> locked -> ordered -> delivered, with
// cancelled reachable from open or locked only.
func (g GroupStatus) CanTransitionTo(target GroupStatus) bool {
	switch g {
	case GroupStatusOpen:
		return target == GroupStatusLocked || target == GroupStatusCancelled
	case GroupStatusLocked:
		return target == GroupStatusOrdered || target == GroupStatusCancelled
	case GroupStatusOrdered:
		return target == GroupStatusDelivered
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (g GroupStatus) IsTerminal() bool {
	return g == GroupStatusDelivered || g == GroupStatusCancelled
}
