package settlement

// DeliveryShare splits the flat delivery fee evenly across members, rounding
// up to whole currency units. The group may collect slightly more than the
// fee (three members splitting a fee of 10 each owe 4, collecting 12); the
// surplus stays with the group admin rather than producing paisa amounts.
func DeliveryShare(deliveryFee, memberCount int) int {
	if memberCount <= 0 || deliveryFee <= 0 {
		return 0
	}
	return (deliveryFee + memberCount - 1) / memberCount
}

// MemberTotal is what one member owes: their own items plus their share of
// the delivery fee.
func MemberTotal(memberSubtotal, deliveryShare int) int {
	return memberSubtotal + deliveryShare
}

// GroupGrandTotal is the group-level figure shown on the order: the item
// subtotal plus the nominal fee, not the (possibly larger) sum of rounded
// member shares.
func GroupGrandTotal(groupSubtotal, deliveryFee int) int {
	return groupSubtotal + deliveryFee
}

// MeetsMinimum reports whether the group subtotal satisfies the minimum
// order amount. The delivery fee does not count toward the minimum.
func MeetsMinimum(groupSubtotal, minOrderAmount int) bool {
	return groupSubtotal >= minOrderAmount
}
