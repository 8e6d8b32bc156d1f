package settlement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
)

// Repository defines the reads and the payment-flag write the settlement
// paths need. Member and item rows belong to the groups/items packages;
// settlement only flips has_paid and reads aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindGroup(ctx context.Context, groupID uuid.UUID) (*models.GroupOrder, error)
	FindMemberByID(ctx context.Context, memberID uuid.UUID) (*models.GroupMember, error)
	// FindMemberByUser returns (nil, nil) when the user is not a member.
	FindMemberByUser(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	MemberSubtotal(ctx context.Context, memberID uuid.UUID) (int, error)
	GroupSubtotal(ctx context.Context, groupID uuid.UUID) (int, error)
	SetMemberPaid(ctx context.Context, memberID uuid.UUID, paid bool) error
	// UpdateGroupWithVersion is the optimistic compare-and-set every
	// settlement mutation ends with; false means the version check lost.
	UpdateGroupWithVersion(ctx context.Context, groupID uuid.UUID, expected int64, updates map[string]any) (bool, error)
}
