package groups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/pagination"
)

// Repository defines persistence operations for group orders and memberships.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateGroup(ctx context.Context, group *models.GroupOrder) (*models.GroupOrder, error)
	CreateMember(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error)
	FindOpenByInviteCode(ctx context.Context, code string) (*models.GroupOrder, error)
	// FindByInviteCode returns the newest group carrying the code regardless
	// of status. Codes are unique among open groups only.
	FindByInviteCode(ctx context.Context, code string) (*models.GroupOrder, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*GroupList, error)
	FindMember(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	CountMembers(ctx context.Context, groupID uuid.UUID) (int, error)
	GroupSubtotal(ctx context.Context, groupID uuid.UUID) (int, error)
	// UpdateWithVersion applies updates only when the stored lock_version still
	// matches expected, bumping the version in the same statement. A false
	// return means the optimistic check lost the race.
	UpdateWithVersion(ctx context.Context, groupID uuid.UUID, expected int64, updates map[string]any) (bool, error)
}
