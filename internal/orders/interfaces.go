package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
)

// Repository covers store-order persistence plus the group reads the
// emit path snapshots from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindGroup(ctx context.Context, groupID uuid.UUID) (*models.GroupOrder, error)
	// FindMemberByUser returns (nil, nil) when the user is not a member.
	FindMemberByUser(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	ListGroupItems(ctx context.Context, groupID uuid.UUID) ([]models.GroupItem, error)
	// CreateStoreOrder persists the order together with its lines.
	CreateStoreOrder(ctx context.Context, order *models.StoreOrder) (*models.StoreOrder, error)
	// FindOrderByGroup returns (nil, nil) when no order has been emitted.
	FindOrderByGroup(ctx context.Context, groupID uuid.UUID) (*models.StoreOrder, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateGroupWithVersion(ctx context.Context, groupID uuid.UUID, expected int64, updates map[string]any) (bool, error)
}
