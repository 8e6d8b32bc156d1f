package items

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
)

// Repository defines persistence operations for group cart items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItem(ctx context.Context, item *models.GroupItem) (*models.GroupItem, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.GroupItem, error)
	FindMemberItemByProduct(ctx context.Context, memberID, productID uuid.UUID) (*models.GroupItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupItem, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.GroupItem, error)
	MemberSubtotal(ctx context.Context, memberID uuid.UUID) (int, error)
	GroupSubtotal(ctx context.Context, groupID uuid.UUID) (int, error)
}
