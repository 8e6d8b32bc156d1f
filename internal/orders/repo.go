package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindGroup(ctx context.Context, groupID uuid.UUID) (*models.GroupOrder, error) {
	var group models.GroupOrder
	if err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) FindMemberByUser(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_order_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_order_id = ?", groupID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *repository) ListGroupItems(ctx context.Context, groupID uuid.UUID) ([]models.GroupItem, error) {
	var items []models.GroupItem
	err := r.db.WithContext(ctx).
		Where("group_order_id = ?", groupID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) CreateStoreOrder(ctx context.Context, order *models.StoreOrder) (*models.StoreOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrderByGroup(ctx context.Context, groupID uuid.UUID) (*models.StoreOrder, error) {
	var order models.StoreOrder
	err := r.db.WithContext(ctx).
		Where("group_order_id = ?", groupID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StoreOrder{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateGroupWithVersion(ctx context.Context, groupID uuid.UUID, expected int64, updates map[string]any) (bool, error) {
	merged := map[string]any{"lock_version": expected + 1}
	for key, value := range updates {
		merged[key] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.GroupOrder{}).
		Where("id = ? AND lock_version = ?", groupID, expected).
		Updates(merged)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
