package items

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

// NewRepository builds an items repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateItem(ctx context.Context, item *models.GroupItem) (*models.GroupItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.GroupItem, error) {
	var item models.GroupItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindMemberItemByProduct(ctx context.Context, memberID, productID uuid.UUID) (*models.GroupItem, error) {
	var item models.GroupItem
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND product_id = ?", memberID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.GroupItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.GroupItem{}).Error
}

func (r *repository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupItem, error) {
	var items []models.GroupItem
	err := r.db.WithContext(ctx).
		Where("group_order_id = ?", groupID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.GroupItem, error) {
	var items []models.GroupItem
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) MemberSubtotal(ctx context.Context, memberID uuid.UUID) (int, error) {
	var subtotal int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupItem{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(price * quantity), 0)").
		Scan(&subtotal).Error
	return int(subtotal), err
}

func (r *repository) GroupSubtotal(ctx context.Context, groupID uuid.UUID) (int, error) {
	var subtotal int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupItem{}).
		Where("group_order_id = ?", groupID).
		Select("COALESCE(SUM(price * quantity), 0)").
		Scan(&subtotal).Error
	return int(subtotal), err
}
