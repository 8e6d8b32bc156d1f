package settlement

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

// NewRepository builds a settlement repository bound to the provided DB.
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

func (r *repository) FindMemberByID(ctx context.Context, memberID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.WithContext(ctx).Where("id = ?", memberID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
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

func (r *repository) SetMemberPaid(ctx context.Context, memberID uuid.UUID, paid bool) error {
	return r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("id = ?", memberID).
		Update("has_paid", paid).Error
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
