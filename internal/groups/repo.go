package groups

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/enums"
	"github.com/hostelcart/hostelcart-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a groups repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateGroup(ctx context.Context, group *models.GroupOrder) (*models.GroupOrder, error) {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

func (r *repository) CreateMember(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error) {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	var group models.GroupOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) FindOpenByInviteCode(ctx context.Context, code string) (*models.GroupOrder, error) {
	var group models.GroupOrder
	err := r.db.WithContext(ctx).
		Where("invite_code = ? AND status = ?", code, enums.GroupStatusOpen).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) FindByInviteCode(ctx context.Context, code string) (*models.GroupOrder, error) {
	var group models.GroupOrder
	err := r.db.WithContext(ctx).
		Where("invite_code = ?", code).
		Order("created_at DESC").
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*GroupList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.GroupOrder{}).
		Where("created_by = ? OR id IN (?)",
			userID,
			r.db.Model(&models.GroupMember{}).Select("group_order_id").Where("user_id = ?", userID),
		).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.GroupOrder
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &GroupList{Groups: rows}
	if pageSize := pagination.NormalizeLimit(params.Limit); len(rows) > pageSize {
		list.Groups = rows[:pageSize]
		last := list.Groups[pageSize-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}

func (r *repository) FindMember(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
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

func (r *repository) CountMembers(ctx context.Context, groupID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_order_id = ?", groupID).
		Count(&count).Error
	return int(count), err
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

func (r *repository) UpdateWithVersion(ctx context.Context, groupID uuid.UUID, expected int64, updates map[string]any) (bool, error) {
	merged := map[string]any{"lock_version": expected + 1}
	for k, v := range updates {
		merged[k] = v
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
