package items

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/internal/groups"
	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/enums"
	pkgerrors "github.com/hostelcart/hostelcart-backend/pkg/errors"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type changeNotifier interface {
	GroupChanged(ctx context.Context, group *models.GroupOrder, actorID uuid.UUID)
}

// Service mutates and aggregates the shared cart. Subtotals are always
// computed fresh from item rows, never cached, so every observer sees the
// same number immediately after a mutation commits.
type Service interface {
	AddItem(ctx context.Context, input AddItemInput) (*models.GroupItem, error)
	RemoveItem(ctx context.Context, input RemoveItemInput) error
	ListGroupItems(ctx context.Context, groupID, userID uuid.UUID) ([]models.GroupItem, error)
	MemberSubtotal(ctx context.Context, memberID uuid.UUID) (int, error)
	GroupSubtotal(ctx context.Context, groupID uuid.UUID) (int, error)
}

type service struct {
	repo      Repository
	groupRepo groups.Repository
	tx        txRunner
	box       outboxEmitter
	feed      changeNotifier
}

// NewService builds an items service with the required dependencies.
func NewService(repo Repository, groupRepo groups.Repository, tx txRunner, box outboxEmitter, feed changeNotifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if groupRepo == nil {
		return nil, fmt.Errorf("groups repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if box == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if feed == nil {
		return nil, fmt.Errorf("change notifier required")
	}
	return &service{
		repo:      repo,
		groupRepo: groupRepo,
		tx:        tx,
		box:       box,
		feed:      feed,
	}, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.GroupItem, error) {
	if input.GroupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if strings.TrimSpace(input.ProductName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	var result *models.GroupItem
	var group *models.GroupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		groupRepo := s.groupRepo.WithTx(tx)

		found, err := groupRepo.FindByID(ctx, input.GroupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
		}
		group = found

		member, err := groupRepo.FindMember(ctx, group.ID, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
		}
		if member == nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
		}
		if group.Status != enums.GroupStatusOpen {
			return pkgerrors.New(pkgerrors.CodeForbidden, "group is no longer accepting item changes")
		}

		// The version bump is the serialization point: a lock committing
		// between our read and this update makes the CAS fail, so no item
		// is ever accepted after the group is reported locked.
		ok, err := groupRepo.UpdateWithVersion(ctx, group.ID, group.LockVersion, map[string]any{"status": enums.GroupStatusOpen})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump group version")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.LockVersion++

		existing, err := repo.FindMemberItemByProduct(ctx, member.ID, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find existing item")
		}
		if existing != nil {
			// Same member, same product: increment rather than duplicate.
			existing.Quantity += input.Quantity
			if err := repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment item quantity")
			}
			result = existing
		} else {
			result, err = repo.CreateItem(ctx, &models.GroupItem{
				ID:           uuid.New(),
				GroupOrderID: group.ID,
				MemberID:     member.ID,
				ProductID:    input.ProductID,
				ProductName:  strings.TrimSpace(input.ProductName),
				Quantity:     input.Quantity,
				Price:        input.Price,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
			}
		}

		return s.emitGroupChanged(ctx, tx, group, input.UserID)
	})
	if err != nil {
		return nil, err
	}
	s.feed.GroupChanged(ctx, group, input.UserID)
	return result, nil
}

func (s *service) RemoveItem(ctx context.Context, input RemoveItemInput) error {
	if input.ItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var group *models.GroupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		groupRepo := s.groupRepo.WithTx(tx)

		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
		}
		if input.GroupID != uuid.Nil && item.GroupOrderID != input.GroupID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found in this group")
		}

		found, err := groupRepo.FindByID(ctx, item.GroupOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
		}
		group = found

		member, err := groupRepo.FindMember(ctx, group.ID, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
		}
		if member == nil || member.ID != item.MemberID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "item belongs to another member")
		}
		if group.Status != enums.GroupStatusOpen {
			return pkgerrors.New(pkgerrors.CodeForbidden, "group is no longer accepting item changes")
		}

		ok, err := groupRepo.UpdateWithVersion(ctx, group.ID, group.LockVersion, map[string]any{"status": enums.GroupStatusOpen})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump group version")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.LockVersion++

		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
		}

		return s.emitGroupChanged(ctx, tx, group, input.UserID)
	})
	if err != nil {
		return err
	}
	s.feed.GroupChanged(ctx, group, input.UserID)
	return nil
}

func (s *service) ListGroupItems(ctx context.Context, groupID, userID uuid.UUID) ([]models.GroupItem, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	member, err := s.groupRepo.FindMember(ctx, groupID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
	}
	if member == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	itemRows, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return itemRows, nil
}

func (s *service) MemberSubtotal(ctx context.Context, memberID uuid.UUID) (int, error) {
	if memberID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "member id required")
	}
	subtotal, err := s.repo.MemberSubtotal(ctx, memberID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "member subtotal")
	}
	return subtotal, nil
}

func (s *service) GroupSubtotal(ctx context.Context, groupID uuid.UUID) (int, error) {
	if groupID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	subtotal, err := s.repo.GroupSubtotal(ctx, groupID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "group subtotal")
	}
	return subtotal, nil
}

func (s *service) emitGroupChanged(ctx context.Context, tx *gorm.DB, group *models.GroupOrder, actorID uuid.UUID) error {
	return s.box.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventGroupChanged,
		AggregateType: enums.AggregateGroupOrder,
		AggregateID:   group.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID},
		Data: payloads.GroupChangedEvent{
			GroupID:     group.ID,
			Status:      group.Status,
			LockVersion: group.LockVersion,
			ChangedBy:   actorID,
		},
	})
}
