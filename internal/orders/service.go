package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/hostelcart/hostelcart-backend/pkg/db"
	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/enums"
	pkgerrors "github.com/hostelcart/hostelcart-backend/pkg/errors"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox/payloads"
)

// storeOrderGroupConstraint backs the one-order-per-group guarantee.
const storeOrderGroupConstraint = "ux_store_orders_group"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type changeNotifier interface {
	GroupChanged(ctx context.Context, group *models.GroupOrder, actorID uuid.UUID)
}

// Service converts a locked group into the single downstream store order and
// closes the lifecycle when fulfillment reports delivery.
type Service interface {
	Place(ctx context.Context, groupID, userID uuid.UUID) (*PlaceResult, error)
	MarkDelivered(ctx context.Context, groupID, userID uuid.UUID, role enums.UserRole) error
	GetOrder(ctx context.Context, groupID, userID uuid.UUID) (*models.StoreOrder, error)
}

type service struct {
	repo Repository
	tx   txRunner
	box  outboxEmitter
	feed changeNotifier
	now  func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, box outboxEmitter, feed changeNotifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
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
	return &service{repo: repo, tx: tx, box: box, feed: feed, now: time.Now}, nil
}

func (s *service) Place(ctx context.Context, groupID, userID uuid.UUID) (*PlaceResult, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *PlaceResult
	var group *models.GroupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := s.loadGroup(ctx, repo, groupID)
		if err != nil {
			return err
		}
		group = found

		if err := s.requireAdmin(ctx, repo, group, userID); err != nil {
			return err
		}
		if group.Status != enums.GroupStatusLocked {
			if group.Status == enums.GroupStatusOrdered {
				// A second place call lands here: the state machine, not the
				// unique index, is the first line of defense.
				existing, err := repo.FindOrderByGroup(ctx, groupID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find store order")
				}
				if existing == nil {
					return pkgerrors.New(pkgerrors.CodeInconsistentState, "group is ordered but no store order exists").
						WithDetails(map[string]any{"group_id": groupID})
				}
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order already placed for this group").
					WithDetails(map[string]any{"store_order_id": existing.ID})
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "group must be locked before placing").
				WithDetails(map[string]any{"status": group.Status})
		}

		items, err := repo.ListGroupItems(ctx, groupID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodePreconditionFailed, "group has no items to order")
		}

		subtotal := 0
		lines := make([]models.StoreOrderLine, 0, len(items))
		for _, item := range items {
			lineTotal := item.Price * item.Quantity
			subtotal += lineTotal
			lines = append(lines, models.StoreOrderLine{
				ID:          uuid.New(),
				MemberID:    item.MemberID,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				Price:       item.Price,
				LineTotal:   lineTotal,
			})
		}

		order := &models.StoreOrder{
			ID:              uuid.New(),
			GroupOrderID:    group.ID,
			PlacedBy:        userID,
			HostelBlock:     group.HostelBlock,
			DeliveryAddress: group.DeliveryAddress,
			Subtotal:        subtotal,
			DeliveryFee:     group.DeliveryFee,
			Total:           subtotal + group.DeliveryFee,
			Currency:        group.Currency,
			Status:          enums.StoreOrderStatusPlaced,
			Lines:           lines,
		}
		if _, err := repo.CreateStoreOrder(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, storeOrderGroupConstraint) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order already placed for this group")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store order")
		}

		members, err := repo.ListMembers(ctx, groupID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
		}
		var unpaid []uuid.UUID
		for _, member := range members {
			if !member.HasPaid {
				unpaid = append(unpaid, member.ID)
			}
		}

		ok, err := repo.UpdateGroupWithVersion(ctx, groupID, group.LockVersion, map[string]any{"status": enums.GroupStatusOrdered})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition group to ordered")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.Status = enums.GroupStatusOrdered
		group.LockVersion++

		placedPayload := payloads.StoreOrderPlacedEvent{
			GroupID:      group.ID,
			StoreOrderID: order.ID,
			PlacedBy:     userID,
			Subtotal:     subtotal,
			DeliveryFee:  group.DeliveryFee,
			Total:        order.Total,
			LineCount:    len(lines),
			UnpaidCount:  len(unpaid),
		}
		if err := s.box.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStoreOrderPlaced,
			AggregateType: enums.AggregateStoreOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data:          placedPayload,
		}); err != nil {
			return err
		}
		if err := s.box.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGroupOrdered,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   group.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data:          placedPayload,
		}); err != nil {
			return err
		}
		if err := s.emitGroupChanged(ctx, tx, group, userID); err != nil {
			return err
		}

		result = &PlaceResult{
			StoreOrderID:    order.ID,
			Subtotal:        subtotal,
			DeliveryFee:     group.DeliveryFee,
			Total:           order.Total,
			LineCount:       len(lines),
			UnpaidMemberIDs: unpaid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.feed.GroupChanged(ctx, group, userID)
	return result, nil
}

func (s *service) MarkDelivered(ctx context.Context, groupID, userID uuid.UUID, role enums.UserRole) error {
	if groupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var group *models.GroupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := s.loadGroup(ctx, repo, groupID)
		if err != nil {
			return err
		}
		group = found

		// Delivery runners confirm drop-off without being group members;
		// everyone else must be the group admin.
		if role != enums.UserRoleRunner {
			if err := s.requireAdmin(ctx, repo, group, userID); err != nil {
				return err
			}
		}
		if group.Status != enums.GroupStatusOrdered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only an ordered group can be delivered").
				WithDetails(map[string]any{"status": group.Status})
		}

		order, err := repo.FindOrderByGroup(ctx, groupID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find store order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeInconsistentState, "group is ordered but no store order exists").
				WithDetails(map[string]any{"group_id": groupID})
		}

		deliveredAt := s.now().UTC()
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.StoreOrderStatusDelivered,
			"delivered_at": deliveredAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
		}

		ok, err := repo.UpdateGroupWithVersion(ctx, groupID, group.LockVersion, map[string]any{"status": enums.GroupStatusDelivered})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition group to delivered")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.Status = enums.GroupStatusDelivered
		group.LockVersion++

		if err := s.box.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventGroupDelivered,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   group.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.GroupDeliveredEvent{
				GroupID:      group.ID,
				StoreOrderID: order.ID,
				DeliveredBy:  userID,
				DeliveredAt:  deliveredAt,
			},
		}); err != nil {
			return err
		}
		return s.emitGroupChanged(ctx, tx, group, userID)
	})
	if err != nil {
		return err
	}
	s.feed.GroupChanged(ctx, group, userID)
	return nil
}

func (s *service) GetOrder(ctx context.Context, groupID, userID uuid.UUID) (*models.StoreOrder, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	member, err := s.repo.FindMemberByUser(ctx, groupID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
	}
	if member == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	order, err := s.repo.FindOrderByGroup(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find store order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order placed for this group")
	}
	return order, nil
}

func (s *service) loadGroup(ctx context.Context, repo Repository, groupID uuid.UUID) (*models.GroupOrder, error) {
	group, err := repo.FindGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
	}
	return group, nil
}

func (s *service) requireAdmin(ctx context.Context, repo Repository, group *models.GroupOrder, userID uuid.UUID) error {
	member, err := repo.FindMemberByUser(ctx, group.ID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
	}
	if member == nil || !member.IsAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the group admin can do this")
	}
	return nil
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
