package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/pkg/config"
	dbpkg "github.com/hostelcart/hostelcart-backend/pkg/db"
	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/enums"
	pkgerrors "github.com/hostelcart/hostelcart-backend/pkg/errors"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox/payloads"
	"github.com/hostelcart/hostelcart-backend/pkg/pagination"
)

const openInviteCodeConstraint = "ux_group_orders_open_invite_code"

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

// Service defines group lifecycle operations: creation, membership, and the
// open→locked→cancelled transitions. Item edits and order emission live in
// their own services.
type Service interface {
	Create(ctx context.Context, input CreateGroupInput) (*GroupDetail, error)
	FindByCode(ctx context.Context, code string) (*models.GroupOrder, error)
	Join(ctx context.Context, input JoinInput) (*models.GroupMember, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*GroupList, error)
	GetDetail(ctx context.Context, groupID, userID uuid.UUID) (*GroupDetail, error)
	Lock(ctx context.Context, input ActionInput) error
	Cancel(ctx context.Context, input CancelInput) error
}

type service struct {
	repo  Repository
	tx    txRunner
	box   outboxEmitter
	feed  changeNotifier
	codes CodeGenerator
	cfg   config.GroupConfig
	now   func() time.Time
}

// NewService builds a groups service with the required dependencies.
func NewService(repo Repository, tx txRunner, box outboxEmitter, feed changeNotifier, codes CodeGenerator, cfg config.GroupConfig) (Service, error) {
	if repo == nil {
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
	if codes == nil {
		codes = NewCodeGenerator()
	}
	return &service{
		repo:  repo,
		tx:    tx,
		box:   box,
		feed:  feed,
		codes: codes,
		cfg:   cfg,
		now:   time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateGroupInput) (*GroupDetail, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name required")
	}
	if strings.TrimSpace(input.HostelBlock) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hostel block required")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if input.MinOrderAmount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order amount cannot be negative")
	}
	if !input.OrderDeadline.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order deadline must be in the future")
	}

	attempts := s.cfg.InviteCodeAttempts
	if attempts <= 0 {
		attempts = 5
	}
	deliveryFee := s.cfg.DeliveryFee
	if deliveryFee <= 0 {
		deliveryFee = 10
	}

	for attempt := 0; attempt < attempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invite code")
		}

		group := &models.GroupOrder{
			ID:              uuid.New(),
			Name:            name,
			InviteCode:      code,
			HostelBlock:     strings.TrimSpace(input.HostelBlock),
			DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
			OrderDeadline:   input.OrderDeadline.UTC(),
			Status:          enums.GroupStatusOpen,
			CreatedBy:       input.CreatorID,
			MinOrderAmount:  input.MinOrderAmount,
			DeliveryFee:     deliveryFee,
			Currency:        enums.CurrencyINR,
			LockVersion:     1,
		}
		member := &models.GroupMember{
			ID:           uuid.New(),
			GroupOrderID: group.ID,
			UserID:       input.CreatorID,
			IsAdmin:      true,
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if _, err := repo.CreateGroup(ctx, group); err != nil {
				return err
			}
			if _, err := repo.CreateMember(ctx, member); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create creator membership")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventGroupCreated,
				AggregateType: enums.AggregateGroupOrder,
				AggregateID:   group.ID,
				Version:       1,
				Actor:         buildActor(input.CreatorID),
				Data: payloads.GroupCreatedEvent{
					GroupID:     group.ID,
					CreatorID:   input.CreatorID,
					InviteCode:  group.InviteCode,
					Deadline:    group.OrderDeadline,
					DeliveryFee: group.DeliveryFee,
				},
			}
			if err := s.box.Emit(ctx, tx, event); err != nil {
				return err
			}
			return s.emitGroupChanged(ctx, tx, group, input.CreatorID)
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, openInviteCodeConstraint) {
				continue
			}
			return nil, err
		}

		s.feed.GroupChanged(ctx, group, input.CreatorID)
		return &GroupDetail{Group: *group, Members: []models.GroupMember{*member}}, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique invite code")
}

func (s *service) FindByCode(ctx context.Context, code string) (*models.GroupOrder, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != inviteCodeLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invite code must be 6 characters")
	}
	group, err := s.repo.FindOpenByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open group with that invite code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find group by code")
	}
	return group, nil
}

func (s *service) Join(ctx context.Context, input JoinInput) (*models.GroupMember, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	code := strings.ToUpper(strings.TrimSpace(input.InviteCode))
	if len(code) != inviteCodeLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invite code must be 6 characters")
	}

	var joined *models.GroupMember
	var group *models.GroupOrder
	var existing bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindOpenByInviteCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// A code pointing at a locked/cancelled group is a closed door,
				// not an unknown one.
				closed, lookupErr := repo.FindByInviteCode(ctx, code)
				if lookupErr != nil && !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "find group by code")
				}
				if closed != nil {
					return pkgerrors.New(pkgerrors.CodeForbidden, "this group is no longer accepting members")
				}
				return pkgerrors.New(pkgerrors.CodeNotFound, "no open group with that invite code")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find group by code")
		}
		group = found

		if s.now().After(group.OrderDeadline) {
			return pkgerrors.New(pkgerrors.CodeExpired, "this group's deadline has passed")
		}

		member, err := repo.FindMember(ctx, group.ID, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
		}
		if member != nil {
			// Joining twice is a no-op: return the existing row.
			joined = member
			existing = true
			return nil
		}

		count, err := repo.CountMembers(ctx, group.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
		}
		if s.cfg.MaxMembers > 0 && count >= s.cfg.MaxMembers {
			return pkgerrors.New(pkgerrors.CodePreconditionFailed, "group is full")
		}

		ok, err := repo.UpdateWithVersion(ctx, group.ID, group.LockVersion, map[string]any{"status": enums.GroupStatusOpen})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump group version")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.LockVersion++

		joined, err = repo.CreateMember(ctx, &models.GroupMember{
			ID:           uuid.New(),
			GroupOrderID: group.ID,
			UserID:       input.UserID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventMemberJoined,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   group.ID,
			Version:       1,
			Actor:         buildActor(input.UserID),
			Data: payloads.MemberJoinedEvent{
				GroupID:     group.ID,
				MemberID:    joined.ID,
				UserID:      input.UserID,
				MemberCount: count + 1,
			},
		}
		if err := s.box.Emit(ctx, tx, event); err != nil {
			return err
		}
		return s.emitGroupChanged(ctx, tx, group, input.UserID)
	})
	if err != nil {
		return nil, err
	}
	if !existing {
		s.feed.GroupChanged(ctx, group, input.UserID)
	}
	return joined, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*GroupList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list groups")
	}
	return list, nil
}

func (s *service) GetDetail(ctx context.Context, groupID, userID uuid.UUID) (*GroupDetail, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
	}
	member, err := s.repo.FindMember(ctx, groupID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
	}
	if member == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return &GroupDetail{Group: *group, Members: members}, nil
}

func (s *service) Lock(ctx context.Context, input ActionInput) error {
	if input.GroupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var group *models.GroupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindByID(ctx, input.GroupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
		}
		group = found

		if err := s.requireAdmin(ctx, repo, group.ID, input.UserID); err != nil {
			return err
		}
		if group.Status != enums.GroupStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only an open group can be locked")
		}
		if s.now().After(group.OrderDeadline) {
			return pkgerrors.New(pkgerrors.CodeExpired, "this group's deadline has passed")
		}

		subtotal, err := repo.GroupSubtotal(ctx, group.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute group subtotal")
		}
		if subtotal < group.MinOrderAmount {
			return pkgerrors.New(pkgerrors.CodePreconditionFailed, "minimum order amount not met").
				WithDetails(map[string]any{"subtotal": subtotal, "min_order_amount": group.MinOrderAmount})
		}

		ok, err := repo.UpdateWithVersion(ctx, group.ID, group.LockVersion, map[string]any{"status": enums.GroupStatusLocked})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock group")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.Status = enums.GroupStatusLocked
		group.LockVersion++

		count, err := repo.CountMembers(ctx, group.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventGroupLocked,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   group.ID,
			Version:       1,
			Actor:         buildActor(input.UserID),
			Data: payloads.GroupLockedEvent{
				GroupID:       group.ID,
				LockedBy:      input.UserID,
				MemberCount:   count,
				GroupSubtotal: subtotal,
			},
		}
		if err := s.box.Emit(ctx, tx, event); err != nil {
			return err
		}
		return s.emitGroupChanged(ctx, tx, group, input.UserID)
	})
	if err != nil {
		return err
	}
	s.feed.GroupChanged(ctx, group, input.UserID)
	return nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.GroupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var group *models.GroupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindByID(ctx, input.GroupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
		}
		group = found

		if err := s.requireAdmin(ctx, repo, group.ID, input.UserID); err != nil {
			return err
		}
		if !group.Status.CanTransitionTo(enums.GroupStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "group cannot be cancelled in its current state")
		}

		ok, err := repo.UpdateWithVersion(ctx, group.ID, group.LockVersion, map[string]any{"status": enums.GroupStatusCancelled})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel group")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.Status = enums.GroupStatusCancelled
		group.LockVersion++

		event := outbox.DomainEvent{
			EventType:     enums.EventGroupCancelled,
			AggregateType: enums.AggregateGroupOrder,
			AggregateID:   group.ID,
			Version:       1,
			Actor:         buildActor(input.UserID),
			Data: payloads.GroupCancelledEvent{
				GroupID:     group.ID,
				CancelledBy: input.UserID,
				Reason:      strings.TrimSpace(input.Reason),
			},
		}
		if err := s.box.Emit(ctx, tx, event); err != nil {
			return err
		}
		return s.emitGroupChanged(ctx, tx, group, input.UserID)
	})
	if err != nil {
		return err
	}
	s.feed.GroupChanged(ctx, group, input.UserID)
	return nil
}

func (s *service) requireAdmin(ctx context.Context, repo Repository, groupID, userID uuid.UUID) error {
	member, err := repo.FindMember(ctx, groupID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
	}
	if member == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	if !member.IsAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func (s *service) emitGroupChanged(ctx context.Context, tx *gorm.DB, group *models.GroupOrder, actorID uuid.UUID) error {
	return s.box.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventGroupChanged,
		AggregateType: enums.AggregateGroupOrder,
		AggregateID:   group.ID,
		Version:       1,
		Actor:         buildActor(actorID),
		Data: payloads.GroupChangedEvent{
			GroupID:     group.ID,
			Status:      group.Status,
			LockVersion: group.LockVersion,
			ChangedBy:   actorID,
		},
	})
}

func buildActor(userID uuid.UUID) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID}
}
