package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/internal/users"
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
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type changeNotifier interface {
	GroupChanged(ctx context.Context, group *models.GroupOrder, actorID uuid.UUID)
}

// Service computes settlement breakdowns and moves wallet money. Payments
// are accepted once totals are final (locked or ordered); the refund flag
// reversal is an admin action and only before the order leaves (open or
// locked).
type Service interface {
	GetBreakdown(ctx context.Context, groupID, userID uuid.UUID) (*Breakdown, error)
	Pay(ctx context.Context, groupID, userID uuid.UUID) (*PayResult, error)
	MarkUnpaid(ctx context.Context, groupID, memberID, actorUserID uuid.UUID) error
}

type service struct {
	repo   Repository
	wallet users.Repository
	tx     txRunner
	box    outboxEmitter
	feed   changeNotifier
}

// NewService builds a settlement service with the required dependencies.
func NewService(repo Repository, wallet users.Repository, tx txRunner, box outboxEmitter, feed changeNotifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet repository required")
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
	return &service{repo: repo, wallet: wallet, tx: tx, box: box, feed: feed}, nil
}

func (s *service) GetBreakdown(ctx context.Context, groupID, userID uuid.UUID) (*Breakdown, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	group, err := s.loadGroup(ctx, s.repo, groupID)
	if err != nil {
		return nil, err
	}
	requester, err := s.repo.FindMemberByUser(ctx, groupID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
	}
	if requester == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	groupSubtotal, err := s.repo.GroupSubtotal(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "group subtotal")
	}

	share := DeliveryShare(group.DeliveryFee, len(members))
	breakdown := &Breakdown{
		GroupID:        group.ID,
		Status:         group.Status,
		Currency:       group.Currency,
		MemberCount:    len(members),
		GroupSubtotal:  groupSubtotal,
		DeliveryFee:    group.DeliveryFee,
		DeliveryShare:  share,
		GrandTotal:     GroupGrandTotal(groupSubtotal, group.DeliveryFee),
		MinOrderAmount: group.MinOrderAmount,
		MeetsMinimum:   MeetsMinimum(groupSubtotal, group.MinOrderAmount),
		Members:        make([]MemberShare, 0, len(members)),
	}
	for _, member := range members {
		memberSubtotal, err := s.repo.MemberSubtotal(ctx, member.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "member subtotal")
		}
		breakdown.Members = append(breakdown.Members, MemberShare{
			MemberID:      member.ID,
			UserID:        member.UserID,
			IsAdmin:       member.IsAdmin,
			HasPaid:       member.HasPaid,
			ItemsSubtotal: memberSubtotal,
			DeliveryShare: share,
			TotalDue:      MemberTotal(memberSubtotal, share),
		})
	}
	return breakdown, nil
}

func (s *service) Pay(ctx context.Context, groupID, userID uuid.UUID) (*PayResult, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *PayResult
	var group *models.GroupOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet := s.wallet.WithTx(tx)

		found, err := s.loadGroup(ctx, repo, groupID)
		if err != nil {
			return err
		}
		group = found

		member, err := repo.FindMemberByUser(ctx, groupID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
		}
		if member == nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
		}
		if group.Status != enums.GroupStatusLocked && group.Status != enums.GroupStatusOrdered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "dues are collected once the group is locked").
				WithDetails(map[string]any{"status": group.Status})
		}
		if member.HasPaid {
			result = &PayResult{MemberID: member.ID, AlreadyPaid: true}
			return nil
		}

		memberSubtotal, err := repo.MemberSubtotal(ctx, member.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "member subtotal")
		}
		memberCount, err := s.memberCount(ctx, repo, groupID)
		if err != nil {
			return err
		}
		total := MemberTotal(memberSubtotal, DeliveryShare(group.DeliveryFee, memberCount))

		if total > 0 {
			debited, err := wallet.DebitWallet(ctx, userID, total)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
			}
			if !debited {
				return pkgerrors.New(pkgerrors.CodePreconditionFailed, "insufficient wallet balance").
					WithDetails(map[string]any{"amount_due": total})
			}
		}
		if err := repo.SetMemberPaid(ctx, member.ID, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark member paid")
		}

		ok, err := repo.UpdateGroupWithVersion(ctx, groupID, group.LockVersion, map[string]any{"status": group.Status})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump group version")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.LockVersion++

		if err := s.emitMemberPaid(ctx, tx, group, member, userID, total, true); err != nil {
			return err
		}
		result = &PayResult{MemberID: member.ID, AmountCharged: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.AlreadyPaid {
		s.feed.GroupChanged(ctx, group, userID)
	}
	return result, nil
}

func (s *service) MarkUnpaid(ctx context.Context, groupID, memberID, actorUserID uuid.UUID) error {
	if groupID == uuid.Nil || memberID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group id and member id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var group *models.GroupOrder
	var reversed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet := s.wallet.WithTx(tx)

		found, err := s.loadGroup(ctx, repo, groupID)
		if err != nil {
			return err
		}
		group = found

		actor, err := repo.FindMemberByUser(ctx, groupID, actorUserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find membership")
		}
		if actor == nil || !actor.IsAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the group admin can reverse a payment")
		}
		// Reversal stops once the store order is out: the money has left.
		if group.Status != enums.GroupStatusOpen && group.Status != enums.GroupStatusLocked {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payments are final once the order is placed").
				WithDetails(map[string]any{"status": group.Status})
		}

		member, err := repo.FindMemberByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
		}
		if member.GroupOrderID != groupID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found in this group")
		}
		if !member.HasPaid {
			return nil
		}

		// Membership is frozen while locked and payment is impossible while
		// open, so the recomputed total matches what was debited.
		memberSubtotal, err := repo.MemberSubtotal(ctx, member.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "member subtotal")
		}
		memberCount, err := s.memberCount(ctx, repo, groupID)
		if err != nil {
			return err
		}
		refund := MemberTotal(memberSubtotal, DeliveryShare(group.DeliveryFee, memberCount))

		if refund > 0 {
			if err := wallet.CreditWallet(ctx, member.UserID, refund); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
			}
		}
		if err := repo.SetMemberPaid(ctx, member.ID, false); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear member paid flag")
		}

		ok, err := repo.UpdateGroupWithVersion(ctx, groupID, group.LockVersion, map[string]any{"status": group.Status})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump group version")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "group changed concurrently, retry")
		}
		group.LockVersion++
		reversed = true

		return s.emitMemberPaid(ctx, tx, group, member, actorUserID, refund, false)
	})
	if err != nil {
		return err
	}
	if reversed {
		s.feed.GroupChanged(ctx, group, actorUserID)
	}
	return nil
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

func (s *service) memberCount(ctx context.Context, repo Repository, groupID uuid.UUID) (int, error) {
	members, err := repo.ListMembers(ctx, groupID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return len(members), nil
}

func (s *service) emitMemberPaid(ctx context.Context, tx *gorm.DB, group *models.GroupOrder, member *models.GroupMember, actorID uuid.UUID, amount int, paid bool) error {
	err := s.box.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventMemberPaid,
		AggregateType: enums.AggregateGroupOrder,
		AggregateID:   group.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID},
		Data: payloads.MemberPaidEvent{
			GroupID:  group.ID,
			MemberID: member.ID,
			UserID:   member.UserID,
			Amount:   amount,
			HasPaid:  paid,
		},
	})
	if err != nil {
		return err
	}
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
