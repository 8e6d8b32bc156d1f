package items

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/internal/groups"
	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/enums"
	pkgerrors "github.com/hostelcart/hostelcart-backend/pkg/errors"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox"
	"github.com/hostelcart/hostelcart-backend/pkg/pagination"
)

type stubItemsRepo struct {
	items map[uuid.UUID]*models.GroupItem
}

func newStubItemsRepo() *stubItemsRepo {
	return &stubItemsRepo{items: map[uuid.UUID]*models.GroupItem{}}
}

func (s *stubItemsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubItemsRepo) CreateItem(ctx context.Context, item *models.GroupItem) (*models.GroupItem, error) {
	s.items[item.ID] = item
	return item, nil
}

func (s *stubItemsRepo) FindItem(ctx context.Context, itemID uuid.UUID) (*models.GroupItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *stubItemsRepo) FindMemberItemByProduct(ctx context.Context, memberID, productID uuid.UUID) (*models.GroupItem, error) {
	for _, item := range s.items {
		if item.MemberID == memberID && item.ProductID == productID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubItemsRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if item, ok := s.items[itemID]; ok {
		item.Quantity = quantity
	}
	return nil
}

func (s *stubItemsRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}

func (s *stubItemsRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.GroupItem, error) {
	var rows []models.GroupItem
	for _, item := range s.items {
		if item.GroupOrderID == groupID {
			rows = append(rows, *item)
		}
	}
	return rows, nil
}

func (s *stubItemsRepo) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.GroupItem, error) {
	var rows []models.GroupItem
	for _, item := range s.items {
		if item.MemberID == memberID {
			rows = append(rows, *item)
		}
	}
	return rows, nil
}

func (s *stubItemsRepo) MemberSubtotal(ctx context.Context, memberID uuid.UUID) (int, error) {
	total := 0
	for _, item := range s.items {
		if item.MemberID == memberID {
			total += item.Price * item.Quantity
		}
	}
	return total, nil
}

func (s *stubItemsRepo) GroupSubtotal(ctx context.Context, groupID uuid.UUID) (int, error) {
	total := 0
	for _, item := range s.items {
		if item.GroupOrderID == groupID {
			total += item.Price * item.Quantity
		}
	}
	return total, nil
}

type stubGroupStore struct {
	group           *models.GroupOrder
	members         map[uuid.UUID]*models.GroupMember
	versionConflict bool
}

func newStubGroupStore() *stubGroupStore {
	return &stubGroupStore{members: map[uuid.UUID]*models.GroupMember{}}
}

func (s *stubGroupStore) WithTx(tx *gorm.DB) groups.Repository { return s }

func (s *stubGroupStore) CreateGroup(ctx context.Context, group *models.GroupOrder) (*models.GroupOrder, error) {
	s.group = group
	return group, nil
}

func (s *stubGroupStore) CreateMember(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error) {
	s.members[member.UserID] = member
	return member, nil
}

func (s *stubGroupStore) FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	if s.group == nil || s.group.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.group
	return &copied, nil
}

func (s *stubGroupStore) FindOpenByInviteCode(ctx context.Context, code string) (*models.GroupOrder, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGroupStore) FindByInviteCode(ctx context.Context, code string) (*models.GroupOrder, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGroupStore) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*groups.GroupList, error) {
	return &groups.GroupList{}, nil
}

func (s *stubGroupStore) FindMember(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	member, ok := s.members[userID]
	if !ok || member.GroupOrderID != groupID {
		return nil, nil
	}
	return member, nil
}

func (s *stubGroupStore) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	var members []models.GroupMember
	for _, m := range s.members {
		if m.GroupOrderID == groupID {
			members = append(members, *m)
		}
	}
	return members, nil
}

func (s *stubGroupStore) CountMembers(ctx context.Context, groupID uuid.UUID) (int, error) {
	members, _ := s.ListMembers(ctx, groupID)
	return len(members), nil
}

func (s *stubGroupStore) GroupSubtotal(ctx context.Context, groupID uuid.UUID) (int, error) {
	return 0, nil
}

func (s *stubGroupStore) UpdateWithVersion(ctx context.Context, groupID uuid.UUID, expected int64, updates map[string]any) (bool, error) {
	if s.versionConflict {
		return false, nil
	}
	if s.group == nil || s.group.ID != groupID || s.group.LockVersion != expected {
		return false, nil
	}
	if status, ok := updates["status"].(enums.GroupStatus); ok {
		s.group.Status = status
	}
	s.group.LockVersion = expected + 1
	return true, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubNotifier struct {
	changed []uuid.UUID
}

func (s *stubNotifier) GroupChanged(ctx context.Context, group *models.GroupOrder, actorID uuid.UUID) {
	s.changed = append(s.changed, group.ID)
}

type itemsFixture struct {
	svc      *service
	repo     *stubItemsRepo
	groups   *stubGroupStore
	emitter  *stubEmitter
	notifier *stubNotifier
	group    *models.GroupOrder
	admin    *models.GroupMember
	member   *models.GroupMember
}

func newItemsFixture(t *testing.T) *itemsFixture {
	t.Helper()
	repo := newStubItemsRepo()
	groupStore := newStubGroupStore()
	emitter := &stubEmitter{}
	notifier := &stubNotifier{}

	svc, err := NewService(repo, groupStore, stubTxRunner{}, emitter, notifier)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	adminUser := uuid.New()
	memberUser := uuid.New()
	group := &models.GroupOrder{
		ID:             uuid.New(),
		CreatedBy:      adminUser,
		InviteCode:     "AB12C3",
		Status:         enums.GroupStatusOpen,
		MinOrderAmount: 100,
		DeliveryFee:    10,
		OrderDeadline:  time.Now().Add(30 * time.Minute),
		LockVersion:    1,
	}
	groupStore.group = group
	admin := &models.GroupMember{ID: uuid.New(), GroupOrderID: group.ID, UserID: adminUser, IsAdmin: true}
	member := &models.GroupMember{ID: uuid.New(), GroupOrderID: group.ID, UserID: memberUser}
	groupStore.members[adminUser] = admin
	groupStore.members[memberUser] = member

	return &itemsFixture{
		svc:      svc.(*service),
		repo:     repo,
		groups:   groupStore,
		emitter:  emitter,
		notifier: notifier,
		group:    group,
		admin:    admin,
		member:   member,
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !pkgerrors.IsCode(err, code) {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestAddItemValidation(t *testing.T) {
	fx := newItemsFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input AddItemInput
		code  pkgerrors.Code
	}{
		{"missing group", AddItemInput{UserID: fx.member.UserID, ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 1}, pkgerrors.CodeValidation},
		{"missing user", AddItemInput{GroupID: fx.group.ID, ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 1}, pkgerrors.CodeUnauthorized},
		{"missing product", AddItemInput{GroupID: fx.group.ID, UserID: fx.member.UserID, ProductName: "Chips", Price: 20, Quantity: 1}, pkgerrors.CodeValidation},
		{"blank name", AddItemInput{GroupID: fx.group.ID, UserID: fx.member.UserID, ProductID: uuid.New(), ProductName: "  ", Price: 20, Quantity: 1}, pkgerrors.CodeValidation},
		{"zero quantity", AddItemInput{GroupID: fx.group.ID, UserID: fx.member.UserID, ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 0}, pkgerrors.CodeValidation},
		{"negative quantity", AddItemInput{GroupID: fx.group.ID, UserID: fx.member.UserID, ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: -2}, pkgerrors.CodeValidation},
		{"negative price", AddItemInput{GroupID: fx.group.ID, UserID: fx.member.UserID, ProductID: uuid.New(), ProductName: "Chips", Price: -1, Quantity: 1}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.AddItem(ctx, tc.input)
			assertCode(t, err, tc.code)
		})
	}
}

func TestAddItemCreatesAndBumpsVersion(t *testing.T) {
	fx := newItemsFixture(t)
	ctx := context.Background()

	item, err := fx.svc.AddItem(ctx, AddItemInput{
		GroupID:     fx.group.ID,
		UserID:      fx.member.UserID,
		ProductID:   uuid.New(),
		ProductName: "Maggi Noodles",
		Price:       15,
		Quantity:    4,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.MemberID != fx.member.ID {
		t.Fatalf("item attributed to wrong member")
	}
	if fx.groups.group.LockVersion != 2 {
		t.Fatalf("expected lock version 2, got %d", fx.groups.group.LockVersion)
	}
	if fx.groups.group.Status != enums.GroupStatusOpen {
		t.Fatalf("status must stay open, got %s", fx.groups.group.Status)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventGroupChanged {
		t.Fatalf("expected a single group_changed event, got %+v", fx.emitter.events)
	}
	if len(fx.notifier.changed) != 1 {
		t.Fatalf("expected one feed notification")
	}
}

func TestAddItemIncrementsSameProduct(t *testing.T) {
	fx := newItemsFixture(t)
	ctx := context.Background()
	productID := uuid.New()

	first, err := fx.svc.AddItem(ctx, AddItemInput{
		GroupID: fx.group.ID, UserID: fx.member.UserID,
		ProductID: productID, ProductName: "Cold Coffee", Price: 40, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := fx.svc.AddItem(ctx, AddItemInput{
		GroupID: fx.group.ID, UserID: fx.member.UserID,
		ProductID: productID, ProductName: "Cold Coffee", Price: 40, Quantity: 2,
	})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the existing row to be incremented, got a new one")
	}
	if second.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", second.Quantity)
	}
	if len(fx.repo.items) != 1 {
		t.Fatalf("expected one row, got %d", len(fx.repo.items))
	}

	// Same product added by a different member stays a separate row.
	other, err := fx.svc.AddItem(ctx, AddItemInput{
		GroupID: fx.group.ID, UserID: fx.admin.UserID,
		ProductID: productID, ProductName: "Cold Coffee", Price: 40, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("admin add: %v", err)
	}
	if other.ID == first.ID {
		t.Fatalf("rows must not be shared across members")
	}
}

func TestSubtotalsTrackEveryMutation(t *testing.T) {
	fx := newItemsFixture(t)
	ctx := context.Background()

	assertGroupSubtotal := func(want int) {
		t.Helper()
		got, err := fx.svc.GroupSubtotal(ctx, fx.group.ID)
		if err != nil {
			t.Fatalf("group subtotal: %v", err)
		}
		if got != want {
			t.Fatalf("group subtotal: want %d, got %d", want, got)
		}
	}

	assertGroupSubtotal(0)

	item, err := fx.svc.AddItem(ctx, AddItemInput{
		GroupID: fx.group.ID, UserID: fx.member.UserID,
		ProductID: uuid.New(), ProductName: "Samosa", Price: 12, Quantity: 5,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	assertGroupSubtotal(60)

	if _, err := fx.svc.AddItem(ctx, AddItemInput{
		GroupID: fx.group.ID, UserID: fx.admin.UserID,
		ProductID: uuid.New(), ProductName: "Juice", Price: 30, Quantity: 2,
	}); err != nil {
		t.Fatalf("add second item: %v", err)
	}
	assertGroupSubtotal(120)

	memberTotal, err := fx.svc.MemberSubtotal(ctx, fx.member.ID)
	if err != nil {
		t.Fatalf("member subtotal: %v", err)
	}
	if memberTotal != 60 {
		t.Fatalf("member subtotal: want 60, got %d", memberTotal)
	}

	if err := fx.svc.RemoveItem(ctx, RemoveItemInput{
		GroupID: fx.group.ID, ItemID: item.ID, UserID: fx.member.UserID,
	}); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	assertGroupSubtotal(60)
}

func TestAddItemRequiresMembership(t *testing.T) {
	fx := newItemsFixture(t)

	_, err := fx.svc.AddItem(context.Background(), AddItemInput{
		GroupID: fx.group.ID, UserID: uuid.New(),
		ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 1,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestAddItemUnknownGroup(t *testing.T) {
	fx := newItemsFixture(t)

	_, err := fx.svc.AddItem(context.Background(), AddItemInput{
		GroupID: uuid.New(), UserID: fx.member.UserID,
		ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 1,
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestAddItemRejectedAfterLock(t *testing.T) {
	fx := newItemsFixture(t)
	fx.group.Status = enums.GroupStatusLocked

	_, err := fx.svc.AddItem(context.Background(), AddItemInput{
		GroupID: fx.group.ID, UserID: fx.member.UserID,
		ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 1,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
	if len(fx.emitter.events) != 0 {
		t.Fatalf("no events should be emitted on a rejected mutation")
	}
}

func TestAddItemConcurrencyConflict(t *testing.T) {
	fx := newItemsFixture(t)
	fx.groups.versionConflict = true

	_, err := fx.svc.AddItem(context.Background(), AddItemInput{
		GroupID: fx.group.ID, UserID: fx.member.UserID,
		ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 1,
	})
	assertCode(t, err, pkgerrors.CodeConcurrency)
	if !pkgerrors.MetadataFor(pkgerrors.CodeConcurrency).Retryable {
		t.Fatalf("concurrency conflicts must be retryable")
	}
}

func TestRemoveItemOwnershipAndState(t *testing.T) {
	fx := newItemsFixture(t)
	ctx := context.Background()

	item, err := fx.svc.AddItem(ctx, AddItemInput{
		GroupID: fx.group.ID, UserID: fx.member.UserID,
		ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	// Another member, even the admin, cannot remove someone else's item.
	err = fx.svc.RemoveItem(ctx, RemoveItemInput{GroupID: fx.group.ID, ItemID: item.ID, UserID: fx.admin.UserID})
	assertCode(t, err, pkgerrors.CodeForbidden)

	err = fx.svc.RemoveItem(ctx, RemoveItemInput{GroupID: fx.group.ID, ItemID: uuid.New(), UserID: fx.member.UserID})
	assertCode(t, err, pkgerrors.CodeNotFound)

	fx.group.Status = enums.GroupStatusLocked
	err = fx.svc.RemoveItem(ctx, RemoveItemInput{GroupID: fx.group.ID, ItemID: item.ID, UserID: fx.member.UserID})
	assertCode(t, err, pkgerrors.CodeForbidden)

	fx.group.Status = enums.GroupStatusOpen
	if err := fx.svc.RemoveItem(ctx, RemoveItemInput{GroupID: fx.group.ID, ItemID: item.ID, UserID: fx.member.UserID}); err != nil {
		t.Fatalf("remove own item: %v", err)
	}
	if len(fx.repo.items) != 0 {
		t.Fatalf("item should be gone")
	}
}

func TestListGroupItemsRequiresMembership(t *testing.T) {
	fx := newItemsFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.AddItem(ctx, AddItemInput{
		GroupID: fx.group.ID, UserID: fx.member.UserID,
		ProductID: uuid.New(), ProductName: "Chips", Price: 20, Quantity: 1,
	}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	rows, err := fx.svc.ListGroupItems(ctx, fx.group.ID, fx.admin.UserID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one item, got %d", len(rows))
	}

	_, err = fx.svc.ListGroupItems(ctx, fx.group.ID, uuid.New())
	assertCode(t, err, pkgerrors.CodeForbidden)
}
