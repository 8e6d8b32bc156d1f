package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/api/middleware"
	"github.com/hostelcart/hostelcart-backend/internal/groups"
	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/enums"
	pkgerrors "github.com/hostelcart/hostelcart-backend/pkg/errors"
	"github.com/hostelcart/hostelcart-backend/pkg/pagination"
)

type stubGroupsService struct {
	createDetail *groups.GroupDetail
	createErr    error
	joinMember   *models.GroupMember
	joinErr      error
	lockErr      error

	lastCreate groups.CreateGroupInput
	lastJoin   groups.JoinInput
	lastLock   groups.ActionInput
}

func (s *stubGroupsService) Create(_ context.Context, input groups.CreateGroupInput) (*groups.GroupDetail, error) {
	s.lastCreate = input
	return s.createDetail, s.createErr
}

func (s *stubGroupsService) FindByCode(context.Context, string) (*models.GroupOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open group with that code")
}

func (s *stubGroupsService) Join(_ context.Context, input groups.JoinInput) (*models.GroupMember, error) {
	s.lastJoin = input
	return s.joinMember, s.joinErr
}

func (s *stubGroupsService) ListForUser(context.Context, uuid.UUID, pagination.Params) (*groups.GroupList, error) {
	return &groups.GroupList{}, nil
}

func (s *stubGroupsService) GetDetail(context.Context, uuid.UUID, uuid.UUID) (*groups.GroupDetail, error) {
	return s.createDetail, s.createErr
}

func (s *stubGroupsService) Lock(_ context.Context, input groups.ActionInput) error {
	s.lastLock = input
	return s.lockErr
}

func (s *stubGroupsService) Cancel(context.Context, groups.CancelInput) error {
	return nil
}

func authedRequest(method, target string, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	return payload.Error.Code
}

func TestCreateGroupHappyPath(t *testing.T) {
	userID := uuid.New()
	group := models.GroupOrder{
		ID:            uuid.New(),
		Name:          "maggi run",
		InviteCode:    "AB12CD",
		Status:        enums.GroupStatusOpen,
		CreatedBy:     userID,
		OrderDeadline: time.Now().Add(time.Hour).UTC(),
	}
	svc := &stubGroupsService{createDetail: &groups.GroupDetail{
		Group:   group,
		Members: []models.GroupMember{{ID: uuid.New(), GroupOrderID: group.ID, UserID: userID, IsAdmin: true}},
	}}

	body := `{"name":"maggi run","hostel_block":"B-2","delivery_address":"Gate 3","order_deadline":"2026-09-01T21:00:00Z","min_order_amount":100}`
	req := authedRequest(http.MethodPost, "/api/v1/groups", body, userID)
	resp := httptest.NewRecorder()
	CreateGroup(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCreate.CreatorID != userID {
		t.Fatalf("expected creator %s got %s", userID, svc.lastCreate.CreatorID)
	}
	if svc.lastCreate.MinOrderAmount != 100 {
		t.Fatalf("expected min order 100 got %d", svc.lastCreate.MinOrderAmount)
	}

	var envelope struct {
		Data groupDetailResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if envelope.Data.Group.InviteCode != "AB12CD" {
		t.Fatalf("expected invite code in response, got %+v", envelope.Data.Group)
	}
	if len(envelope.Data.Members) != 1 || !envelope.Data.Members[0].IsAdmin {
		t.Fatalf("expected creator as admin member, got %+v", envelope.Data.Members)
	}
}

func TestCreateGroupRejectsBadDeadline(t *testing.T) {
	svc := &stubGroupsService{}
	body := `{"name":"maggi run","hostel_block":"B-2","delivery_address":"Gate 3","order_deadline":"tonight"}`
	req := authedRequest(http.MethodPost, "/api/v1/groups", body, uuid.New())
	resp := httptest.NewRecorder()
	CreateGroup(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", code)
	}
}

func TestCreateGroupRequiresAuth(t *testing.T) {
	svc := &stubGroupsService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CreateGroup(svc, nil)(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestJoinGroupPassesInviteCode(t *testing.T) {
	userID := uuid.New()
	groupID := uuid.New()
	svc := &stubGroupsService{joinMember: &models.GroupMember{
		ID:           uuid.New(),
		GroupOrderID: groupID,
		UserID:       userID,
	}}

	req := authedRequest(http.MethodPost, "/api/v1/groups/join", `{"invite_code":"AB12CD"}`, userID)
	resp := httptest.NewRecorder()
	JoinGroup(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastJoin.InviteCode != "AB12CD" || svc.lastJoin.UserID != userID {
		t.Fatalf("unexpected join input %+v", svc.lastJoin)
	}
}

func TestJoinGroupSurfacesExpired(t *testing.T) {
	svc := &stubGroupsService{joinErr: pkgerrors.New(pkgerrors.CodeExpired, "group deadline has passed")}

	req := authedRequest(http.MethodPost, "/api/v1/groups/join", `{"invite_code":"AB12CD"}`, uuid.New())
	resp := httptest.NewRecorder()
	JoinGroup(svc, nil)(resp, req)

	if resp.Code != http.StatusGone {
		t.Fatalf("expected 410 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeExpired) {
		t.Fatalf("expected expired code got %s", code)
	}
}

func TestLockGroupParsesGroupID(t *testing.T) {
	userID := uuid.New()
	groupID := uuid.New()
	svc := &stubGroupsService{}

	req := authedRequest(http.MethodPost, "/api/v1/groups/"+groupID.String()+"/lock", "", userID)
	req = withURLParam(req, "groupId", groupID.String())
	resp := httptest.NewRecorder()
	LockGroup(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastLock.GroupID != groupID || svc.lastLock.UserID != userID {
		t.Fatalf("unexpected lock input %+v", svc.lastLock)
	}
}

func TestLockGroupRejectsBadID(t *testing.T) {
	svc := &stubGroupsService{}
	req := authedRequest(http.MethodPost, "/api/v1/groups/not-a-uuid/lock", "", uuid.New())
	req = withURLParam(req, "groupId", "not-a-uuid")
	resp := httptest.NewRecorder()
	LockGroup(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLockGroupSurfacesConcurrencyConflict(t *testing.T) {
	svc := &stubGroupsService{lockErr: pkgerrors.New(pkgerrors.CodeConcurrency, "group changed underneath you")}
	groupID := uuid.New()

	req := authedRequest(http.MethodPost, "/api/v1/groups/"+groupID.String()+"/lock", "", uuid.New())
	req = withURLParam(req, "groupId", groupID.String())
	resp := httptest.NewRecorder()
	LockGroup(svc, nil)(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeConcurrency) {
		t.Fatalf("expected concurrency code got %s", code)
	}
}
