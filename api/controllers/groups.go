package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hostelcart/hostelcart-backend/api/responses"
	"github.com/hostelcart/hostelcart-backend/api/validators"
	"github.com/hostelcart/hostelcart-backend/internal/groups"
	"github.com/hostelcart/hostelcart-backend/internal/items"
	"github.com/hostelcart/hostelcart-backend/internal/settlement"
	pkgerrors "github.com/hostelcart/hostelcart-backend/pkg/errors"
	"github.com/hostelcart/hostelcart-backend/pkg/logger"
	"github.com/hostelcart/hostelcart-backend/pkg/pagination"
)

type createGroupRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	HostelBlock     string `json:"hostel_block" validate:"required,max=60"`
	DeliveryAddress string `json:"delivery_address" validate:"required,max=300"`
	OrderDeadline   string `json:"order_deadline" validate:"required"`
	MinOrderAmount  int    `json:"min_order_amount" validate:"min=0"`
}

type joinGroupRequest struct {
	InviteCode string `json:"invite_code" validate:"required,len=6"`
}

// CreateGroup opens a new group order with the caller as admin member.
func CreateGroup(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createGroupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deadline, err := time.Parse(time.RFC3339, body.OrderDeadline)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order_deadline must be RFC3339").WithDetails(map[string]any{"field": "order_deadline"}))
			return
		}

		detail, err := svc.Create(r.Context(), groups.CreateGroupInput{
			CreatorID:       actorID,
			Name:            validators.SanitizeString(body.Name, 120),
			HostelBlock:     validators.SanitizeString(body.HostelBlock, 60),
			DeliveryAddress: validators.SanitizeString(body.DeliveryAddress, 300),
			OrderDeadline:   deadline,
			MinOrderAmount:  body.MinOrderAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, groupDetailResponse{
			Group:   newGroupResponse(detail.Group),
			Members: newMemberResponses(detail.Members),
			Items:   []itemResponse{},
		})
	}
}

// ResolveInviteCode looks up the open group behind an invite code.
func ResolveInviteCode(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invite code is required"))
			return
		}

		group, err := svc.FindByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newGroupResponse(*group))
	}
}

// JoinGroup adds the caller to the group behind the invite code. Re-joining
// the same group succeeds and returns the existing membership.
func JoinGroup(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body joinGroupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Join(r.Context(), groups.JoinInput{
			InviteCode: body.InviteCode,
			UserID:     actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"group_id": member.GroupOrderID,
			"member":   newMemberResponse(*member),
		})
	}
}

// ListMyGroups returns one cursor page of the caller's groups, any status.
func ListMyGroups(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), actorID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupsOut := make([]groupResponse, 0, len(list.Groups))
		for _, g := range list.Groups {
			groupsOut = append(groupsOut, newGroupResponse(g))
		}
		responses.WriteSuccess(w, groupListResponse{
			Groups:     groupsOut,
			NextCursor: list.NextCursor,
		})
	}
}

// GroupDetail returns the aggregate view: group, members, items, settlement.
func GroupDetail(groupSvc groups.Service, itemSvc items.Service, settleSvc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if groupSvc == nil || itemSvc == nil || settleSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group services unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupID, err := parseUUIDParam(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := groupSvc.GetDetail(r.Context(), groupID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupItems, err := itemSvc.ListGroupItems(r.Context(), groupID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown, err := settleSvc.GetBreakdown(r.Context(), groupID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, groupDetailResponse{
			Group:      newGroupResponse(detail.Group),
			Members:    newMemberResponses(detail.Members),
			Items:      newItemResponses(groupItems),
			Settlement: breakdown,
		})
	}
}

// LockGroup freezes membership and item edits so dues can be collected.
func LockGroup(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupID, err := parseUUIDParam(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Lock(r.Context(), groups.ActionInput{GroupID: groupID, UserID: actorID}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "locked"})
	}
}

type cancelGroupRequest struct {
	Reason string `json:"reason" validate:"max=300"`
}

// CancelGroup abandons a group from open or locked. Terminal.
func CancelGroup(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groupID, err := parseUUIDParam(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelGroupRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if err := svc.Cancel(r.Context(), groups.CancelInput{
			GroupID: groupID,
			UserID:  actorID,
			Reason:  validators.SanitizeString(body.Reason, 300),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
