package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/api/responses"
	"github.com/hostelcart/hostelcart-backend/api/validators"
	"github.com/hostelcart/hostelcart-backend/internal/items"
	pkgerrors "github.com/hostelcart/hostelcart-backend/pkg/errors"
	"github.com/hostelcart/hostelcart-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	ProductName string    `json:"product_name" validate:"required,max=200"`
	Quantity    int       `json:"quantity" validate:"required,min=1"`
	Price       int       `json:"price" validate:"min=0"`
}

// AddItem appends an item to the shared cart, or bumps quantity when the
// member already added the same product.
func AddItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
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

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), items.AddItemInput{
			GroupID:     groupID,
			UserID:      actorID,
			ProductID:   body.ProductID,
			ProductName: validators.SanitizeString(body.ProductName, 200),
			Quantity:    body.Quantity,
			Price:       body.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newItemResponse(*item))
	}
}

// RemoveItem deletes the caller's own item from an open group.
func RemoveItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
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

		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), items.RemoveItemInput{
			GroupID: groupID,
			ItemID:  itemID,
			UserID:  actorID,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
