package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/internal/settlement"
	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/enums"
)

type groupResponse struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	InviteCode      string            `json:"invite_code"`
	HostelBlock     string            `json:"hostel_block"`
	DeliveryAddress string            `json:"delivery_address"`
	OrderDeadline   time.Time         `json:"order_deadline"`
	Status          enums.GroupStatus `json:"status"`
	CreatedBy       uuid.UUID         `json:"created_by"`
	MinOrderAmount  int               `json:"min_order_amount"`
	DeliveryFee     int               `json:"delivery_fee"`
	Currency        enums.Currency    `json:"currency"`
	LockVersion     int64             `json:"lock_version"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func newGroupResponse(g models.GroupOrder) groupResponse {
	return groupResponse{
		ID:              g.ID,
		Name:            g.Name,
		InviteCode:      g.InviteCode,
		HostelBlock:     g.HostelBlock,
		DeliveryAddress: g.DeliveryAddress,
		OrderDeadline:   g.OrderDeadline,
		Status:          g.Status,
		CreatedBy:       g.CreatedBy,
		MinOrderAmount:  g.MinOrderAmount,
		DeliveryFee:     g.DeliveryFee,
		Currency:        g.Currency,
		LockVersion:     g.LockVersion,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

type memberResponse struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	IsAdmin  bool      `json:"is_admin"`
	HasPaid  bool      `json:"has_paid"`
	JoinedAt time.Time `json:"joined_at"`
}

func newMemberResponse(m models.GroupMember) memberResponse {
	return memberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		IsAdmin:  m.IsAdmin,
		HasPaid:  m.HasPaid,
		JoinedAt: m.CreatedAt,
	}
}

func newMemberResponses(members []models.GroupMember) []memberResponse {
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, newMemberResponse(m))
	}
	return out
}

type itemResponse struct {
	ID          uuid.UUID `json:"id"`
	MemberID    uuid.UUID `json:"member_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Price       int       `json:"price"`
	LineTotal   int       `json:"line_total"`
}

func newItemResponse(i models.GroupItem) itemResponse {
	return itemResponse{
		ID:          i.ID,
		MemberID:    i.MemberID,
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		Price:       i.Price,
		LineTotal:   i.LineTotal(),
	}
}

func newItemResponses(items []models.GroupItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, newItemResponse(i))
	}
	return out
}

// groupDetailResponse is the aggregate view feed subscribers re-fetch after a
// group_changed notification: group, members, items, and the settlement
// breakdown in one payload.
type groupDetailResponse struct {
	Group      groupResponse         `json:"group"`
	Members    []memberResponse      `json:"members"`
	Items      []itemResponse        `json:"items"`
	Settlement *settlement.Breakdown `json:"settlement,omitempty"`
}

type groupListResponse struct {
	Groups     []groupResponse `json:"groups"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

type orderLineResponse struct {
	ID          uuid.UUID `json:"id"`
	MemberID    uuid.UUID `json:"member_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Price       int       `json:"price"`
	LineTotal   int       `json:"line_total"`
}

type storeOrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	GroupOrderID    uuid.UUID              `json:"group_order_id"`
	PlacedBy        uuid.UUID              `json:"placed_by"`
	HostelBlock     string                 `json:"hostel_block"`
	DeliveryAddress string                 `json:"delivery_address"`
	Subtotal        int                    `json:"subtotal"`
	DeliveryFee     int                    `json:"delivery_fee"`
	Total           int                    `json:"total"`
	Currency        enums.Currency         `json:"currency"`
	Status          enums.StoreOrderStatus `json:"status"`
	Lines           []orderLineResponse    `json:"lines"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

func newStoreOrderResponse(o *models.StoreOrder) storeOrderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{
			ID:          l.ID,
			MemberID:    l.MemberID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
			LineTotal:   l.LineTotal,
		})
	}
	return storeOrderResponse{
		ID:              o.ID,
		GroupOrderID:    o.GroupOrderID,
		PlacedBy:        o.PlacedBy,
		HostelBlock:     o.HostelBlock,
		DeliveryAddress: o.DeliveryAddress,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		Total:           o.Total,
		Currency:        o.Currency,
		Status:          o.Status,
		Lines:           lines,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}
