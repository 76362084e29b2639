package order

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/common"
)

// Handler exposes the authenticated user's order history.
type Handler struct {
	store *PGStore
}

// NewHandler constructs a Handler.
func NewHandler(store *PGStore) *Handler {
	return &Handler{store: store}
}

// View is the serialized representation of an order.
type View struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"productId"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	DiscountAmount      decimal.Decimal `json:"discountAmount"`
	FinalAmount         decimal.Decimal `json:"finalAmount"`
	VoucherCode         *string         `json:"voucherCode,omitempty"`
	DurationMonths      int             `json:"durationMonths"`
	OriginalPrice       decimal.Decimal `json:"originalPrice"`
	FinalPrice          decimal.Decimal `json:"finalPrice"`
	SubscriptionEndDate time.Time       `json:"subscriptionEndDate"`
	PaymentStatus       PaymentStatus   `json:"paymentStatus"`
	OrderStatus         Status          `json:"orderStatus"`
	OrderDate           time.Time       `json:"orderDate"`
}

// ToView converts an order to its serialized form.
func ToView(o Order) View {
	return View{
		ID:                  o.ID.String(),
		ProductID:           o.ProductID.String(),
		Quantity:            o.Quantity,
		UnitPrice:           o.UnitPrice,
		TotalAmount:         o.TotalAmount,
		DiscountAmount:      o.DiscountAmount,
		FinalAmount:         o.FinalAmount,
		VoucherCode:         o.VoucherCode,
		DurationMonths:      o.DurationMonths,
		OriginalPrice:       o.OriginalPrice,
		FinalPrice:          o.FinalPrice,
		SubscriptionEndDate: o.SubscriptionEndDate,
		PaymentStatus:       o.PaymentStatus,
		OrderStatus:         o.Status,
		OrderDate:           o.OrderDate,
	}
}

// List handles GET /api/v1/orders for the authenticated user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDUUID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	orders, total, err := h.store.ListByUser(r.Context(), userID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	views := make([]View, 0, len(orders))
	for _, o := range orders {
		views = append(views, ToView(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       views,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// Get handles GET /api/v1/orders/{orderID} for the authenticated user.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDUUID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	o, err := h.store.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONAppError(w, err)
		return
	}
	if o.UserID != userID {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	common.JSONData(w, http.StatusOK, ToView(o))
}
