package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-subshop/internal/common"
	"github.com/noah-isme/backend-subshop/internal/events"
)

// AdminHandler exposes order management endpoints.
type AdminHandler struct {
	store *PGStore
	bus   *events.Bus
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(store *PGStore, bus *events.Bus) *AdminHandler {
	return &AdminHandler{store: store, bus: bus}
}

// List handles GET /api/v1/admin/orders.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	orders, total, err := h.store.ListAll(r.Context(), perPage, (page-1)*perPage)
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

// StatusPatch is the payload for PATCH /api/v1/admin/orders/{id}/status.
type StatusPatch struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	OrderStatus   Status        `json:"orderStatus"`
}

// UpdateStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var patch StatusPatch
	if err := common.DecodeJSON(r, &patch); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if !ValidPaymentStatus(patch.PaymentStatus) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "unknown payment status", map[string]any{"paymentStatus": patch.PaymentStatus})
		return
	}
	if !ValidStatus(patch.OrderStatus) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "unknown order status", map[string]any{"orderStatus": patch.OrderStatus})
		return
	}
	if err := h.store.UpdateStatus(r.Context(), id, patch.PaymentStatus, patch.OrderStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONAppError(w, err)
		return
	}
	if h.bus != nil {
		_, _ = h.bus.Emit(r.Context(), events.TopicOrderStatusSet, id, map[string]any{
			"paymentStatus": patch.PaymentStatus,
			"orderStatus":   patch.OrderStatus,
		})
	}
	updated, err := h.store.Get(r.Context(), id)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, ToView(updated))
}
