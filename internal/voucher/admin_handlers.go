package voucher

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/common"
)

// AdminStore captures the persistence methods required by voucher management.
type AdminStore interface {
	Get(ctx context.Context, id uuid.UUID) (Voucher, error)
	List(ctx context.Context) ([]Voucher, error)
	Create(ctx context.Context, v Voucher) (Voucher, error)
	Update(ctx context.Context, v Voucher) (Voucher, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// AdminHandler exposes voucher management endpoints.
type AdminHandler struct {
	store    AdminStore
	validate *validator.Validate
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(store AdminStore) *AdminHandler {
	return &AdminHandler{store: store, validate: validator.New()}
}

// Input carries admin-supplied voucher attributes.
type Input struct {
	Code               string          `json:"code" validate:"required,min=2,max=50"`
	DiscountPercent    decimal.Decimal `json:"discountPercent"`
	MaxDiscountAmount  decimal.Decimal `json:"maxDiscountAmount"`
	MinimumOrderAmount decimal.Decimal `json:"minimumOrderAmount"`
	ExpiryDate         *time.Time      `json:"expiryDate,omitempty"`
	MaxUses            int             `json:"maxUses" validate:"required,min=1"`
	Active             *bool           `json:"active,omitempty"`
}

// View is the admin representation of a voucher.
type View struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	DiscountPercent    decimal.Decimal `json:"discountPercent"`
	MaxDiscountAmount  decimal.Decimal `json:"maxDiscountAmount"`
	MinimumOrderAmount decimal.Decimal `json:"minimumOrderAmount"`
	ExpiryDate         *time.Time      `json:"expiryDate,omitempty"`
	MaxUses            int             `json:"maxUses"`
	UsedCount          int             `json:"usedCount"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// List handles GET /api/v1/admin/vouchers.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.store.List(r.Context())
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	views := make([]View, 0, len(vouchers))
	for _, v := range vouchers {
		views = append(views, toView(v))
	}
	common.JSONData(w, http.StatusOK, views)
}

// Create handles POST /api/v1/admin/vouchers.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.store.Create(r.Context(), Voucher{
		Code:               strings.TrimSpace(in.Code),
		DiscountPercent:    in.DiscountPercent,
		MaxDiscountAmount:  in.MaxDiscountAmount,
		MinimumOrderAmount: in.MinimumOrderAmount,
		ExpiryDate:         in.ExpiryDate,
		MaxUses:            in.MaxUses,
	})
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, toView(created))
}

// Update handles PUT /api/v1/admin/vouchers/{id}.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid voucher id", nil)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	current, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "voucher not found", nil)
			return
		}
		common.JSONAppError(w, err)
		return
	}
	active := current.Active
	if in.Active != nil {
		active = *in.Active
	}
	updated, err := h.store.Update(r.Context(), Voucher{
		ID:                 id,
		DiscountPercent:    in.DiscountPercent,
		MaxDiscountAmount:  in.MaxDiscountAmount,
		MinimumOrderAmount: in.MinimumOrderAmount,
		ExpiryDate:         in.ExpiryDate,
		MaxUses:            in.MaxUses,
		Active:             active,
	})
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toView(updated))
}

// Delete handles DELETE /api/v1/admin/vouchers/{id}. Deactivation only,
// usage history is never erased.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid voucher id", nil)
		return
	}
	if err := h.store.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "voucher not found", nil)
			return
		}
		common.JSONAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return in, false
	}
	if err := h.validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid voucher payload", map[string]any{"error": err.Error()})
		return in, false
	}
	hundred := decimal.NewFromInt(100)
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "discountPercent must be between 0 and 100", nil)
		return in, false
	}
	if in.MaxDiscountAmount.IsNegative() || in.MinimumOrderAmount.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "amounts cannot be negative", nil)
		return in, false
	}
	return in, true
}

func toView(v Voucher) View {
	return View{
		ID:                 v.ID.String(),
		Code:               v.Code,
		DiscountPercent:    v.DiscountPercent,
		MaxDiscountAmount:  v.MaxDiscountAmount,
		MinimumOrderAmount: v.MinimumOrderAmount,
		ExpiryDate:         v.ExpiryDate,
		MaxUses:            v.MaxUses,
		UsedCount:          v.UsedCount,
		Active:             v.Active,
		CreatedAt:          v.CreatedAt,
	}
}
