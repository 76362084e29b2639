package cart

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-subshop/internal/common"
)

// Handler exposes the cart quote endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// QuoteRequest is the payload for POST /api/v1/carts/quote.
type QuoteRequest struct {
	Items       []Selection `json:"items"`
	VoucherCode string      `json:"voucherCode,omitempty"`
}

// Quote handles POST /api/v1/carts/quote. It prices the cart without
// touching any state, so callers can preview totals and voucher outcomes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req QuoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	c, err := New(req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	comp, err := h.service.BuildQuote(r.Context(), c, req.VoucherCode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, comp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
