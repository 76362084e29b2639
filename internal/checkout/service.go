package checkout

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/cart"
	"github.com/noah-isme/backend-subshop/internal/common"
	"github.com/noah-isme/backend-subshop/internal/events"
	"github.com/noah-isme/backend-subshop/internal/obs"
	"github.com/noah-isme/backend-subshop/internal/order"
)

// ErrVoucherLimitRace is returned by a Committer when the conditional usage
// increment found no remaining quota: another checkout won the last use
// between validation and commit.
var ErrVoucherLimitRace = errors.New("voucher usage limit raced")

// QuoteBuilder prices a cart. Checkout shares the exact quote path the cart
// view uses, so a quoted total is always the charged total.
type QuoteBuilder interface {
	BuildQuote(ctx context.Context, c cart.Cart, voucherCode string) (cart.Computation, error)
}

// Committer persists all order rows and the voucher usage increment as one
// atomic unit. Either every row lands or none do.
type Committer interface {
	Commit(ctx context.Context, orders []order.Order, voucherID *uuid.UUID) error
}

// Result is what a successful checkout returns to the caller.
type Result struct {
	OrderIDs       []string        `json:"orderIds"`
	TotalCharged   decimal.Decimal `json:"totalCharged"`
	VoucherValid   bool            `json:"voucherValid"`
	VoucherMessage string          `json:"voucherMessage,omitempty"`
}

// Service sequences validation, pricing, and atomic commit of a checkout.
type Service struct {
	Quotes    QuoteBuilder
	Committer Committer
	Bus       *events.Bus
	Now       func() time.Time
}

// Checkout converts a priced cart into persisted pending orders. An invalid
// voucher is not fatal; it zeroes the voucher discount and the result carries
// the rejection reason. Any commit failure leaves no partial state.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, c cart.Cart, voucherCode string) (Result, error) {
	if s == nil || s.Quotes == nil || s.Committer == nil {
		return Result{}, errors.New("checkout: service not configured")
	}
	start := s.now()

	if userID == uuid.Nil {
		return Result{}, s.fail("unauthorized", &common.AppError{
			Code:       "UNAUTHORIZED",
			Message:    "authentication required",
			HTTPStatus: http.StatusUnauthorized,
		})
	}
	if c.Empty() {
		return Result{}, s.fail("empty_cart", &common.AppError{
			Code:       "EMPTY_CART",
			Message:    "cart has no items",
			HTTPStatus: http.StatusUnprocessableEntity,
		})
	}

	comp, err := s.Quotes.BuildQuote(ctx, c, voucherCode)
	if err != nil {
		return Result{}, s.fail("pricing", err)
	}

	now := s.now()
	orders := buildOrders(userID, comp, now)
	var voucherID *uuid.UUID
	if comp.Voucher != nil {
		id := comp.Voucher.ID
		voucherID = &id
	}

	if err := s.Committer.Commit(ctx, orders, voucherID); err != nil {
		if errors.Is(err, ErrVoucherLimitRace) {
			observeRedemption("limit_raced")
			return Result{}, s.fail("voucher_race", &common.AppError{
				Code:       "CONCURRENT_VOUCHER_LIMIT",
				Message:    "voucher usage limit was reached by a concurrent checkout; retry without the voucher",
				HTTPStatus: http.StatusConflict,
				Err:        err,
			})
		}
		return Result{}, s.fail("persistence", &common.AppError{
			Code:       "PERSISTENCE_FAILURE",
			Message:    "checkout could not be committed; no order was placed",
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		})
	}

	s.emitEvents(ctx, orders, comp, voucherID)
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues("success").Inc()
	}
	if obs.CheckoutDuration != nil {
		obs.CheckoutDuration.Observe(obs.DurationMillis(s.now().Sub(start)))
	}
	if voucherID != nil {
		observeRedemption("applied")
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID.String())
	}
	return Result{
		OrderIDs:       ids,
		TotalCharged:   comp.Total,
		VoucherValid:   comp.VoucherValid,
		VoucherMessage: comp.VoucherMessage,
	}, nil
}

// buildOrders snapshots the computation into one order row per cart line.
func buildOrders(userID uuid.UUID, comp cart.Computation, now time.Time) []order.Order {
	orders := make([]order.Order, 0, len(comp.LineItems))
	for _, item := range comp.LineItems {
		o := order.Order{
			ID:                  uuid.New(),
			UserID:              userID,
			ProductID:           item.ProductID,
			Quantity:            1,
			UnitPrice:           item.TierFinalPrice,
			TotalAmount:         item.TierFinalPrice,
			DiscountAmount:      item.AllocatedDiscount,
			FinalAmount:         item.FinalAmount,
			DurationMonths:      item.DurationMonths,
			OriginalPrice:       item.BasePrice,
			FinalPrice:          item.FinalAmount,
			SubscriptionEndDate: now.AddDate(0, item.DurationMonths, 0),
			PaymentStatus:       order.PaymentPending,
			Status:              order.StatusPending,
			OrderDate:           now,
		}
		if comp.Voucher != nil {
			id := comp.Voucher.ID
			code := comp.Voucher.Code
			o.VoucherID = &id
			o.VoucherCode = &code
		}
		orders = append(orders, o)
	}
	return orders
}

func (s *Service) emitEvents(ctx context.Context, orders []order.Order, comp cart.Computation, voucherID *uuid.UUID) {
	if s.Bus == nil {
		return
	}
	for _, o := range orders {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderCreated, o.ID, map[string]any{
			"userId":      o.UserID.String(),
			"productId":   o.ProductID.String(),
			"finalAmount": o.FinalAmount,
		})
	}
	if voucherID != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicVoucherRedeemed, *voucherID, map[string]any{
			"code":     comp.VoucherCode,
			"discount": comp.VoucherDiscount,
		})
	}
}

func (s *Service) fail(result string, err error) error {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
	return err
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func observeRedemption(result string) {
	if obs.VoucherRedemptionTotal != nil {
		obs.VoucherRedemptionTotal.WithLabelValues(result).Inc()
	}
}
