package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-subshop/internal/cart"
	"github.com/noah-isme/backend-subshop/internal/common"
	"github.com/noah-isme/backend-subshop/internal/order"
	"github.com/noah-isme/backend-subshop/internal/voucher"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type stubQuotes struct {
	comp cart.Computation
	err  error
}

func (s *stubQuotes) BuildQuote(context.Context, cart.Cart, string) (cart.Computation, error) {
	return s.comp, s.err
}

type stubCommitter struct {
	err       error
	orders    []order.Order
	voucherID *uuid.UUID
	calls     int
}

func (s *stubCommitter) Commit(_ context.Context, orders []order.Order, voucherID *uuid.UUID) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.orders = orders
	s.voucherID = voucherID
	return nil
}

func oneItemComputation(withVoucher bool) cart.Computation {
	productID := uuid.New()
	comp := cart.Computation{
		LineItems: []cart.LineItem{{
			ProductID:         productID,
			DurationMonths:    1,
			BasePrice:         dec("999"),
			TierFinalPrice:    dec("999"),
			AllocatedDiscount: dec("99.90"),
			FinalAmount:       dec("899.10"),
		}},
		SubTotal:        dec("999"),
		VoucherDiscount: dec("99.90"),
		Total:           dec("899.10"),
		VoucherValid:    true,
		VoucherCode:     "SAVE10",
	}
	if withVoucher {
		comp.Voucher = &voucher.Voucher{ID: uuid.New(), Code: "SAVE10", MaxUses: 100, Active: true}
	} else {
		comp.VoucherValid = false
		comp.VoucherDiscount = decimal.Zero
		comp.Total = dec("999")
		comp.LineItems[0].AllocatedDiscount = decimal.Zero
		comp.LineItems[0].FinalAmount = dec("999")
	}
	return comp
}

func fixedNow() time.Time { return time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC) }

func oneItemCart(t *testing.T) cart.Cart {
	t.Helper()
	c, err := cart.New([]cart.Selection{{ProductID: uuid.New(), DurationMonths: 1}})
	require.NoError(t, err)
	return c
}

func TestCheckoutRequiresAuthentication(t *testing.T) {
	svc := &Service{Quotes: &stubQuotes{}, Committer: &stubCommitter{}, Now: fixedNow}

	_, err := svc.Checkout(context.Background(), uuid.Nil, oneItemCart(t), "")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	committer := &stubCommitter{}
	svc := &Service{Quotes: &stubQuotes{}, Committer: committer, Now: fixedNow}

	_, err := svc.Checkout(context.Background(), uuid.New(), cart.Cart{}, "")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "EMPTY_CART", appErr.Code)
	require.Zero(t, committer.calls)
}

func TestCheckoutSnapshotsOrdersAndConsumesVoucherOnce(t *testing.T) {
	comp := oneItemComputation(true)
	committer := &stubCommitter{}
	svc := &Service{Quotes: &stubQuotes{comp: comp}, Committer: committer, Now: fixedNow}

	result, err := svc.Checkout(context.Background(), uuid.New(), oneItemCart(t), "SAVE10")
	require.NoError(t, err)
	require.Len(t, result.OrderIDs, 1)
	require.True(t, result.TotalCharged.Equal(dec("899.10")))
	require.True(t, result.VoucherValid)

	require.Equal(t, 1, committer.calls)
	require.NotNil(t, committer.voucherID)
	require.Equal(t, comp.Voucher.ID, *committer.voucherID)

	require.Len(t, committer.orders, 1)
	o := committer.orders[0]
	require.Equal(t, 1, o.Quantity)
	require.True(t, o.UnitPrice.Equal(dec("999")))
	require.True(t, o.DiscountAmount.Equal(dec("99.90")))
	require.True(t, o.FinalAmount.Equal(dec("899.10")))
	require.True(t, o.FinalAmount.Equal(o.TotalAmount.Sub(o.DiscountAmount)))
	require.Equal(t, order.PaymentPending, o.PaymentStatus)
	require.Equal(t, order.StatusPending, o.Status)
	require.Equal(t, fixedNow().AddDate(0, 1, 0), o.SubscriptionEndDate)
	require.NotNil(t, o.VoucherCode)
	require.Equal(t, "SAVE10", *o.VoucherCode)
}

func TestCheckoutWithoutVoucherPassesNilVoucherID(t *testing.T) {
	committer := &stubCommitter{}
	svc := &Service{Quotes: &stubQuotes{comp: oneItemComputation(false)}, Committer: committer, Now: fixedNow}

	result, err := svc.Checkout(context.Background(), uuid.New(), oneItemCart(t), "")
	require.NoError(t, err)
	require.Nil(t, committer.voucherID)
	require.False(t, result.VoucherValid)
	require.True(t, result.TotalCharged.Equal(dec("999")))
}

func TestCheckoutVoucherRaceReportedDistinctly(t *testing.T) {
	committer := &stubCommitter{err: ErrVoucherLimitRace}
	svc := &Service{Quotes: &stubQuotes{comp: oneItemComputation(true)}, Committer: committer, Now: fixedNow}

	_, err := svc.Checkout(context.Background(), uuid.New(), oneItemCart(t), "SAVE10")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "CONCURRENT_VOUCHER_LIMIT", appErr.Code)
}

func TestCheckoutCommitFailureIsPersistenceFailure(t *testing.T) {
	committer := &stubCommitter{err: errors.New("connection reset")}
	svc := &Service{Quotes: &stubQuotes{comp: oneItemComputation(false)}, Committer: committer, Now: fixedNow}

	_, err := svc.Checkout(context.Background(), uuid.New(), oneItemCart(t), "")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "PERSISTENCE_FAILURE", appErr.Code)
}

func TestCheckoutPricingErrorPropagates(t *testing.T) {
	quoteErr := &common.AppError{Code: "TIER_NOT_FOUND", Message: "no active pricing tier for the requested product and duration", HTTPStatus: 404}
	committer := &stubCommitter{}
	svc := &Service{Quotes: &stubQuotes{err: quoteErr}, Committer: committer, Now: fixedNow}

	_, err := svc.Checkout(context.Background(), uuid.New(), oneItemCart(t), "")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "TIER_NOT_FOUND", appErr.Code)
	require.Zero(t, committer.calls)
}
