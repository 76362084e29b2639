package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-subshop/internal/catalog"
	"github.com/noah-isme/backend-subshop/internal/common"
	"github.com/noah-isme/backend-subshop/internal/voucher"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type stubResolver struct {
	lines map[uuid.UUID]catalog.ResolvedLine
}

func (r *stubResolver) ResolveTier(_ context.Context, productID uuid.UUID, duration int) (catalog.ResolvedLine, error) {
	line, ok := r.lines[productID]
	if !ok || line.DurationMonths != duration {
		return catalog.ResolvedLine{}, &common.AppError{Code: "TIER_NOT_FOUND", Message: "no active pricing tier for the requested product and duration", HTTPStatus: 404}
	}
	return line, nil
}

type stubEvaluator struct {
	verdict voucher.Verdict
}

func (e *stubEvaluator) Evaluate(_ context.Context, code string, amount decimal.Decimal) (voucher.Verdict, error) {
	if code == "" {
		return voucher.Verdict{Reason: voucher.ErrNoCode.Error()}, nil
	}
	v := e.verdict
	if v.Valid && v.Voucher != nil {
		v.Discount = v.Voucher.Discount(amount)
	}
	return v, nil
}

func fixtureService(verdict voucher.Verdict, prices map[uuid.UUID]string) *Service {
	resolver := &stubResolver{lines: map[uuid.UUID]catalog.ResolvedLine{}}
	for id, p := range prices {
		resolver.lines[id] = catalog.ResolvedLine{
			ProductID:      id,
			DurationMonths: 1,
			BasePrice:      dec(p),
			TierFinalPrice: dec(p),
		}
	}
	return &Service{Catalog: resolver, Vouchers: &stubEvaluator{verdict: verdict}}
}

func TestNewRejectsDuplicateProduct(t *testing.T) {
	id := uuid.New()
	_, err := New([]Selection{
		{ProductID: id, DurationMonths: 1},
		{ProductID: id, DurationMonths: 12},
	})
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestBuildQuoteSingleItemWithVoucher(t *testing.T) {
	id := uuid.New()
	v := &voucher.Voucher{
		Code:              "SAVE10",
		DiscountPercent:   decimal.NewFromInt(10),
		MaxDiscountAmount: decimal.NewFromInt(500),
		MaxUses:           100,
		Active:            true,
	}
	svc := fixtureService(voucher.Verdict{Valid: true, Voucher: v}, map[uuid.UUID]string{id: "999"})

	c, err := New([]Selection{{ProductID: id, DurationMonths: 1}})
	require.NoError(t, err)
	comp, err := svc.BuildQuote(context.Background(), c, "SAVE10")
	require.NoError(t, err)

	require.True(t, comp.SubTotal.Equal(dec("999")))
	require.True(t, comp.BundleDiscount.IsZero())
	require.True(t, comp.VoucherDiscount.Equal(dec("99.90")), "got %s", comp.VoucherDiscount)
	require.True(t, comp.Total.Equal(dec("899.10")), "got %s", comp.Total)
	require.True(t, comp.VoucherValid)
	require.NotNil(t, comp.Voucher)

	require.Len(t, comp.LineItems, 1)
	require.True(t, comp.LineItems[0].FinalAmount.Equal(dec("899.10")))
}

func TestBuildQuoteThreeItemsBundleOnly(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	svc := fixtureService(voucher.Verdict{}, map[uuid.UUID]string{a: "999", b: "2499", c: "7999"})

	crt, err := New([]Selection{
		{ProductID: a, DurationMonths: 1},
		{ProductID: b, DurationMonths: 1},
		{ProductID: c, DurationMonths: 1},
	})
	require.NoError(t, err)
	comp, err := svc.BuildQuote(context.Background(), crt, "")
	require.NoError(t, err)

	require.True(t, comp.SubTotal.Equal(dec("11497")))
	require.True(t, comp.BundleDiscount.Equal(dec("1724.55")))
	require.True(t, comp.Total.Equal(dec("9772.45")), "got %s", comp.Total)
	require.False(t, comp.VoucherValid)

	lineSum := decimal.Zero
	for _, item := range comp.LineItems {
		lineSum = lineSum.Add(item.FinalAmount)
	}
	require.True(t, lineSum.Equal(comp.Total), "line sum %s vs total %s", lineSum, comp.Total)
}

func TestBuildQuoteInvalidVoucherProceedsWithZeroDiscount(t *testing.T) {
	id := uuid.New()
	svc := fixtureService(voucher.Verdict{Reason: voucher.ErrUnknownCode.Error()}, map[uuid.UUID]string{id: "999"})

	c, err := New([]Selection{{ProductID: id, DurationMonths: 1}})
	require.NoError(t, err)
	comp, err := svc.BuildQuote(context.Background(), c, "NOPE")
	require.NoError(t, err)

	require.False(t, comp.VoucherValid)
	require.Equal(t, voucher.ErrUnknownCode.Error(), comp.VoucherMessage)
	require.True(t, comp.VoucherDiscount.IsZero())
	require.True(t, comp.Total.Equal(dec("999")))
	require.Nil(t, comp.Voucher)
}

func TestBuildQuoteUnknownTierFails(t *testing.T) {
	svc := fixtureService(voucher.Verdict{}, map[uuid.UUID]string{})

	c, err := New([]Selection{{ProductID: uuid.New(), DurationMonths: 1}})
	require.NoError(t, err)
	_, err = svc.BuildQuote(context.Background(), c, "")
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "TIER_NOT_FOUND", appErr.Code)
}
