package voucher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validVoucher() Voucher {
	return Voucher{
		Code:               "SAVE10",
		DiscountPercent:    decimal.NewFromInt(10),
		MaxDiscountAmount:  decimal.NewFromInt(500),
		MinimumOrderAmount: decimal.Zero,
		MaxUses:            100,
		UsedCount:          0,
		Active:             true,
	}
}

func TestValidateChecksRulesInOrder(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)

	cases := []struct {
		name    string
		mutate  func(*Voucher)
		wantErr error
	}{
		{"inactive", func(v *Voucher) { v.Active = false }, ErrVoucherInactive},
		{"expired", func(v *Voucher) { v.ExpiryDate = &expired }, ErrVoucherExpired},
		{"exhausted", func(v *Voucher) { v.UsedCount = v.MaxUses }, ErrUsageLimitReached},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validVoucher()
			tc.mutate(&v)
			err := v.Validate(now, dec("999"))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateInactiveWinsOverExpired(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)
	v := validVoucher()
	v.Active = false
	v.ExpiryDate = &expired
	v.UsedCount = v.MaxUses

	require.ErrorIs(t, v.Validate(now, dec("999")), ErrVoucherInactive)
}

func TestValidateMinimumOrderNamesTheMinimum(t *testing.T) {
	v := validVoucher()
	v.MinimumOrderAmount = dec("1000")

	err := v.Validate(time.Now(), dec("999"))
	require.Error(t, err)
	var minErr *MinimumOrderError
	require.ErrorAs(t, err, &minErr)
	require.Contains(t, err.Error(), "1000.00")
}

func TestValidateNoExpiryNeverExpires(t *testing.T) {
	v := validVoucher()
	v.ExpiryDate = nil
	require.NoError(t, v.Validate(time.Now().AddDate(10, 0, 0), dec("999")))
}

func TestDiscountPercentOfAmount(t *testing.T) {
	v := validVoucher()
	got := v.Discount(dec("999"))
	require.True(t, got.Equal(dec("99.90")), "got %s", got)
}

func TestDiscountCappedAtMaxDiscountAmount(t *testing.T) {
	v := validVoucher()
	v.MaxDiscountAmount = dec("50")

	got := v.Discount(dec("999"))
	require.True(t, got.Equal(dec("50")), "got %s", got)
}
