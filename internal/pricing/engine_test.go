package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func prices(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, dec(v))
	}
	return out
}

func TestPriceCartSingleItemNoBundle(t *testing.T) {
	q := PriceCart(prices("999"))
	require.True(t, q.SubTotal.Equal(dec("999")))
	require.True(t, q.BundleDiscount.IsZero())
	require.True(t, q.AmountAfterBundle.Equal(dec("999")))
}

func TestPriceCartPairGetsTenPercent(t *testing.T) {
	q := PriceCart(prices("999", "2499"))
	require.True(t, q.SubTotal.Equal(dec("3498")))
	require.True(t, q.BundleDiscount.Equal(dec("349.80")), "got %s", q.BundleDiscount)
	require.True(t, q.AmountAfterBundle.Equal(dec("3148.20")))
}

func TestPriceCartTripleGetsFifteenPercent(t *testing.T) {
	q := PriceCart(prices("999", "2499", "7999"))
	require.True(t, q.SubTotal.Equal(dec("11497")))
	require.True(t, q.BundleDiscount.Equal(dec("1724.55")), "got %s", q.BundleDiscount)
	require.True(t, q.Total(decimal.Zero).Equal(dec("9772.45")), "got %s", q.Total(decimal.Zero))
}

func TestPriceCartEmpty(t *testing.T) {
	q := PriceCart(nil)
	require.True(t, q.SubTotal.IsZero())
	require.True(t, q.BundleDiscount.IsZero())
}

func TestTotalNeverNegative(t *testing.T) {
	q := PriceCart(prices("10"))
	require.True(t, q.Total(dec("25")).IsZero())
}

func TestPriceCartIsDeterministic(t *testing.T) {
	in := prices("999", "2499", "7999")
	first := PriceCart(in)
	second := PriceCart(in)
	require.True(t, first.SubTotal.Equal(second.SubTotal))
	require.True(t, first.BundleDiscount.Equal(second.BundleDiscount))
	require.True(t, first.AmountAfterBundle.Equal(second.AmountAfterBundle))
}
