// Package pricing holds the pure cart computations: subtotal, cart-size
// bundle discount, and penny-exact allocation of aggregate discounts across
// line items. Nothing here performs I/O.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/money"
)

// Bundle discount tiers by cart item count, not amount.
var (
	bundlePctTriple = decimal.NewFromInt(15)
	bundlePctPair   = decimal.NewFromInt(10)
)

// Quote is the aggregate outcome of pricing a cart before voucher evaluation.
type Quote struct {
	SubTotal          decimal.Decimal
	BundleDiscount    decimal.Decimal
	AmountAfterBundle decimal.Decimal
}

// PriceCart computes the subtotal and bundle discount for the given line
// prices. Deterministic for a given input; callers snapshot tier prices
// before invoking it.
func PriceCart(linePrices []decimal.Decimal) Quote {
	subTotal := decimal.Zero
	for _, p := range linePrices {
		subTotal = subTotal.Add(p)
	}
	subTotal = money.Round2(subTotal)

	var bundle decimal.Decimal
	switch {
	case len(linePrices) >= 3:
		bundle = money.Percent(subTotal, bundlePctTriple)
	case len(linePrices) == 2:
		bundle = money.Percent(subTotal, bundlePctPair)
	default:
		bundle = decimal.Zero
	}

	return Quote{
		SubTotal:          subTotal,
		BundleDiscount:    bundle,
		AmountAfterBundle: money.ClampFloor(subTotal.Sub(bundle), decimal.Zero),
	}
}

// Total combines the quote with a voucher discount, floored at zero.
func (q Quote) Total(voucherDiscount decimal.Decimal) decimal.Decimal {
	return money.ClampFloor(q.SubTotal.Sub(q.BundleDiscount).Sub(voucherDiscount), decimal.Zero)
}
