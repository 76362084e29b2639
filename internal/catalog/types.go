package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/money"
)

// Product is a subscription-style digital product offered on the storefront.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Category    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SubscriptionTier is a duration-based pricing option for a product.
type SubscriptionTier struct {
	ID              uuid.UUID
	ProductID       uuid.UUID
	DurationMonths  int
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Active          bool
}

// FinalPrice applies the tier's own discount to its base price.
func (t SubscriptionTier) FinalPrice() decimal.Decimal {
	multiplier := decimal.NewFromInt(1).Sub(t.DiscountPercent.Div(decimal.NewFromInt(100)))
	return money.Round2(t.BasePrice.Mul(multiplier))
}

// ResolvedLine is a snapshot of one cart selection priced against the catalog.
// It is taken once per checkout pass; later pricing steps never re-query the
// catalog, so concurrent tier edits cannot shift an in-flight computation.
type ResolvedLine struct {
	ProductID      uuid.UUID
	ProductName    string
	DurationMonths int
	BasePrice      decimal.Decimal
	TierFinalPrice decimal.Decimal
}
