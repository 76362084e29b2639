package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/catalog"
	"github.com/noah-isme/backend-subshop/internal/pricing"
	"github.com/noah-isme/backend-subshop/internal/voucher"
)

// TierResolver resolves a selection to a priced catalog snapshot.
type TierResolver interface {
	ResolveTier(ctx context.Context, productID uuid.UUID, durationMonths int) (catalog.ResolvedLine, error)
}

// VoucherEvaluator validates a code against the post-bundle amount.
type VoucherEvaluator interface {
	Evaluate(ctx context.Context, code string, amountAfterBundle decimal.Decimal) (voucher.Verdict, error)
}

// LineItem is one priced cart entry with its allocated discount share.
type LineItem struct {
	ProductID         uuid.UUID       `json:"productId"`
	ProductName       string          `json:"productName,omitempty"`
	DurationMonths    int             `json:"durationMonths"`
	BasePrice         decimal.Decimal `json:"basePrice"`
	TierFinalPrice    decimal.Decimal `json:"tierFinalPrice"`
	AllocatedDiscount decimal.Decimal `json:"allocatedDiscount"`
	FinalAmount       decimal.Decimal `json:"finalAmount"`
}

// Computation is the fully derived pricing of a cart. It has no lifecycle of
// its own; it is rebuilt on every cart view and every checkout attempt.
type Computation struct {
	LineItems       []LineItem      `json:"lineItems"`
	SubTotal        decimal.Decimal `json:"subTotal"`
	BundleDiscount  decimal.Decimal `json:"bundleDiscount"`
	VoucherDiscount decimal.Decimal `json:"voucherDiscount"`
	Total           decimal.Decimal `json:"total"`
	VoucherCode     string          `json:"voucherCode,omitempty"`
	VoucherValid    bool            `json:"voucherValid"`
	VoucherMessage  string          `json:"voucherMessage,omitempty"`

	// Voucher carries the resolved voucher for the commit step; it is not
	// part of the serialized view.
	Voucher *voucher.Voucher `json:"-"`
}

// Service builds cart computations. Checkout reuses the same path so the
// quoted and charged amounts can never diverge.
type Service struct {
	Catalog  TierResolver
	Vouchers VoucherEvaluator
}

// BuildQuote resolves every selection once, prices the cart, evaluates the
// voucher, and allocates the combined discount across the lines. An invalid
// voucher zeroes the voucher discount; the computation still succeeds.
func (s *Service) BuildQuote(ctx context.Context, c Cart, voucherCode string) (Computation, error) {
	if s == nil || s.Catalog == nil || s.Vouchers == nil {
		return Computation{}, errors.New("cart: service not configured")
	}

	resolved := make([]catalog.ResolvedLine, 0, len(c.Selections))
	linePrices := make([]decimal.Decimal, 0, len(c.Selections))
	for _, sel := range c.Selections {
		line, err := s.Catalog.ResolveTier(ctx, sel.ProductID, sel.DurationMonths)
		if err != nil {
			return Computation{}, err
		}
		resolved = append(resolved, line)
		linePrices = append(linePrices, line.TierFinalPrice)
	}

	quote := pricing.PriceCart(linePrices)

	verdict, err := s.Vouchers.Evaluate(ctx, voucherCode, quote.AmountAfterBundle)
	if err != nil {
		return Computation{}, err
	}
	voucherDiscount := decimal.Zero
	if verdict.Valid {
		voucherDiscount = verdict.Discount
	}

	allocLines := make([]pricing.Line, 0, len(resolved))
	for _, line := range resolved {
		allocLines = append(allocLines, pricing.Line{ID: line.ProductID, FinalPrice: line.TierFinalPrice})
	}
	allocations := pricing.Allocate(allocLines, quote.BundleDiscount.Add(voucherDiscount))

	items := make([]LineItem, 0, len(resolved))
	for i, line := range resolved {
		items = append(items, LineItem{
			ProductID:         line.ProductID,
			ProductName:       line.ProductName,
			DurationMonths:    line.DurationMonths,
			BasePrice:         line.BasePrice,
			TierFinalPrice:    line.TierFinalPrice,
			AllocatedDiscount: allocations[i].AllocatedDiscount,
			FinalAmount:       allocations[i].FinalAmount,
		})
	}

	comp := Computation{
		LineItems:       items,
		SubTotal:        quote.SubTotal,
		BundleDiscount:  quote.BundleDiscount,
		VoucherDiscount: voucherDiscount,
		Total:           quote.Total(voucherDiscount),
		VoucherValid:    verdict.Valid,
		VoucherMessage:  verdict.Reason,
	}
	if verdict.Voucher != nil {
		comp.VoucherCode = verdict.Voucher.Code
		if verdict.Valid {
			comp.Voucher = verdict.Voucher
		}
	}
	return comp, nil
}
