package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-subshop/internal/common"
)

const listCacheKey = "catalog:products:list"

// Store defines the catalog persistence operations the service depends on.
type Store interface {
	FindTier(ctx context.Context, productID uuid.UUID, durationMonths int) (SubscriptionTier, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListTiersByProduct(ctx context.Context, productID uuid.UUID) ([]SubscriptionTier, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
	UpsertTier(ctx context.Context, t SubscriptionTier) (SubscriptionTier, error)
	DeactivateTier(ctx context.Context, productID uuid.UUID, durationMonths int) error
}

// Service resolves tiers for pricing and assembles storefront product views.
type Service struct {
	Store Store
	Cache *Cache
}

// TierView is the public representation of a pricing option.
type TierView struct {
	DurationMonths  int             `json:"durationMonths"`
	BasePrice       decimal.Decimal `json:"basePrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	FinalPrice      decimal.Decimal `json:"finalPrice"`
}

// ProductView is the public representation of a product with its tiers.
type ProductView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tiers       []TierView `json:"tiers"`
}

// ResolveTier resolves a product + duration selection to a priced snapshot.
// The returned line carries the tier's final price; callers must not re-query
// the catalog for the remainder of the checkout pass.
func (s *Service) ResolveTier(ctx context.Context, productID uuid.UUID, durationMonths int) (ResolvedLine, error) {
	if s == nil || s.Store == nil {
		return ResolvedLine{}, errors.New("catalog: service not configured")
	}
	tier, err := s.Store.FindTier(ctx, productID, durationMonths)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ResolvedLine{}, tierNotFound(productID, durationMonths, err)
		}
		return ResolvedLine{}, fmt.Errorf("catalog: resolve tier: %w", err)
	}
	line := ResolvedLine{
		ProductID:      tier.ProductID,
		DurationMonths: tier.DurationMonths,
		BasePrice:      tier.BasePrice,
		TierFinalPrice: tier.FinalPrice(),
	}
	if product, err := s.Store.GetProduct(ctx, tier.ProductID); err == nil {
		line.ProductName = product.Name
	}
	return line, nil
}

// ListProducts returns active products with their tiers, served from cache when warm.
func (s *Service) ListProducts(ctx context.Context) ([]ProductView, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("catalog: service not configured")
	}
	var cached []ProductView
	if ok, err := s.Cache.GetJSON(ctx, listCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		view, err := s.productView(ctx, p)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	_ = s.Cache.SetJSON(ctx, listCacheKey, views)
	return views, nil
}

// GetProduct returns one product view or a NOT_FOUND error.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (ProductView, error) {
	product, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductView{}, productNotFound(id, err)
		}
		return ProductView{}, fmt.Errorf("catalog: get product: %w", err)
	}
	if !product.Active {
		return ProductView{}, productNotFound(id, pgx.ErrNoRows)
	}
	return s.productView(ctx, product)
}

// ProductInput carries admin-supplied product attributes.
type ProductInput struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
}

// TierInput carries admin-supplied tier pricing.
type TierInput struct {
	DurationMonths  int             `json:"durationMonths" validate:"required,min=1,max=120"`
	BasePrice       decimal.Decimal `json:"basePrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// CreateProduct registers a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (ProductView, error) {
	product, err := s.Store.CreateProduct(ctx, Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
	})
	if err != nil {
		return ProductView{}, fmt.Errorf("catalog: create product: %w", err)
	}
	_ = s.Cache.Invalidate(ctx, listCacheKey)
	return s.productView(ctx, product)
}

// UpdateProduct reworks mutable product attributes.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (ProductView, error) {
	product, err := s.Store.UpdateProduct(ctx, Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductView{}, productNotFound(id, err)
		}
		return ProductView{}, fmt.Errorf("catalog: update product: %w", err)
	}
	_ = s.Cache.Invalidate(ctx, listCacheKey)
	return s.productView(ctx, product)
}

// DeleteProduct soft-deletes a product. Historical orders keep their snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Store.DeactivateProduct(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return productNotFound(id, err)
		}
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	return s.Cache.Invalidate(ctx, listCacheKey)
}

// UpsertTier creates or reprices a pricing tier for a product.
func (s *Service) UpsertTier(ctx context.Context, productID uuid.UUID, in TierInput) (TierView, error) {
	if in.BasePrice.IsNegative() {
		return TierView{}, &common.AppError{Code: "BAD_REQUEST", Message: "basePrice cannot be negative", HTTPStatus: http.StatusBadRequest}
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return TierView{}, &common.AppError{Code: "BAD_REQUEST", Message: "discountPercent must be between 0 and 100", HTTPStatus: http.StatusBadRequest}
	}
	tier, err := s.Store.UpsertTier(ctx, SubscriptionTier{
		ProductID:       productID,
		DurationMonths:  in.DurationMonths,
		BasePrice:       in.BasePrice,
		DiscountPercent: in.DiscountPercent,
	})
	if err != nil {
		return TierView{}, fmt.Errorf("catalog: upsert tier: %w", err)
	}
	_ = s.Cache.Invalidate(ctx, listCacheKey)
	return tierView(tier), nil
}

// RemoveTier takes a tier off sale.
func (s *Service) RemoveTier(ctx context.Context, productID uuid.UUID, durationMonths int) error {
	if err := s.Store.DeactivateTier(ctx, productID, durationMonths); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tierNotFound(productID, durationMonths, err)
		}
		return fmt.Errorf("catalog: remove tier: %w", err)
	}
	return s.Cache.Invalidate(ctx, listCacheKey)
}

func (s *Service) productView(ctx context.Context, p Product) (ProductView, error) {
	tiers, err := s.Store.ListTiersByProduct(ctx, p.ID)
	if err != nil {
		return ProductView{}, fmt.Errorf("catalog: list tiers: %w", err)
	}
	view := ProductView{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Tiers:       make([]TierView, 0, len(tiers)),
	}
	for _, t := range tiers {
		view.Tiers = append(view.Tiers, tierView(t))
	}
	return view, nil
}

func tierView(t SubscriptionTier) TierView {
	return TierView{
		DurationMonths:  t.DurationMonths,
		BasePrice:       t.BasePrice,
		DiscountPercent: t.DiscountPercent,
		FinalPrice:      t.FinalPrice(),
	}
}

func tierNotFound(productID uuid.UUID, durationMonths int, err error) *common.AppError {
	return &common.AppError{
		Code:       "TIER_NOT_FOUND",
		Message:    "no active pricing tier for the requested product and duration",
		HTTPStatus: http.StatusNotFound,
		Err:        err,
		Details: map[string]any{
			"productId":      productID.String(),
			"durationMonths": durationMonths,
		},
	}
}

func productNotFound(id uuid.UUID, err error) *common.AppError {
	return &common.AppError{
		Code:       "NOT_FOUND",
		Message:    "product not found",
		HTTPStatus: http.StatusNotFound,
		Err:        err,
		Details:    map[string]any{"productId": id.String()},
	}
}
