package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-subshop/internal/common"
)

type stubStore struct {
	Store
	tiers    map[string]SubscriptionTier
	products map[uuid.UUID]Product
}

func tierKey(productID uuid.UUID, duration int) string {
	return fmt.Sprintf("%s/%d", productID, duration)
}

func (s *stubStore) FindTier(_ context.Context, productID uuid.UUID, duration int) (SubscriptionTier, error) {
	tier, ok := s.tiers[tierKey(productID, duration)]
	if !ok {
		return SubscriptionTier{}, pgx.ErrNoRows
	}
	return tier, nil
}

func (s *stubStore) GetProduct(_ context.Context, id uuid.UUID) (Product, error) {
	p, ok := s.products[id]
	if !ok {
		return Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func TestFinalPriceAppliesTierDiscount(t *testing.T) {
	tier := SubscriptionTier{
		BasePrice:       decimal.RequireFromString("2499"),
		DiscountPercent: decimal.NewFromInt(20),
	}
	require.True(t, tier.FinalPrice().Equal(decimal.RequireFromString("1999.20")))

	flat := SubscriptionTier{BasePrice: decimal.RequireFromString("999")}
	require.True(t, flat.FinalPrice().Equal(decimal.RequireFromString("999")))
}

func TestResolveTierSnapshotsPrice(t *testing.T) {
	productID := uuid.New()
	store := &stubStore{
		tiers: map[string]SubscriptionTier{
			tierKey(productID, 1): {
				ID:        uuid.New(),
				ProductID: productID,
				DurationMonths: 1,
				BasePrice: decimal.RequireFromString("999"),
			},
		},
		products: map[uuid.UUID]Product{
			productID: {ID: productID, Name: "Linear Basic", Active: true},
		},
	}
	svc := &Service{Store: store}

	line, err := svc.ResolveTier(context.Background(), productID, 1)
	require.NoError(t, err)
	require.Equal(t, productID, line.ProductID)
	require.Equal(t, "Linear Basic", line.ProductName)
	require.True(t, line.TierFinalPrice.Equal(decimal.RequireFromString("999")))
}

func TestResolveTierMissingReportsTierNotFound(t *testing.T) {
	svc := &Service{Store: &stubStore{tiers: map[string]SubscriptionTier{}}}

	_, err := svc.ResolveTier(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "TIER_NOT_FOUND", appErr.Code)
}
