package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	findTierSQL = `SELECT t.id, t.product_id, t.duration_months, t.base_price, t.discount_percent, t.active
		FROM subscription_tiers t
		JOIN products p ON p.id = t.product_id
		WHERE t.product_id = $1 AND t.duration_months = $2 AND t.active AND p.active`

	getProductSQL = `SELECT id, name, description, category, active, created_at, updated_at
		FROM products WHERE id = $1`

	listProductsSQL = `SELECT id, name, description, category, active, created_at, updated_at
		FROM products WHERE active ORDER BY name`

	listTiersByProductSQL = `SELECT id, product_id, duration_months, base_price, discount_percent, active
		FROM subscription_tiers WHERE product_id = $1 AND active ORDER BY duration_months`

	insertProductSQL = `INSERT INTO products (id, name, description, category, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, name, description, category, active, created_at, updated_at`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, category = $4, updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, category, active, created_at, updated_at`

	deactivateProductSQL = `UPDATE products SET active = FALSE, updated_at = now() WHERE id = $1`

	upsertTierSQL = `INSERT INTO subscription_tiers (id, product_id, duration_months, base_price, discount_percent, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (product_id, duration_months)
		DO UPDATE SET base_price = EXCLUDED.base_price, discount_percent = EXCLUDED.discount_percent, active = TRUE
		RETURNING id, product_id, duration_months, base_price, discount_percent, active`

	deactivateTierSQL = `UPDATE subscription_tiers SET active = FALSE
		WHERE product_id = $1 AND duration_months = $2`
)

// PGStore implements catalog persistence backed by PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

// FindTier resolves an active tier for an active product.
// Returns pgx.ErrNoRows when no such tier exists.
func (s *PGStore) FindTier(ctx context.Context, productID uuid.UUID, durationMonths int) (SubscriptionTier, error) {
	rows, err := s.Pool.Query(ctx, findTierSQL, productID, durationMonths)
	if err != nil {
		return SubscriptionTier{}, fmt.Errorf("find tier %s/%dmo: %w", productID, durationMonths, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanTier)
}

// GetProduct fetches a product regardless of active flag.
func (s *PGStore) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	rows, err := s.Pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanProduct)
}

// ListProducts returns all active products ordered by name.
func (s *PGStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.Pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListTiersByProduct returns the active tiers for a product ordered by duration.
func (s *PGStore) ListTiersByProduct(ctx context.Context, productID uuid.UUID) ([]SubscriptionTier, error) {
	rows, err := s.Pool.Query(ctx, listTiersByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("list tiers for product %s: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanTier)
}

// CreateProduct inserts a new active product.
func (s *PGStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	rows, err := s.Pool.Query(ctx, insertProductSQL, p.ID, p.Name, p.Description, p.Category)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return pgx.CollectExactlyOneRow(rows, scanProduct)
}

// UpdateProduct updates mutable product attributes.
func (s *PGStore) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	rows, err := s.Pool.Query(ctx, updateProductSQL, p.ID, p.Name, p.Description, p.Category)
	if err != nil {
		return Product{}, fmt.Errorf("update product %s: %w", p.ID, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanProduct)
}

// DeactivateProduct soft-deletes a product. Existing orders keep their snapshots.
func (s *PGStore) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, deactivateProductSQL, id)
	if err != nil {
		return fmt.Errorf("deactivate product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpsertTier creates or reprices a tier for the given product and duration.
func (s *PGStore) UpsertTier(ctx context.Context, t SubscriptionTier) (SubscriptionTier, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	rows, err := s.Pool.Query(ctx, upsertTierSQL, t.ID, t.ProductID, t.DurationMonths, t.BasePrice, t.DiscountPercent)
	if err != nil {
		return SubscriptionTier{}, fmt.Errorf("upsert tier %s/%dmo: %w", t.ProductID, t.DurationMonths, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanTier)
}

// DeactivateTier removes a tier from sale without touching historical orders.
func (s *PGStore) DeactivateTier(ctx context.Context, productID uuid.UUID, durationMonths int) error {
	tag, err := s.Pool.Exec(ctx, deactivateTierSQL, productID, durationMonths)
	if err != nil {
		return fmt.Errorf("deactivate tier %s/%dmo: %w", productID, durationMonths, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanTier(row pgx.CollectableRow) (SubscriptionTier, error) {
	var t SubscriptionTier
	err := row.Scan(&t.ID, &t.ProductID, &t.DurationMonths, &t.BasePrice, &t.DiscountPercent, &t.Active)
	return t, err
}
