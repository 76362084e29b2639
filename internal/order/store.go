package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_id, product_id, quantity, unit_price, total_amount,
			discount_amount, final_amount, voucher_id, voucher_code, duration_months,
			original_price, final_price, subscription_end_date, payment_status, order_status, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	orderColumns = `id, user_id, product_id, quantity, unit_price, total_amount,
			discount_amount, final_amount, voucher_id, voucher_code, duration_months,
			original_price, final_price, subscription_end_date, payment_status, order_status, order_date`

	listByUserSQL = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1
		ORDER BY order_date DESC LIMIT $2 OFFSET $3`

	countByUserSQL = `SELECT count(*) FROM orders WHERE user_id = $1`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listAllSQL = `SELECT ` + orderColumns + ` FROM orders
		ORDER BY order_date DESC LIMIT $1 OFFSET $2`

	countAllSQL = `SELECT count(*) FROM orders`

	updateStatusSQL = `UPDATE orders SET payment_status = $2, order_status = $3 WHERE id = $1`

	sweepLapsedSQL = `UPDATE orders SET order_status = 'Expired'
		WHERE order_status = 'Confirmed' AND subscription_end_date < now()`
)

// PGStore implements order persistence backed by PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

// InsertTx writes one order row inside the caller's transaction. Checkout
// uses this so all lines of a cart commit or roll back together.
func InsertTx(ctx context.Context, tx pgx.Tx, o Order) error {
	_, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.ProductID, o.Quantity, o.UnitPrice, o.TotalAmount,
		o.DiscountAmount, o.FinalAmount, o.VoucherID, o.VoucherCode, o.DurationMonths,
		o.OriginalPrice, o.FinalPrice, o.SubscriptionEndDate, o.PaymentStatus, o.Status, o.OrderDate)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

// ListByUser returns a page of the user's orders, newest first, with total count.
func (s *PGStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, int, error) {
	var total int
	if err := s.Pool.QueryRow(ctx, countByUserSQL, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders for user %s: %w", userID, err)
	}
	rows, err := s.Pool.Query(ctx, listByUserSQL, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders for user %s: %w", userID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAll returns a page of all orders for administrators.
func (s *PGStore) ListAll(ctx context.Context, limit, offset int) ([]Order, int, error) {
	var total int
	if err := s.Pool.QueryRow(ctx, countAllSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	rows, err := s.Pool.Query(ctx, listAllSQL, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Get fetches one order by id.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	rows, err := s.Pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanOrder)
}

// UpdateStatus sets both status fields on an order. Admin-only.
func (s *PGStore) UpdateStatus(ctx context.Context, id uuid.UUID, payment PaymentStatus, status Status) error {
	tag, err := s.Pool.Exec(ctx, updateStatusSQL, id, payment, status)
	if err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SweepLapsed expires confirmed subscriptions whose end date has passed.
// It returns the number of orders transitioned.
func (s *PGStore) SweepLapsed(ctx context.Context) (int64, error) {
	tag, err := s.Pool.Exec(ctx, sweepLapsedSQL)
	if err != nil {
		return 0, fmt.Errorf("sweep lapsed orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanOrder(row pgx.CollectableRow) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.UnitPrice, &o.TotalAmount,
		&o.DiscountAmount, &o.FinalAmount, &o.VoucherID, &o.VoucherCode, &o.DurationMonths,
		&o.OriginalPrice, &o.FinalPrice, &o.SubscriptionEndDate, &o.PaymentStatus, &o.Status, &o.OrderDate)
	return o, err
}
