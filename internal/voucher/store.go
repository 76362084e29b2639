package voucher

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	findByCodeSQL = `SELECT id, code, discount_percent, max_discount_amount, minimum_order_amount,
			expiry_date, max_uses, used_count, active, created_at
		FROM vouchers WHERE UPPER(code) = UPPER($1)`

	getVoucherSQL = `SELECT id, code, discount_percent, max_discount_amount, minimum_order_amount,
			expiry_date, max_uses, used_count, active, created_at
		FROM vouchers WHERE id = $1`

	listVouchersSQL = `SELECT id, code, discount_percent, max_discount_amount, minimum_order_amount,
			expiry_date, max_uses, used_count, active, created_at
		FROM vouchers ORDER BY created_at DESC`

	insertVoucherSQL = `INSERT INTO vouchers (id, code, discount_percent, max_discount_amount,
			minimum_order_amount, expiry_date, max_uses, used_count, active)
		VALUES ($1, UPPER($2), $3, $4, $5, $6, $7, 0, TRUE)
		RETURNING id, code, discount_percent, max_discount_amount, minimum_order_amount,
			expiry_date, max_uses, used_count, active, created_at`

	updateVoucherSQL = `UPDATE vouchers
		SET discount_percent = $2, max_discount_amount = $3, minimum_order_amount = $4,
			expiry_date = $5, max_uses = $6, active = $7
		WHERE id = $1
		RETURNING id, code, discount_percent, max_discount_amount, minimum_order_amount,
			expiry_date, max_uses, used_count, active, created_at`

	deactivateVoucherSQL = `UPDATE vouchers SET active = FALSE WHERE id = $1`

	// The used_count guard makes the increment conditional: concurrent
	// checkouts racing on the last use cannot overshoot max_uses.
	consumeUsageSQL = `UPDATE vouchers SET used_count = used_count + 1
		WHERE id = $1 AND used_count < max_uses
		RETURNING used_count, max_uses`

	deactivateExhaustedSQL = `UPDATE vouchers SET active = FALSE
		WHERE id = $1 AND used_count >= max_uses`

	sweepExpiredSQL = `UPDATE vouchers SET active = FALSE
		WHERE active AND expiry_date IS NOT NULL AND expiry_date < now()`
)

// PGStore implements voucher persistence backed by PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

// FindByCode looks up a voucher by trimmed, case-insensitive code.
// Returns pgx.ErrNoRows when no voucher carries the code.
func (s *PGStore) FindByCode(ctx context.Context, code string) (Voucher, error) {
	rows, err := s.Pool.Query(ctx, findByCodeSQL, code)
	if err != nil {
		return Voucher{}, fmt.Errorf("find voucher by code %q: %w", code, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanVoucher)
}

// Get fetches a voucher by id.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Voucher, error) {
	rows, err := s.Pool.Query(ctx, getVoucherSQL, id)
	if err != nil {
		return Voucher{}, fmt.Errorf("get voucher %s: %w", id, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanVoucher)
}

// List returns all vouchers, newest first.
func (s *PGStore) List(ctx context.Context) ([]Voucher, error) {
	rows, err := s.Pool.Query(ctx, listVouchersSQL)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	return pgx.CollectRows(rows, scanVoucher)
}

// Create inserts a new voucher with zero usage.
func (s *PGStore) Create(ctx context.Context, v Voucher) (Voucher, error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	rows, err := s.Pool.Query(ctx, insertVoucherSQL,
		v.ID, v.Code, v.DiscountPercent, v.MaxDiscountAmount, v.MinimumOrderAmount,
		v.ExpiryDate, v.MaxUses)
	if err != nil {
		return Voucher{}, fmt.Errorf("create voucher %q: %w", v.Code, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanVoucher)
}

// Update rewrites the voucher's constraints. The code and usage count are immutable.
func (s *PGStore) Update(ctx context.Context, v Voucher) (Voucher, error) {
	rows, err := s.Pool.Query(ctx, updateVoucherSQL,
		v.ID, v.DiscountPercent, v.MaxDiscountAmount, v.MinimumOrderAmount,
		v.ExpiryDate, v.MaxUses, v.Active)
	if err != nil {
		return Voucher{}, fmt.Errorf("update voucher %s: %w", v.ID, err)
	}
	return pgx.CollectExactlyOneRow(rows, scanVoucher)
}

// Deactivate takes a voucher out of circulation.
func (s *PGStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, deactivateVoucherSQL, id)
	if err != nil {
		return fmt.Errorf("deactivate voucher %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ConsumeUsageTx increments used_count inside the caller's transaction,
// conditional on remaining quota. It reports whether the increment happened
// and whether the voucher is now exhausted.
func ConsumeUsageTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (consumed bool, exhausted bool, err error) {
	var usedCount, maxUses int
	err = tx.QueryRow(ctx, consumeUsageSQL, id).Scan(&usedCount, &maxUses)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, true, nil
		}
		return false, false, fmt.Errorf("consume voucher usage %s: %w", id, err)
	}
	if usedCount >= maxUses {
		if _, err := tx.Exec(ctx, deactivateExhaustedSQL, id); err != nil {
			return true, true, fmt.Errorf("deactivate exhausted voucher %s: %w", id, err)
		}
		return true, true, nil
	}
	return true, false, nil
}

// SweepExpired deactivates vouchers whose expiry date has passed.
// Returns the number of vouchers swept.
func (s *PGStore) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := s.Pool.Exec(ctx, sweepExpiredSQL)
	if err != nil {
		return 0, fmt.Errorf("sweep expired vouchers: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanVoucher(row pgx.CollectableRow) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.Code, &v.DiscountPercent, &v.MaxDiscountAmount,
		&v.MinimumOrderAmount, &v.ExpiryDate, &v.MaxUses, &v.UsedCount, &v.Active, &v.CreatedAt)
	return v, err
}
