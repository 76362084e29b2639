package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-subshop/internal/order"
	"github.com/noah-isme/backend-subshop/internal/voucher"
)

// PGCommitter persists checkouts in a single PostgreSQL transaction.
//
// The voucher increment runs first and is conditional on remaining quota, so
// two checkouts racing on a voucher's last use serialize on the row: the
// loser sees zero affected rows and the whole transaction rolls back with
// ErrVoucherLimitRace.
type PGCommitter struct {
	Pool *pgxpool.Pool
}

// Commit writes the voucher usage increment and every order row atomically.
func (c *PGCommitter) Commit(ctx context.Context, orders []order.Order, voucherID *uuid.UUID) error {
	tx, err := c.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if voucherID != nil {
		consumed, _, err := voucher.ConsumeUsageTx(ctx, tx, *voucherID)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrVoucherLimitRace
		}
	}

	for _, o := range orders {
		if err := order.InsertTx(ctx, tx, o); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}
	return nil
}
