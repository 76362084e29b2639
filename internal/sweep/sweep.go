// Package sweep deactivates vouchers whose expiry date has passed.
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-subshop/internal/events"
	"github.com/noah-isme/backend-subshop/internal/lock"
	"github.com/noah-isme/backend-subshop/internal/obs"
)

// TaskTypeVoucherSweep identifies the periodic voucher expiry sweep task.
const TaskTypeVoucherSweep = "voucher:sweep"

// TaskTypeOrderLapse identifies the periodic subscription lapse task.
const TaskTypeOrderLapse = "order:lapse"

const (
	sweepLockKey = "subshop:lock:voucher-sweep"
	lapseLockKey = "subshop:lock:order-lapse"
)

// NewSweepTask builds the voucher sweep task enqueued by the scheduler.
func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeVoucherSweep, nil)
}

// NewLapseTask builds the subscription lapse task enqueued by the scheduler.
func NewLapseTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOrderLapse, nil)
}

// Store is the slice of voucher persistence the sweeper needs.
type Store interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper runs the expiry sweep under a distributed lock so overlapping
// worker replicas do not double count.
type Sweeper struct {
	Store   Store
	Locker  lock.Locker
	Bus     *events.Bus
	LockTTL time.Duration
	Logger  zerolog.Logger
}

type sweptPayload struct {
	Deactivated int64     `json:"deactivated"`
	SweptAt     time.Time `json:"swept_at"`
}

// HandleSweep processes one sweep task.
func (s *Sweeper) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	if s.Store == nil {
		return errors.New("sweep: store not configured")
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	err := s.Locker.TryWithLock(ctx, sweepLockKey, ttl, func(ctx context.Context) error {
		return s.sweep(ctx)
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		s.Logger.Debug().Msg("voucher sweep already running elsewhere")
		return nil
	}
	return err
}

func (s *Sweeper) sweep(ctx context.Context) error {
	deactivated, err := s.Store.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if deactivated == 0 {
		return nil
	}
	if obs.VoucherSweepDeactivated != nil {
		obs.VoucherSweepDeactivated.Add(float64(deactivated))
	}
	s.Logger.Info().Int64("deactivated", deactivated).Msg("expired vouchers deactivated")
	if s.Bus != nil {
		payload := sweptPayload{Deactivated: deactivated, SweptAt: time.Now().UTC()}
		if _, err := s.Bus.Emit(ctx, events.TopicVoucherSweptStale, uuid.New(), payload); err != nil {
			s.Logger.Error().Err(err).Msg("emit sweep event")
		}
	}
	return nil
}

// OrderStore is the slice of order persistence the lapse task needs.
type OrderStore interface {
	SweepLapsed(ctx context.Context) (int64, error)
}

// Lapser expires confirmed subscriptions whose end date has passed.
type Lapser struct {
	Store   OrderStore
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// HandleLapse processes one lapse task.
func (l *Lapser) HandleLapse(ctx context.Context, _ *asynq.Task) error {
	if l.Store == nil {
		return errors.New("sweep: order store not configured")
	}
	ttl := l.LockTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	err := l.Locker.TryWithLock(ctx, lapseLockKey, ttl, func(ctx context.Context) error {
		lapsed, err := l.Store.SweepLapsed(ctx)
		if err != nil {
			return err
		}
		if lapsed > 0 {
			l.Logger.Info().Int64("lapsed", lapsed).Msg("subscriptions expired")
		}
		return nil
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		l.Logger.Debug().Msg("lapse sweep already running elsewhere")
		return nil
	}
	return err
}
