package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-subshop/internal/lock"
)

type stubStore struct {
	deactivated int64
	err         error
	calls       int
}

func (s *stubStore) SweepExpired(context.Context) (int64, error) {
	s.calls++
	return s.deactivated, s.err
}

func newSweeper(t *testing.T, store Store) *Sweeper {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &Sweeper{
		Store:   store,
		Locker:  lock.Locker{R: client},
		LockTTL: time.Second,
		Logger:  zerolog.Nop(),
	}
}

func TestHandleSweepRunsStore(t *testing.T) {
	store := &stubStore{deactivated: 3}
	sweeper := newSweeper(t, store)

	require.NoError(t, sweeper.HandleSweep(context.Background(), NewSweepTask()))
	assert.Equal(t, 1, store.calls)
}

func TestHandleSweepPropagatesStoreError(t *testing.T) {
	store := &stubStore{err: errors.New("boom")}
	sweeper := newSweeper(t, store)

	err := sweeper.HandleSweep(context.Background(), NewSweepTask())
	assert.EqualError(t, err, "boom")
}

type stubOrderStore struct {
	lapsed int64
	calls  int
}

func (s *stubOrderStore) SweepLapsed(context.Context) (int64, error) {
	s.calls++
	return s.lapsed, nil
}

func TestHandleLapseRunsStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &stubOrderStore{lapsed: 2}
	lapser := &Lapser{
		Store:   store,
		Locker:  lock.Locker{R: client},
		LockTTL: time.Second,
		Logger:  zerolog.Nop(),
	}

	require.NoError(t, lapser.HandleLapse(context.Background(), NewLapseTask()))
	assert.Equal(t, 1, store.calls)
}

func TestHandleSweepSkipsWhenLockHeld(t *testing.T) {
	store := &stubStore{deactivated: 1}
	sweeper := newSweeper(t, store)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- sweeper.Locker.TryWithLock(context.Background(), sweepLockKey, time.Second, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()

	<-held
	require.NoError(t, sweeper.HandleSweep(context.Background(), NewSweepTask()))
	assert.Zero(t, store.calls)

	close(release)
	require.NoError(t, <-done)
}
