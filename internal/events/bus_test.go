package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	inserted []DomainEvent
	err      error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (DomainEvent, error) {
	if s.err != nil {
		return DomainEvent{}, s.err
	}
	ev := DomainEvent{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}
	s.inserted = append(s.inserted, ev)
	return ev, nil
}

type recordingNotifier struct {
	seen []DomainEvent
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, ev DomainEvent) error {
	n.seen = append(n.seen, ev)
	return n.err
}

func TestBusEmitPersistsAndNotifies(t *testing.T) {
	store := &stubStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	id := uuid.New()
	ev, err := bus.Emit(context.Background(), TopicOrderCreated, id, map[string]any{"total": "899.10"})
	require.NoError(t, err)
	require.Equal(t, TopicOrderCreated, ev.Topic)
	require.Equal(t, id, ev.AggregateID)
	require.Len(t, store.inserted, 1)
	require.Len(t, notifier.seen, 1)
}

func TestBusEmitRejectsMissingAggregate(t *testing.T) {
	bus := &Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), TopicOrderCreated, uuid.Nil, nil)
	require.Error(t, err)
}

func TestBusEmitNotifierFailureDoesNotDropEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &recordingNotifier{err: errors.New("queue down")}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	_, err := bus.Emit(context.Background(), TopicVoucherRedeemed, uuid.New(), "")
	require.Error(t, err)
	require.Len(t, store.inserted, 1)
}

func TestEncodePayloadRejectsInvalidJSON(t *testing.T) {
	_, err := encodePayload([]byte("{not json"))
	require.Error(t, err)

	data, err := encodePayload(nil)
	require.NoError(t, err)
	require.JSONEq(t, "{}", string(data))
}
