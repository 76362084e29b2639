package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertDomainEventSQL = `INSERT INTO domain_events (id, topic, aggregate_id, payload)
	VALUES ($1, $2, $3, $4)
	RETURNING id, topic, aggregate_id, payload, occurred_at`

// PGStore persists domain events in PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

// InsertDomainEvent appends one event to the log.
func (s *PGStore) InsertDomainEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (DomainEvent, error) {
	var ev DomainEvent
	err := s.Pool.QueryRow(ctx, insertDomainEventSQL, uuid.New(), topic, aggregateID, payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("insert domain event %s: %w", topic, err)
	}
	return ev, nil
}
