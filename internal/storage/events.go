package storage

import (
	"context"
	"encoding/json"

	"github.com/bookable/bookingd/internal/outbox"
)

type eventPayload struct {
	ID     string   `json:"id"`
	Fields []string `json:"fields,omitempty"`
}

// EmitEvent stages a domain event in the outbox through the store's own
// querier, so events written inside a transaction commit or vanish with it.
func (s *Store) EmitEvent(ctx context.Context, eventType, aggregateID string, fields []string) error {
	payload, err := json.Marshal(eventPayload{ID: aggregateID, Fields: fields})
	if err != nil {
		return err
	}
	return outbox.Insert(ctx, s.q, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
	})
}
