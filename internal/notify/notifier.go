package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sink receives live notification envelopes. Sinks are best-effort;
// durable delivery rides the outbox relay instead.
type Sink interface {
	Deliver(ctx context.Context, env Envelope) error
}

// Fanout broadcasts every notification to all sinks, fire-and-forget.
// Sink failures are logged and swallowed; nothing here can fail a pick.
type Fanout struct {
	sinks   []Sink
	clock   clockwork.Clock
	timeout time.Duration
}

// NewFanout creates a Fanout over the given sinks.
func NewFanout(clock clockwork.Clock, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:   sinks,
		clock:   clock,
		timeout: 5 * time.Second,
	}
}

// Notify wraps the payload in an envelope and delivers it to every sink
// in its own goroutine.
func (f *Fanout) Notify(ctx context.Context, draftID uuid.UUID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal notification payload")
		return
	}

	env := Envelope{
		EventID:   uuid.New(),
		EventType: eventType,
		DraftID:   draftID,
		Timestamp: f.clock.Now().UTC(),
		Payload:   raw,
	}

	for _, sink := range f.sinks {
		go func(s Sink) {
			dctx, cancel := context.WithTimeout(context.Background(), f.timeout)
			defer cancel()

			if err := s.Deliver(dctx, env); err != nil {
				log.Warn().Err(err).
					Str("event_type", eventType).
					Str("draft_id", draftID.String()).
					Msg("notification sink delivery failed")
			}
		}(sink)
	}
}

// Noop discards every notification. Used in tests and offline tooling.
type Noop struct{}

func (Noop) Notify(context.Context, uuid.UUID, string, any) {}
