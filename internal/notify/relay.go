package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftday/mockdraft/internal/store"
)

// Envelope is the wire format every published event travels in.
type Envelope struct {
	EventID   uuid.UUID       `json:"event_id"`
	EventType string          `json:"event_type"`
	DraftID   uuid.UUID       `json:"draft_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// EventPublisher is the downstream sink for relayed outbox events.
type EventPublisher interface {
	Publish(ctx context.Context, event store.OutboxEvent) error
}

// OutboxSource defines what the relay needs from the store.
type OutboxSource interface {
	PendingOutboxEvents(ctx context.Context, limit int) ([]store.OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, ids []uuid.UUID) error
}

// RelayConfig configures the outbox relay worker.
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
	RetryDelay   time.Duration
}

// DefaultRelayConfig returns the standard polling cadence.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Relay drains the transactional outbox into an EventPublisher. Events
// are marked processed only after a successful publish, so delivery is
// at-least-once; the publisher's message-id dedupe absorbs replays.
type Relay struct {
	source    OutboxSource
	publisher EventPublisher
	config    RelayConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRelay creates an outbox relay.
func NewRelay(source OutboxSource, publisher EventPublisher, cfg RelayConfig) *Relay {
	return &Relay{
		source:    source,
		publisher: publisher,
		config:    cfg,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the polling loop.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("outbox relay already running")
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx)

	log.Info().
		Dur("poll_interval", r.config.PollInterval).
		Int("batch_size", r.config.BatchSize).
		Msg("outbox relay started")

	return nil
}

// Stop halts the polling loop and waits for the in-flight batch.
func (r *Relay) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("outbox relay not running")
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)
	r.wg.Wait()

	log.Info().Msg("outbox relay stopped")
	return nil
}

func (r *Relay) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on start
	r.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.processBatch(ctx)
		}
	}
}

func (r *Relay) processBatch(ctx context.Context) {
	pending, err := r.source.PendingOutboxEvents(ctx, r.config.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch pending outbox events")
		return
	}
	if len(pending) == 0 {
		return
	}

	var processed []uuid.UUID
	for _, event := range pending {
		if err := r.publishWithRetry(ctx, event); err != nil {
			log.Error().Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to publish outbox event")
			continue
		}
		processed = append(processed, event.ID)
	}

	if len(processed) == 0 {
		return
	}
	if err := r.source.MarkOutboxProcessed(ctx, processed); err != nil {
		log.Error().Err(err).Msg("failed to mark outbox events processed")
		return
	}

	log.Info().
		Int("total", len(pending)).
		Int("published", len(processed)).
		Msg("relayed outbox events")
}

func (r *Relay) publishWithRetry(ctx context.Context, event store.OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Int("attempt", attempt+1).
				Msg("publish failed, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}
