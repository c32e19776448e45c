package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/draftday/mockdraft/internal/models"
)

var (
	// ErrDraftNotFound is returned for reads and mutations of unknown drafts.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrTradeNotFound is returned for reads of unknown trades.
	ErrTradeNotFound = errors.New("trade not found")
)

// OutboxEvent is a domain event committed alongside the state change that
// produced it. A relay worker publishes pending events to the message bus.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Txn is the unit of work handed to an AtomicMutate callback. The callback
// mutates Draft in place and may stage pick appends, trade writes and
// outbox events; the store commits everything together or nothing at all.
type Txn struct {
	Draft *models.Draft

	picks         []models.Pick
	appendedPicks []models.Pick
	stagedTrades  []*models.Trade
	stagedEvents  []OutboxEvent
}

// NewTxn wraps a freshly reloaded draft and its pick log. Store
// implementations call this; application code receives the Txn.
func NewTxn(draft *models.Draft, picks []models.Pick) *Txn {
	return &Txn{Draft: draft, picks: picks}
}

// Picks returns the committed pick log as of the start of the transaction.
func (t *Txn) Picks() []models.Pick {
	return t.picks
}

// AppendPick stages a pick log entry for commit.
func (t *Txn) AppendPick(p models.Pick) {
	t.appendedPicks = append(t.appendedPicks, p)
}

// StageTrade stages a whole-record trade write for commit.
func (t *Txn) StageTrade(tr *models.Trade) {
	t.stagedTrades = append(t.stagedTrades, tr)
}

// AppendedPicks returns the picks staged so far.
func (t *Txn) AppendedPicks() []models.Pick {
	return t.appendedPicks
}

// StagedTrades returns the trade writes staged so far.
func (t *Txn) StagedTrades() []*models.Trade {
	return t.stagedTrades
}

// AppendEvent stages an outbox event for commit with the mutation.
func (t *Txn) AppendEvent(eventType string, payload json.RawMessage) {
	t.stagedEvents = append(t.stagedEvents, OutboxEvent{
		ID:        uuid.New(),
		DraftID:   t.Draft.ID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
}

// StagedEvents returns the outbox events staged so far.
func (t *Txn) StagedEvents() []OutboxEvent {
	return t.stagedEvents
}

// Store is the transactional document store the engine runs against.
// AtomicMutate must reload the draft, run fn, and commit the mutated
// aggregate plus any staged picks/trades as a single atomic write, so two
// racing callers for the same draft serialize and the loser re-validates
// against the winner's state.
type Store interface {
	CreateDraft(ctx context.Context, draft *models.Draft) error
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	AtomicMutate(ctx context.Context, draftID uuid.UUID, fn func(*Txn) error) (*models.Draft, error)

	ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error)

	CreateTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	UpdateTrade(ctx context.Context, trade *models.Trade) error
	ListTradesByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Trade, error)

	// PendingOutboxEvents returns up to limit unprocessed events in commit
	// order; MarkOutboxProcessed acknowledges them after publishing.
	PendingOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, ids []uuid.UUID) error
}
