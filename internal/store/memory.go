package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/draftday/mockdraft/internal/models"
)

// MemoryStore is a mutex-guarded in-memory Store. Unit tests and local
// single-node mode use it in place of Postgres; AtomicMutate serializes
// per draft on the store lock, which matches the transactional contract.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*models.Draft
	picks  map[uuid.UUID][]models.Pick
	trades map[uuid.UUID]*models.Trade
	outbox []OutboxEvent
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[uuid.UUID]*models.Draft),
		picks:  make(map[uuid.UUID][]models.Pick),
		trades: make(map[uuid.UUID]*models.Trade),
	}
}

func (s *MemoryStore) CreateDraft(_ context.Context, draft *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drafts[draft.ID]; exists {
		return fmt.Errorf("draft %s already exists", draft.ID)
	}
	s.drafts[draft.ID] = draft.Clone()
	return nil
}

func (s *MemoryStore) GetDraft(_ context.Context, id uuid.UUID) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrDraftNotFound)
	}
	return draft.Clone(), nil
}

func (s *MemoryStore) AtomicMutate(_ context.Context, draftID uuid.UUID, fn func(*Txn) error) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.drafts[draftID]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", draftID, ErrDraftNotFound)
	}

	// fn works on a copy so a failed mutation leaves the stored aggregate
	// untouched.
	txn := NewTxn(stored.Clone(), append([]models.Pick(nil), s.picks[draftID]...))
	if err := fn(txn); err != nil {
		return nil, err
	}

	s.drafts[draftID] = txn.Draft
	s.picks[draftID] = append(s.picks[draftID], txn.AppendedPicks()...)
	for _, tr := range txn.StagedTrades() {
		clone := *tr
		s.trades[tr.ID] = &clone
	}
	s.outbox = append(s.outbox, txn.StagedEvents()...)

	return txn.Draft.Clone(), nil
}

func (s *MemoryStore) ListPicks(_ context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Pick(nil), s.picks[draftID]...), nil
}

func (s *MemoryStore) CreateTrade(_ context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trades[trade.ID]; exists {
		return fmt.Errorf("trade %s already exists", trade.ID)
	}
	clone := *trade
	s.trades[trade.ID] = &clone
	return nil
}

func (s *MemoryStore) UpdateTrade(_ context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trades[trade.ID]; !exists {
		return fmt.Errorf("trade %s: %w", trade.ID, ErrTradeNotFound)
	}
	clone := *trade
	s.trades[trade.ID] = &clone
	return nil
}

func (s *MemoryStore) GetTrade(_ context.Context, id uuid.UUID) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trade, ok := s.trades[id]
	if !ok {
		return nil, fmt.Errorf("trade %s: %w", id, ErrTradeNotFound)
	}
	clone := *trade
	return &clone, nil
}

func (s *MemoryStore) ListTradesByDraft(_ context.Context, draftID uuid.UUID) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Trade
	for _, trade := range s.trades {
		if trade.DraftID == draftID {
			out = append(out, *trade)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) PendingOutboxEvents(_ context.Context, limit int) ([]OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.outbox)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]OutboxEvent(nil), s.outbox[:n]...), nil
}

func (s *MemoryStore) MarkOutboxProcessed(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	processed := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		processed[id] = true
	}

	remaining := s.outbox[:0]
	for _, ev := range s.outbox {
		if !processed[ev.ID] {
			remaining = append(remaining, ev)
		}
	}
	s.outbox = remaining
	return nil
}
