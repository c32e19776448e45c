package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/draftday/mockdraft/internal/models"
)

// PostgresStore persists each draft as a JSONB document plus an append-only
// picks table, trades, and a draft_outbox table. AtomicMutate takes a row
// lock on the draft document so concurrent mutations of the same draft
// serialize at the database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateDraft(ctx context.Context, draft *models.Draft) error {
	doc, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO drafts (id, doc, created_at, updated_at)
        VALUES ($1, $2, NOW(), NOW())
    `, draft.ID, doc)
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM drafts WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, ErrDraftNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var draft models.Draft
	if err := json.Unmarshal(doc, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft %s: %w", id, err)
	}
	return &draft, nil
}

// AtomicMutate reloads the draft under FOR UPDATE, runs fn, and commits the
// rewritten document together with any staged picks, trades and outbox
// events. A failed fn rolls everything back.
func (s *PostgresStore) AtomicMutate(ctx context.Context, draftID uuid.UUID, fn func(*Txn) error) (*models.Draft, error) {
	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = txn.Rollback()
		}
	}()

	var doc []byte
	err = txn.QueryRowContext(ctx, `SELECT doc FROM drafts WHERE id = $1 FOR UPDATE`, draftID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("draft %s: %w", draftID, ErrDraftNotFound)
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to lock draft: %w", err)
		return nil, err
	}

	var draft models.Draft
	if err = json.Unmarshal(doc, &draft); err != nil {
		err = fmt.Errorf("failed to unmarshal draft %s: %w", draftID, err)
		return nil, err
	}

	var picks []models.Pick
	picks, err = listPicks(ctx, txn, draftID)
	if err != nil {
		return nil, err
	}

	unit := NewTxn(&draft, picks)
	if err = fn(unit); err != nil {
		return nil, err
	}

	var updated []byte
	updated, err = json.Marshal(unit.Draft)
	if err != nil {
		err = fmt.Errorf("failed to marshal draft: %w", err)
		return nil, err
	}
	if _, err = txn.ExecContext(ctx, `
        UPDATE drafts SET doc = $2, updated_at = NOW() WHERE id = $1
    `, draftID, updated); err != nil {
		err = fmt.Errorf("failed to update draft: %w", err)
		return nil, err
	}

	for _, p := range unit.AppendedPicks() {
		var userID uuid.NullUUID
		if p.UserID != nil {
			userID = uuid.NullUUID{UUID: *p.UserID, Valid: true}
		}
		if _, err = txn.ExecContext(ctx, `
            INSERT INTO picks (id, draft_id, overall, round, pick, team, user_id, player_id, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        `, p.ID, p.DraftID, p.Overall, p.Round, p.Pick, p.Team, userID, p.PlayerID, p.CreatedAt); err != nil {
			err = fmt.Errorf("failed to append pick %d: %w", p.Overall, err)
			return nil, err
		}
	}

	for _, tr := range unit.StagedTrades() {
		if err = upsertTrade(ctx, txn, tr); err != nil {
			return nil, err
		}
	}

	for _, ev := range unit.StagedEvents() {
		payload := pqtype.NullRawMessage{RawMessage: ev.Payload, Valid: len(ev.Payload) > 0}
		if _, err = txn.ExecContext(ctx, `
            INSERT INTO draft_outbox (id, draft_id, event_type, payload, created_at)
            VALUES ($1, $2, $3, $4, $5)
        `, ev.ID, ev.DraftID, ev.EventType, payload, ev.CreatedAt); err != nil {
			err = fmt.Errorf("failed to insert outbox event: %w", err)
			return nil, err
		}
	}

	if err = txn.Commit(); err != nil {
		err = fmt.Errorf("failed to commit transaction: %w", err)
		return nil, err
	}

	return unit.Draft, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listPicks(ctx context.Context, q querier, draftID uuid.UUID) ([]models.Pick, error) {
	rows, err := q.QueryContext(ctx, `
        SELECT id, draft_id, overall, round, pick, team, user_id, player_id, created_at
        FROM picks WHERE draft_id = $1 ORDER BY overall
    `, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.Pick
	for rows.Next() {
		var p models.Pick
		var userID uuid.NullUUID
		if err := rows.Scan(&p.ID, &p.DraftID, &p.Overall, &p.Round, &p.Pick, &p.Team, &userID, &p.PlayerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		if userID.Valid {
			id := userID.UUID
			p.UserID = &id
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

func (s *PostgresStore) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	return listPicks(ctx, s.db, draftID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertTrade(ctx context.Context, e execer, trade *models.Trade) error {
	doc, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	if _, err := e.ExecContext(ctx, `
        INSERT INTO trades (id, draft_id, status, doc, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (id) DO UPDATE SET status = $3, doc = $4, updated_at = NOW()
    `, trade.ID, trade.DraftID, trade.Status, doc, trade.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert trade: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateTrade(ctx context.Context, trade *models.Trade) error {
	return upsertTrade(ctx, s.db, trade)
}

func (s *PostgresStore) UpdateTrade(ctx context.Context, trade *models.Trade) error {
	return upsertTrade(ctx, s.db, trade)
}

func (s *PostgresStore) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM trades WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %s: %w", id, ErrTradeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	var trade models.Trade
	if err := json.Unmarshal(doc, &trade); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trade %s: %w", id, err)
	}
	return &trade, nil
}

func (s *PostgresStore) ListTradesByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT doc FROM trades WHERE draft_id = $1 ORDER BY created_at
    `, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		var trade models.Trade
		if err := json.Unmarshal(doc, &trade); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trade: %w", err)
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

func (s *PostgresStore) PendingOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, draft_id, event_type, payload, created_at
        FROM draft_outbox
        WHERE processed_at IS NULL
        ORDER BY created_at
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		var payload pqtype.NullRawMessage
		var createdAt time.Time
		if err := rows.Scan(&ev.ID, &ev.DraftID, &ev.EventType, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		if payload.Valid {
			ev.Payload = payload.RawMessage
		}
		ev.CreatedAt = createdAt
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *PostgresStore) MarkOutboxProcessed(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `
        UPDATE draft_outbox SET processed_at = NOW() WHERE id = ANY($1)
    `, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark outbox events processed: %w", err)
	}
	return nil
}
