package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type names shared between the engine, the outbox relay and the
// gateway.
const (
	TypeDraftStarted   = "DraftStarted"
	TypeDraftPaused    = "DraftPaused"
	TypeDraftResumed   = "DraftResumed"
	TypeDraftCompleted = "DraftCompleted"
	TypePickMade       = "PickMade"
	TypePickStarted    = "PickStarted"
	TypeTradeProposed  = "TradeProposed"
	TypeTradeResolved  = "TradeResolved"
	TypeTradeExecuted  = "TradeExecuted"
)

// PickMadePayload is the payload for a PickMade event.
type PickMadePayload struct {
	PickID   uuid.UUID  `json:"pick_id"`
	Overall  int        `json:"overall"`
	Round    int        `json:"round"`
	Pick     int        `json:"pick"`
	Team     string     `json:"team"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	PlayerID string     `json:"player_id"`
	MadeAt   time.Time  `json:"made_at"`
}

// PickStartedPayload is the payload for a PickStarted event, emitted when
// a pick clock is armed for a human-controlled slot.
type PickStartedPayload struct {
	Overall        int       `json:"overall"`
	Round          int       `json:"round"`
	Team           string    `json:"team"`
	UserID         uuid.UUID `json:"user_id"`
	StartedAt      time.Time `json:"started_at"`
	TimeoutAt      time.Time `json:"timeout_at"`
	SecondsPerPick int       `json:"seconds_per_pick"`
}

// DraftStartedPayload is the payload for a DraftStarted event.
type DraftStartedPayload struct {
	DraftID    uuid.UUID `json:"draft_id"`
	StartedAt  time.Time `json:"started_at"`
	Rounds     int       `json:"rounds"`
	TotalPicks int       `json:"total_picks"`
}

// DraftPausedPayload is the payload for a DraftPaused event.
type DraftPausedPayload struct {
	DraftID  uuid.UUID `json:"draft_id"`
	PausedAt time.Time `json:"paused_at"`
}

// DraftResumedPayload is the payload for a DraftResumed event.
type DraftResumedPayload struct {
	DraftID   uuid.UUID `json:"draft_id"`
	ResumedAt time.Time `json:"resumed_at"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event.
type DraftCompletedPayload struct {
	DraftID     uuid.UUID `json:"draft_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}

// TradeProposedPayload is the payload for a TradeProposed event.
type TradeProposedPayload struct {
	TradeID       uuid.UUID `json:"trade_id"`
	ProposerTeam  string    `json:"proposer_team"`
	RecipientTeam string    `json:"recipient_team"`
}

// TradeResolvedPayload is the payload for a TradeResolved event
// (accepted without execution, rejected, cancelled or expired).
type TradeResolvedPayload struct {
	TradeID uuid.UUID `json:"trade_id"`
	Status  string    `json:"status"`
}

// TradeExecutedPayload is the payload for a TradeExecuted event.
type TradeExecutedPayload struct {
	TradeID       uuid.UUID `json:"trade_id"`
	ProposerTeam  string    `json:"proposer_team"`
	RecipientTeam string    `json:"recipient_team"`
	ExecutedAt    time.Time `json:"executed_at"`
}
