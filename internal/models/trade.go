package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeStatus defines the lifecycle state of a trade proposal.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "PENDING"
	TradeStatusAccepted  TradeStatus = "ACCEPTED"
	TradeStatusRejected  TradeStatus = "REJECTED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
	TradeStatusExpired   TradeStatus = "EXPIRED"
)

// TradePieceType tags the TradePiece variant.
type TradePieceType string

const (
	TradePieceCurrentPick TradePieceType = "CURRENT_PICK"
	TradePieceFuturePick  TradePieceType = "FUTURE_PICK"
)

// TradePiece is either a current-draft slot (Overall set) or a future-year
// pick (Year/Round/OriginalTeam set), discriminated by Type.
type TradePiece struct {
	Type TradePieceType `json:"type"`

	Overall int `json:"overall,omitempty"`

	Year         int    `json:"year,omitempty"`
	Round        int    `json:"round,omitempty"`
	OriginalTeam string `json:"original_team,omitempty"`
}

// CurrentPickPiece builds a current-draft trade piece.
func CurrentPickPiece(overall int) TradePiece {
	return TradePiece{Type: TradePieceCurrentPick, Overall: overall}
}

// FuturePickPiece builds a future-year trade piece.
func FuturePickPiece(year, round int, originalTeam string) TradePiece {
	return TradePiece{
		Type:         TradePieceFuturePick,
		Year:         year,
		Round:        round,
		OriginalTeam: originalTeam,
	}
}

// Trade is a pick-swap proposal between two teams in a draft.
type Trade struct {
	ID      uuid.UUID `json:"id"`
	DraftID uuid.UUID `json:"draft_id"`

	ProposerID   uuid.UUID `json:"proposer_id"`
	ProposerTeam string    `json:"proposer_team"`
	// RecipientID is nil when the counterparty team is CPU-controlled.
	RecipientID   *uuid.UUID `json:"recipient_id,omitempty"`
	RecipientTeam string     `json:"recipient_team"`

	ProposerGives    []TradePiece `json:"proposer_gives"`
	ProposerReceives []TradePiece `json:"proposer_receives"`

	Status       TradeStatus `json:"status"`
	IsForceTrade bool        `json:"is_force_trade"`
	ExpiresAt    *time.Time  `json:"expires_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// IsExpired reports whether the trade proposal has passed its deadline.
func (t *Trade) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// IsTerminal reports whether the trade can no longer change state.
func (t *Trade) IsTerminal() bool {
	return t.Status != TradeStatusPending
}
