package models

import (
	"time"

	"github.com/google/uuid"
)

// Pick is one committed selection in a draft's append-only pick log.
type Pick struct {
	ID      uuid.UUID `json:"id"`
	DraftID uuid.UUID `json:"draft_id"`
	Overall int       `json:"overall"`
	Round   int       `json:"round"`
	Pick    int       `json:"pick"` // pick number within the round
	Team    string    `json:"team"`
	// UserID is nil for CPU picks.
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	PlayerID  string     `json:"player_id"`
	CreatedAt time.Time  `json:"created_at"`
}
