package models

import "github.com/google/uuid"

// SlotOwner records the participant control handed over by a trade.
// A non-nil SlotOwner with a nil UserID means the slot was explicitly
// traded to a CPU-controlled team.
type SlotOwner struct {
	UserID *uuid.UUID `json:"user_id"`
}

// DraftSlot is one position in the draft order. Team is the original owner
// and never changes; trades record their result in TeamOverride and
// OwnerOverride.
type DraftSlot struct {
	Overall int    `json:"overall"`
	Round   int    `json:"round"`
	Pick    int    `json:"pick"`
	Team    string `json:"team"`

	TeamOverride  string     `json:"team_override,omitempty"`
	OwnerOverride *SlotOwner `json:"owner_override,omitempty"`
}

// EffectiveTeam returns the team currently controlling the slot.
func (s *DraftSlot) EffectiveTeam() string {
	if s.TeamOverride != "" {
		return s.TeamOverride
	}
	return s.Team
}

// Clone returns a copy with no shared pointers.
func (s *DraftSlot) Clone() *DraftSlot {
	out := *s
	if s.OwnerOverride != nil {
		owner := SlotOwner{}
		if s.OwnerOverride.UserID != nil {
			id := *s.OwnerOverride.UserID
			owner.UserID = &id
		}
		out.OwnerOverride = &owner
	}
	return &out
}

// FuturePickSlot is a pick in an out-year draft (draft year +1 or +2).
// OwnerTeam defaults to OriginalTeam and is rewritten by trades.
type FuturePickSlot struct {
	Year         int    `json:"year"`
	Round        int    `json:"round"`
	OriginalTeam string `json:"original_team"`
	OwnerTeam    string `json:"owner_team"`
}
