package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus defines the lifecycle state of a draft.
type DraftStatus string

const (
	DraftStatusLobby    DraftStatus = "LOBBY"
	DraftStatusActive   DraftStatus = "ACTIVE"
	DraftStatusPaused   DraftStatus = "PAUSED"
	DraftStatusComplete DraftStatus = "COMPLETE"
)

// DraftFormat defines how many teams the participants control.
type DraftFormat string

const (
	DraftFormatFull       DraftFormat = "FULL"
	DraftFormatSingleTeam DraftFormat = "SINGLE_TEAM"
	DraftFormatMultiTeam  DraftFormat = "MULTI_TEAM"
)

// AssignmentMode defines how teams are handed to participants.
type AssignmentMode string

const (
	AssignmentModeRandom AssignmentMode = "RANDOM"
	AssignmentModeChoice AssignmentMode = "CHOICE"
)

// CpuSpeed defines how quickly CPU-controlled slots pick.
type CpuSpeed string

const (
	CpuSpeedInstant CpuSpeed = "INSTANT"
	CpuSpeedFast    CpuSpeed = "FAST"
	CpuSpeedNormal  CpuSpeed = "NORMAL"
)

// DraftConfig holds the JSON configuration for a draft.
type DraftConfig struct {
	Rounds             int            `json:"rounds"`
	SecondsPerPick     int            `json:"seconds_per_pick"`
	Format             DraftFormat    `json:"format"`
	Year               int            `json:"year"`
	TeamAssignmentMode AssignmentMode `json:"team_assignment_mode"`
	CpuSpeed           CpuSpeed       `json:"cpu_speed"`
	TradesEnabled      bool           `json:"trades_enabled"`
}

// Participant links an internal user to a platform identity.
type Participant struct {
	UserID   uuid.UUID `json:"user_id"`
	Platform string    `json:"platform"` // "web" or "discord"
	Handle   string    `json:"handle"`
}

// Draft is the aggregate root for one mock draft.
type Draft struct {
	ID        uuid.UUID   `json:"id"`
	CreatorID uuid.UUID   `json:"creator_id"`
	Status    DraftStatus `json:"status"`
	Config    DraftConfig `json:"config"`

	// CurrentPick is a 1-based index into PickOrder.
	CurrentPick  int `json:"current_pick"`
	CurrentRound int `json:"current_round"`

	// TeamAssignments maps team code to the controlling user; nil means CPU.
	TeamAssignments map[string]*uuid.UUID `json:"team_assignments"`
	// Participants is keyed by the user id string.
	Participants map[string]Participant `json:"participants"`

	PickOrder       []DraftSlot      `json:"pick_order"`
	PickedPlayerIDs []string         `json:"picked_player_ids"`
	FuturePicks     []FuturePickSlot `json:"future_picks"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CurrentSlot returns the slot at CurrentPick, or false when the draft has
// run out of picks.
func (d *Draft) CurrentSlot() (*DraftSlot, bool) {
	if d.CurrentPick < 1 || d.CurrentPick > len(d.PickOrder) {
		return nil, false
	}
	return &d.PickOrder[d.CurrentPick-1], true
}

// HasPicked reports whether the player has already been drafted.
func (d *Draft) HasPicked(playerID string) bool {
	for _, id := range d.PickedPlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the draft so callers can mutate it without
// aliasing the stored aggregate.
func (d *Draft) Clone() *Draft {
	out := *d

	out.TeamAssignments = make(map[string]*uuid.UUID, len(d.TeamAssignments))
	for team, userID := range d.TeamAssignments {
		if userID == nil {
			out.TeamAssignments[team] = nil
			continue
		}
		id := *userID
		out.TeamAssignments[team] = &id
	}

	out.Participants = make(map[string]Participant, len(d.Participants))
	for k, v := range d.Participants {
		out.Participants[k] = v
	}

	out.PickOrder = make([]DraftSlot, len(d.PickOrder))
	for i, slot := range d.PickOrder {
		out.PickOrder[i] = *slot.Clone()
	}

	out.PickedPlayerIDs = append([]string(nil), d.PickedPlayerIDs...)

	out.FuturePicks = append([]FuturePickSlot(nil), d.FuturePicks...)

	if d.StartedAt != nil {
		t := *d.StartedAt
		out.StartedAt = &t
	}
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		out.CompletedAt = &t
	}

	return &out
}
