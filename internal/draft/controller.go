package draft

import (
	"github.com/google/uuid"

	"github.com/draftday/mockdraft/internal/models"
)

// Controller resolves which participant controls a slot right now. A nil
// result means the slot is CPU-controlled.
//
// An OwnerOverride placed by a trade wins outright, including an explicit
// CPU override (non-nil owner with nil UserID). Otherwise control follows
// the team currently holding the slot, so a traded slot resolves through
// its TeamOverride to the receiving team's assignment.
func Controller(draft *models.Draft, slot *models.DraftSlot) *uuid.UUID {
	if slot.OwnerOverride != nil {
		return slot.OwnerOverride.UserID
	}
	return draft.TeamAssignments[slot.EffectiveTeam()]
}

// IsCpuSlot reports whether the slot resolves to CPU control.
func IsCpuSlot(draft *models.Draft, slot *models.DraftSlot) bool {
	return Controller(draft, slot) == nil
}
