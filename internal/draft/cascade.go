package draft

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftday/mockdraft/internal/models"
)

// RunCpuCascade records picks for consecutive CPU-controlled slots until
// control reaches a human, the draft completes, or the draft leaves the
// active state. It returns the picks made and whether the draft finished.
//
// Control is re-resolved from a fresh aggregate before every pick, so a
// trade executed mid-cascade hands the next slot to its new controller.
func (a *App) RunCpuCascade(ctx context.Context, draftID uuid.UUID) ([]models.Pick, bool, error) {
	var made []models.Pick

	for {
		if err := ctx.Err(); err != nil {
			return made, false, err
		}

		draft, err := a.store.GetDraft(ctx, draftID)
		if err != nil {
			return made, false, err
		}
		if draft.Status == models.DraftStatusComplete {
			return made, true, nil
		}
		if draft.Status != models.DraftStatusActive {
			return made, false, nil
		}

		slot, ok := draft.CurrentSlot()
		if !ok {
			return made, true, nil
		}
		if !IsCpuSlot(draft, slot) {
			return made, false, nil
		}

		if delay := cpuDelay(draft.Config.CpuSpeed); delay > 0 {
			select {
			case <-ctx.Done():
				return made, false, ctx.Err()
			case <-a.clock.After(delay):
			}
		}

		player, err := a.selectForSlot(ctx, draft, slot)
		if err != nil {
			return made, false, err
		}

		pick, updated, err := a.recordPick(ctx, draftID, player.ID, nil, false)
		if err != nil {
			return made, false, err
		}
		made = append(made, *pick)
		a.afterPick(ctx, updated, pick)

		if updated.Status == models.DraftStatusComplete {
			log.Info().
				Str("draft_id", draftID.String()).
				Int("cascade_picks", len(made)).
				Msg("cpu cascade completed draft")
			return made, true, nil
		}
	}
}

// cpuDelay is the pacing between consecutive CPU picks.
func cpuDelay(speed models.CpuSpeed) time.Duration {
	switch speed {
	case models.CpuSpeedFast:
		return 2 * time.Second
	case models.CpuSpeedNormal:
		return 5 * time.Second
	default:
		return 0
	}
}
