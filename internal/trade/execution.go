package trade

import (
	"fmt"

	"github.com/draftday/mockdraft/internal/models"
)

// Execution is the computed result of applying a trade: fully rewritten
// copies of the draft's pick order and future-pick ownership. Nothing in
// the source draft is mutated.
type Execution struct {
	PickOrder   []models.DraftSlot
	FuturePicks []models.FuturePickSlot
}

// ComputeExecution re-validates every traded piece against current
// ownership and produces the post-trade pick order and future picks.
// Ownership may have shifted since the proposal (a prior trade, or a
// completed pick consuming a slot); any such piece fails the whole
// computation with ErrStalePieces so execution is all-or-nothing.
func ComputeExecution(t *models.Trade, draft *models.Draft) (*Execution, error) {
	out := &Execution{
		PickOrder:   make([]models.DraftSlot, len(draft.PickOrder)),
		FuturePicks: append([]models.FuturePickSlot(nil), draft.FuturePicks...),
	}
	for i, slot := range draft.PickOrder {
		out.PickOrder[i] = *slot.Clone()
	}

	// Pieces the proposer gives move to the recipient's team, and vice
	// versa.
	transfers := []struct {
		pieces []models.TradePiece
		from   string
		to     string
	}{
		{t.ProposerGives, t.ProposerTeam, t.RecipientTeam},
		{t.ProposerReceives, t.RecipientTeam, t.ProposerTeam},
	}

	for _, tr := range transfers {
		for _, piece := range tr.pieces {
			switch piece.Type {
			case models.TradePieceCurrentPick:
				if err := moveSlot(out.PickOrder, draft.CurrentPick, piece.Overall, tr.from, tr.to); err != nil {
					return nil, err
				}
			case models.TradePieceFuturePick:
				if err := moveFuture(out.FuturePicks, piece, tr.from, tr.to); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("unknown trade piece type %q", piece.Type)
			}
		}
	}

	return out, nil
}

func moveSlot(order []models.DraftSlot, currentPick, overall int, from, to string) error {
	for i := range order {
		slot := &order[i]
		if slot.Overall != overall {
			continue
		}
		if slot.Overall < currentPick {
			return fmt.Errorf("pick %d already made: %w", overall, ErrStalePieces)
		}
		if slot.EffectiveTeam() != from {
			return fmt.Errorf("pick %d owned by %s, not %s: %w",
				overall, slot.EffectiveTeam(), from, ErrStalePieces)
		}
		slot.TeamOverride = to
		// Control now follows the receiving team's assignment.
		slot.OwnerOverride = nil
		return nil
	}
	return fmt.Errorf("no slot with overall %d: %w", overall, ErrStalePieces)
}

func moveFuture(picks []models.FuturePickSlot, piece models.TradePiece, from, to string) error {
	for i := range picks {
		fp := &picks[i]
		if fp.Year != piece.Year || fp.Round != piece.Round || fp.OriginalTeam != piece.OriginalTeam {
			continue
		}
		if fp.OwnerTeam != from {
			return fmt.Errorf("%d round %d pick from %s owned by %s, not %s: %w",
				piece.Year, piece.Round, piece.OriginalTeam, fp.OwnerTeam, from, ErrStalePieces)
		}
		fp.OwnerTeam = to
		return nil
	}
	return fmt.Errorf("no future pick %d/%d/%s: %w",
		piece.Year, piece.Round, piece.OriginalTeam, ErrStalePieces)
}
