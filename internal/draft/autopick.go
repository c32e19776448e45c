package draft

import (
	"math/rand"
	"sort"

	"github.com/draftday/mockdraft/internal/models"
)

// AutopickConfig holds the tunable knobs of the CPU pick heuristic. The
// defaults are product tuning, not business rules.
type AutopickConfig struct {
	// NeedThresholds is the allowed consensus-rank gap between the best
	// player at a needed position and the best player available, one
	// entry per need priority. A higher-priority need tolerates a larger
	// reach.
	NeedThresholds []int

	// TopLockRank: when the preferred player ranks at or above this, the
	// CPU takes them with no jitter.
	TopLockRank int
	// MidJitterRank: below TopLockRank but at or above this, the CPU may
	// slide one spot down its board. Below it, up to two spots.
	MidJitterRank int
	// SlideChance is the probability of each single-spot slide.
	SlideChance float64
}

// DefaultAutopickConfig returns the standard heuristic tuning.
func DefaultAutopickConfig() AutopickConfig {
	return AutopickConfig{
		NeedThresholds: []int{12, 8, 5},
		TopLockRank:    5,
		MidJitterRank:  40,
		SlideChance:    0.25,
	}
}

// Heuristic selects players for CPU-controlled slots: best player
// available, biased toward the team's remaining positional needs, with a
// little jitter so repeated drafts diverge.
type Heuristic struct {
	cfg AutopickConfig
}

// NewHeuristic creates a Heuristic with the given tuning.
func NewHeuristic(cfg AutopickConfig) *Heuristic {
	return &Heuristic{cfg: cfg}
}

// EffectiveNeeds subtracts the positions a team has already drafted from
// its seeded need list, one occurrence per drafted player, preserving the
// seed's priority order.
func EffectiveNeeds(baseNeeds, draftedPositions []string) []string {
	remaining := make(map[string]int, len(draftedPositions))
	for _, pos := range draftedPositions {
		remaining[pos]++
	}

	needs := make([]string, 0, len(baseNeeds))
	for _, pos := range baseNeeds {
		if remaining[pos] > 0 {
			remaining[pos]--
			continue
		}
		needs = append(needs, pos)
	}
	return needs
}

// Select returns the player the CPU drafts from the available pool given
// the controlling team's effective needs. The pool need not be sorted.
func (h *Heuristic) Select(rng *rand.Rand, available []models.Player, needs []string) (models.Player, error) {
	if len(available) == 0 {
		return models.Player{}, ErrNoAvailablePlayers
	}

	pool := make([]models.Player, len(available))
	copy(pool, available)
	sort.Slice(pool, func(i, j int) bool {
		return pool[i].ConsensusRank < pool[j].ConsensusRank
	})

	board := h.buildBoard(pool, needs)
	if board[0].ID != pool[0].ID {
		// A need player beat its threshold; that selection is
		// deliberate and never jittered away.
		return board[0], nil
	}
	return board[h.jitterIndex(rng, board)], nil
}

// buildBoard orders the pool by CPU preference: the best player at the
// highest-priority need whose rank gap to the best player available fits
// that priority's threshold goes first, then everyone else by rank.
func (h *Heuristic) buildBoard(pool []models.Player, needs []string) []models.Player {
	bpa := pool[0]

	preferred := bpa
	for i, pos := range needs {
		if i >= len(h.cfg.NeedThresholds) {
			break
		}
		best, ok := bestAtPosition(pool, pos)
		if !ok {
			continue
		}
		if best.ConsensusRank-bpa.ConsensusRank <= h.cfg.NeedThresholds[i] {
			preferred = best
			break
		}
	}

	board := make([]models.Player, 0, len(pool))
	board = append(board, preferred)
	for _, p := range pool {
		if p.ID != preferred.ID {
			board = append(board, p)
		}
	}
	return board
}

// jitterIndex picks how far down the board the CPU slides. Top prospects
// are locked in; later ones may slip one or two spots.
func (h *Heuristic) jitterIndex(rng *rand.Rand, board []models.Player) int {
	top := board[0]
	if rng == nil || top.ConsensusRank <= h.cfg.TopLockRank {
		return 0
	}

	maxSlide := 1
	if top.ConsensusRank > h.cfg.MidJitterRank {
		maxSlide = 2
	}

	idx := 0
	for idx < maxSlide && idx < len(board)-1 && rng.Float64() < h.cfg.SlideChance {
		idx++
	}
	return idx
}

func bestAtPosition(pool []models.Player, position string) (models.Player, bool) {
	for _, p := range pool {
		if p.Position == position {
			return p, true
		}
	}
	return models.Player{}, false
}
