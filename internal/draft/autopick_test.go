package draft

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftday/mockdraft/internal/models"
)

func TestEffectiveNeeds(t *testing.T) {
	tests := []struct {
		name    string
		base    []string
		drafted []string
		want    []string
	}{
		{
			name:    "removes one occurrence per drafted position",
			base:    []string{"CB", "CB", "WR"},
			drafted: []string{"CB"},
			want:    []string{"CB", "WR"},
		},
		{
			name:    "nothing drafted keeps all needs",
			base:    []string{"QB", "OT"},
			drafted: nil,
			want:    []string{"QB", "OT"},
		},
		{
			name:    "drafted position not in needs is ignored",
			base:    []string{"QB"},
			drafted: []string{"K", "K"},
			want:    []string{"QB"},
		},
		{
			name:    "all needs filled",
			base:    []string{"WR", "DE"},
			drafted: []string{"DE", "WR"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveNeeds(tt.base, tt.drafted)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testPool() []models.Player {
	return []models.Player{
		{ID: "p1", Name: "Alpha", Position: "EDGE", ConsensusRank: 1},
		{ID: "p2", Name: "Bravo", Position: "QB", ConsensusRank: 2},
		{ID: "p3", Name: "Charlie", Position: "OT", ConsensusRank: 8},
		{ID: "p4", Name: "Delta", Position: "CB", ConsensusRank: 11},
		{ID: "p5", Name: "Echo", Position: "WR", ConsensusRank: 30},
	}
}

func TestSelectTakesBPAWithoutNeeds(t *testing.T) {
	h := NewHeuristic(DefaultAutopickConfig())

	player, err := h.Select(nil, testPool(), nil)
	require.NoError(t, err)
	assert.Equal(t, "p1", player.ID)
}

func TestSelectBoostsNeedWithinThreshold(t *testing.T) {
	h := NewHeuristic(DefaultAutopickConfig())

	// Best OT ranks 8, BPA ranks 1. Gap 7 fits the top-priority
	// threshold of 12, so the need wins.
	player, err := h.Select(nil, testPool(), []string{"OT"})
	require.NoError(t, err)
	assert.Equal(t, "p3", player.ID)
}

func TestSelectIgnoresNeedBeyondThreshold(t *testing.T) {
	h := NewHeuristic(DefaultAutopickConfig())

	// Best WR ranks 30, a 29-point reach. No threshold allows it.
	player, err := h.Select(nil, testPool(), []string{"WR"})
	require.NoError(t, err)
	assert.Equal(t, "p1", player.ID)
}

func TestSelectLowerPriorityNeedGetsTighterThreshold(t *testing.T) {
	h := NewHeuristic(DefaultAutopickConfig())

	// CB gap is 10: fine as priority one (threshold 12), too far as
	// priority two (threshold 8), so the WR need is skipped and the CB
	// need is evaluated second.
	player, err := h.Select(nil, testPool(), []string{"CB"})
	require.NoError(t, err)
	assert.Equal(t, "p4", player.ID)

	player, err = h.Select(nil, testPool(), []string{"WR", "CB"})
	require.NoError(t, err)
	assert.Equal(t, "p1", player.ID)
}

func TestSelectEmptyPool(t *testing.T) {
	h := NewHeuristic(DefaultAutopickConfig())

	_, err := h.Select(nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoAvailablePlayers))
}

func TestSelectTopProspectsNeverJitter(t *testing.T) {
	h := NewHeuristic(DefaultAutopickConfig())
	rng := rand.New(rand.NewSource(1))

	// Rank 1 is within TopLockRank; every roll must return the same
	// player.
	for i := 0; i < 50; i++ {
		player, err := h.Select(rng, testPool(), nil)
		require.NoError(t, err)
		assert.Equal(t, "p1", player.ID)
	}
}

func TestSelectJitterSlidesDownBoard(t *testing.T) {
	cfg := DefaultAutopickConfig()
	cfg.SlideChance = 1.0 // always slide
	h := NewHeuristic(cfg)
	rng := rand.New(rand.NewSource(1))

	pool := []models.Player{
		{ID: "p1", Position: "QB", ConsensusRank: 50},
		{ID: "p2", Position: "WR", ConsensusRank: 51},
		{ID: "p3", Position: "CB", ConsensusRank: 52},
		{ID: "p4", Position: "OT", ConsensusRank: 53},
	}

	// Rank 50 is past MidJitterRank, so the CPU slides the full two
	// spots when every roll hits.
	player, err := h.Select(rng, pool, nil)
	require.NoError(t, err)
	assert.Equal(t, "p3", player.ID)
}

func TestSelectNeedPickIsNeverJittered(t *testing.T) {
	cfg := DefaultAutopickConfig()
	cfg.SlideChance = 1.0 // always slide
	h := NewHeuristic(cfg)
	rng := rand.New(rand.NewSource(1))

	pool := []models.Player{
		{ID: "bpa", Position: "EDGE", ConsensusRank: 10},
		{ID: "needqb", Position: "QB", ConsensusRank: 15},
		{ID: "wr", Position: "WR", ConsensusRank: 16},
	}

	// The QB fits the top-priority threshold (gap 5 <= 12); that pick is
	// deliberate and must survive every jitter roll.
	for i := 0; i < 50; i++ {
		player, err := h.Select(rng, pool, []string{"QB"})
		require.NoError(t, err)
		assert.Equal(t, "needqb", player.ID)
	}
}

func TestSelectUnsortedPool(t *testing.T) {
	h := NewHeuristic(DefaultAutopickConfig())

	pool := []models.Player{
		{ID: "p5", Position: "WR", ConsensusRank: 30},
		{ID: "p1", Position: "EDGE", ConsensusRank: 1},
		{ID: "p3", Position: "OT", ConsensusRank: 8},
	}

	player, err := h.Select(nil, pool, nil)
	require.NoError(t, err)
	assert.Equal(t, "p1", player.ID)
}
