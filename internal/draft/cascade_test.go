package draft

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftday/mockdraft/internal/models"
	"github.com/draftday/mockdraft/internal/pickorder"
)

func TestCascadeDraftsEveryCpuSlot(t *testing.T) {
	env := newTestEnv(t, 1)
	d := env.createDraft(t, testConfig(1), uuid.New())
	ctx := context.Background()

	_, err := env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	picks, complete, err := env.app.RunCpuCascade(ctx, d.ID)
	require.NoError(t, err)

	assert.True(t, complete)
	assert.Len(t, picks, pickorder.LeagueTeams)

	final, err := env.app.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusComplete, final.Status)
	require.NotNil(t, final.CompletedAt)
	assert.Len(t, final.PickedPlayerIDs, pickorder.LeagueTeams)

	// Every CPU pick is unique and attributed to no user.
	seen := make(map[string]bool)
	for _, pick := range picks {
		assert.Nil(t, pick.UserID)
		assert.False(t, seen[pick.PlayerID], "player %s drafted twice", pick.PlayerID)
		seen[pick.PlayerID] = true
	}
}

func TestCascadeStopsAtHumanSlot(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	d := env.createDraft(t, testConfig(1), creator)
	ctx := context.Background()

	// Creator controls the fifth slot; the first four are CPU.
	_, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(4))
	require.NoError(t, err)
	_, err = env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	picks, complete, err := env.app.RunCpuCascade(ctx, d.ID)
	require.NoError(t, err)

	assert.False(t, complete)
	assert.Len(t, picks, 4)

	current, err := env.app.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, current.CurrentPick)
	assert.Equal(t, models.DraftStatusActive, current.Status)
}

func TestCascadeNoopOnHumanSlot(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	d := env.createDraft(t, testConfig(1), creator)
	ctx := context.Background()

	_, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(0))
	require.NoError(t, err)
	_, err = env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	picks, complete, err := env.app.RunCpuCascade(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, picks)
	assert.False(t, complete)
}

func TestCascadeStopsWhenPaused(t *testing.T) {
	env := newTestEnv(t, 1)
	d := env.createDraft(t, testConfig(1), uuid.New())
	ctx := context.Background()

	_, err := env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)
	_, err = env.app.Pause(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	picks, complete, err := env.app.RunCpuCascade(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, picks)
	assert.False(t, complete)
}

func TestCascadeRespectsNeedsOverPureRank(t *testing.T) {
	env := newTestEnv(t, 1)
	d := env.createDraft(t, testConfig(1), uuid.New())
	ctx := context.Background()

	_, err := env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	picks, _, err := env.app.RunCpuCascade(ctx, d.ID)
	require.NoError(t, err)
	require.NotEmpty(t, picks)

	// The fixture pool is rank-ordered and each team needs QB/WR/CB.
	// The first pick must come from the top of the board: either the
	// best player outright or a needed position within reach.
	first := picks[0]
	assert.LessOrEqual(t, playerRank(t, env, first.PlayerID), 1+12)
}

func playerRank(t *testing.T, env *testEnv, playerID string) int {
	t.Helper()
	pool, err := env.app.seeds.Players(context.Background(), testYear)
	require.NoError(t, err)
	for _, p := range pool {
		if p.ID == playerID {
			return p.ConsensusRank
		}
	}
	t.Fatalf("player %s not in pool", playerID)
	return 0
}
