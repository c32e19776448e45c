package draft

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftday/mockdraft/internal/models"
	"github.com/draftday/mockdraft/internal/notify"
	"github.com/draftday/mockdraft/internal/pickorder"
	"github.com/draftday/mockdraft/internal/seeds"
	"github.com/draftday/mockdraft/internal/store"
)

const testYear = 2026

func testTeam(i int) string {
	return fmt.Sprintf("T%02d", i+1)
}

// testSeeds builds a full league fixture: straight draft order, a shared
// need list per team, and a pool deep enough for a full one-round draft.
func testSeeds(rounds, poolSize int) *seeds.StaticRepository {
	order := make(map[string][]seeds.SlotSeed, pickorder.LeagueTeams)
	needs := make(map[string][]string, pickorder.LeagueTeams)
	for i := 0; i < pickorder.LeagueTeams; i++ {
		team := testTeam(i)
		needs[team] = []string{"QB", "WR", "CB"}
		for round := 1; round <= rounds; round++ {
			order[team] = append(order[team], seeds.SlotSeed{
				Overall: (round-1)*pickorder.LeagueTeams + i + 1,
				Round:   round,
				Pick:    i + 1,
			})
		}
	}

	positions := []string{"QB", "WR", "CB", "OT", "EDGE"}
	pool := make([]models.Player, 0, poolSize)
	for i := 0; i < poolSize; i++ {
		pool = append(pool, models.Player{
			ID:            fmt.Sprintf("p%03d", i+1),
			Name:          fmt.Sprintf("Prospect %d", i+1),
			Position:      positions[i%len(positions)],
			ConsensusRank: i + 1,
		})
	}

	return &seeds.StaticRepository{
		Order: order,
		Needs: needs,
		Pool:  pool,
		Year:  testYear,
	}
}

type testEnv struct {
	app   *App
	store *store.MemoryStore
	clock *clockwork.FakeClock
}

func newTestEnv(t *testing.T, rounds int) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	fc := clockwork.NewFakeClock()
	repo := testSeeds(rounds, pickorder.LeagueTeams*rounds+8)

	app := NewApp(
		st,
		repo,
		pickorder.NewBuilder(repo),
		NewHeuristic(DefaultAutopickConfig()),
		notify.Noop{},
		NewTimerRegistry(fc),
		fc,
		rand.New(rand.NewSource(42)),
	)
	return &testEnv{app: app, store: st, clock: fc}
}

func testConfig(rounds int) models.DraftConfig {
	return models.DraftConfig{
		Rounds:             rounds,
		SecondsPerPick:     0,
		Format:             models.DraftFormatMultiTeam,
		Year:               testYear,
		TeamAssignmentMode: models.AssignmentModeChoice,
		CpuSpeed:           models.CpuSpeedInstant,
		TradesEnabled:      true,
	}
}

func (e *testEnv) createDraft(t *testing.T, cfg models.DraftConfig, creator uuid.UUID) *models.Draft {
	t.Helper()
	d, err := e.app.CreateDraft(context.Background(), CreateDraftRequest{
		CreatorID: creator,
		Platform:  "web",
		Handle:    "creator",
		Config:    cfg,
	})
	require.NoError(t, err)
	return d
}

func TestCreateDraftBuildsFullAggregate(t *testing.T) {
	env := newTestEnv(t, 2)
	creator := uuid.New()

	d := env.createDraft(t, testConfig(2), creator)

	assert.Equal(t, models.DraftStatusLobby, d.Status)
	assert.Len(t, d.PickOrder, pickorder.LeagueTeams*2)
	assert.Len(t, d.FuturePicks, 2*pickorder.FutureRounds*pickorder.LeagueTeams)
	assert.Len(t, d.TeamAssignments, pickorder.LeagueTeams)
	for _, owner := range d.TeamAssignments {
		assert.Nil(t, owner)
	}
	require.Contains(t, d.Participants, creator.String())
	assert.Equal(t, 1, d.CurrentPick)
}

func TestJoinOnlyInLobby(t *testing.T) {
	env := newTestEnv(t, 1)
	d := env.createDraft(t, testConfig(1), uuid.New())

	joiner := models.Participant{UserID: uuid.New(), Platform: "discord", Handle: "late"}
	updated, err := env.app.Join(context.Background(), d.ID, joiner)
	require.NoError(t, err)
	assert.Contains(t, updated.Participants, joiner.UserID.String())

	_, err = env.app.Start(context.Background(), d.ID, d.CreatorID)
	require.NoError(t, err)

	_, err = env.app.Join(context.Background(), d.ID, joiner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestAssignTeam(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	d := env.createDraft(t, testConfig(1), creator)
	ctx := context.Background()

	t.Run("unknown team", func(t *testing.T) {
		_, err := env.app.AssignTeam(ctx, d.ID, creator, "NOPE")
		assert.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("user must join first", func(t *testing.T) {
		_, err := env.app.AssignTeam(ctx, d.ID, uuid.New(), testTeam(0))
		assert.True(t, errors.Is(err, ErrUnauthorized))
	})

	t.Run("assign and release", func(t *testing.T) {
		updated, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(0))
		require.NoError(t, err)
		require.NotNil(t, updated.TeamAssignments[testTeam(0)])
		assert.Equal(t, creator, *updated.TeamAssignments[testTeam(0)])

		updated, err = env.app.AssignTeam(ctx, d.ID, uuid.Nil, testTeam(0))
		require.NoError(t, err)
		assert.Nil(t, updated.TeamAssignments[testTeam(0)])
	})

	t.Run("taken team is rejected", func(t *testing.T) {
		_, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(1))
		require.NoError(t, err)

		other := models.Participant{UserID: uuid.New(), Platform: "web", Handle: "other"}
		_, err = env.app.Join(ctx, d.ID, other)
		require.NoError(t, err)

		_, err = env.app.AssignTeam(ctx, d.ID, other.UserID, testTeam(1))
		assert.True(t, errors.Is(err, ErrInvalidState))
	})
}

func TestAssignTeamSingleTeamSwaps(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	cfg := testConfig(1)
	cfg.Format = models.DraftFormatSingleTeam
	d := env.createDraft(t, cfg, creator)
	ctx := context.Background()

	_, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(3))
	require.NoError(t, err)

	updated, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(7))
	require.NoError(t, err)

	assert.Nil(t, updated.TeamAssignments[testTeam(3)])
	require.NotNil(t, updated.TeamAssignments[testTeam(7)])
	assert.Equal(t, creator, *updated.TeamAssignments[testTeam(7)])
}

func TestLifecycleTransitions(t *testing.T) {
	env := newTestEnv(t, 1)
	d := env.createDraft(t, testConfig(1), uuid.New())
	ctx := context.Background()

	_, err := env.app.Pause(ctx, d.ID, d.CreatorID)
	assert.True(t, errors.Is(err, ErrInvalidState), "cannot pause a lobby draft")

	_, err = env.app.Resume(ctx, d.ID, d.CreatorID)
	assert.True(t, errors.Is(err, ErrInvalidState), "cannot resume a lobby draft")

	started, err := env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusActive, started.Status)
	require.NotNil(t, started.StartedAt)

	_, err = env.app.Start(ctx, d.ID, d.CreatorID)
	assert.True(t, errors.Is(err, ErrInvalidState), "cannot start twice")

	paused, err := env.app.Pause(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusPaused, paused.Status)

	resumed, err := env.app.Resume(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusActive, resumed.Status)
}

func TestLifecycleCreatorOnly(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	d := env.createDraft(t, testConfig(1), creator)
	ctx := context.Background()
	stranger := uuid.New()

	member := models.Participant{UserID: uuid.New(), Platform: "web", Handle: "member"}
	_, err := env.app.Join(ctx, d.ID, member)
	require.NoError(t, err)

	_, err = env.app.Start(ctx, d.ID, stranger)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	updated, err := env.app.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusLobby, updated.Status, "stranger must not start the draft")

	_, err = env.app.Start(ctx, d.ID, creator)
	require.NoError(t, err)

	_, err = env.app.Pause(ctx, d.ID, stranger)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	// A joined non-creator participant is still not privileged.
	_, err = env.app.Pause(ctx, d.ID, member.UserID)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	paused, err := env.app.Pause(ctx, d.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusPaused, paused.Status)

	_, err = env.app.Resume(ctx, d.ID, stranger)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = env.app.Resume(ctx, d.ID, creator)
	require.NoError(t, err)
}

func TestStartFullFormatHandsCreatorEveryTeam(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	cfg := testConfig(1)
	cfg.Format = models.DraftFormatFull
	d := env.createDraft(t, cfg, creator)

	started, err := env.app.Start(context.Background(), d.ID, d.CreatorID)
	require.NoError(t, err)

	for team, owner := range started.TeamAssignments {
		require.NotNil(t, owner, "team %s should be assigned", team)
		assert.Equal(t, creator, *owner)
	}
}

func TestStartRandomModeDealsTeams(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	cfg := testConfig(1)
	cfg.TeamAssignmentMode = models.AssignmentModeRandom
	d := env.createDraft(t, cfg, creator)

	joiner := models.Participant{UserID: uuid.New(), Platform: "web", Handle: "j"}
	_, err := env.app.Join(context.Background(), d.ID, joiner)
	require.NoError(t, err)

	started, err := env.app.Start(context.Background(), d.ID, d.CreatorID)
	require.NoError(t, err)

	owned := 0
	for _, owner := range started.TeamAssignments {
		if owner != nil {
			owned++
		}
	}
	assert.Equal(t, 2, owned, "both participants get exactly one team")
}

func TestMakePick(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	d := env.createDraft(t, testConfig(1), creator)
	ctx := context.Background()

	// Creator controls the first two slots.
	_, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(0))
	require.NoError(t, err)
	_, err = env.app.AssignTeam(ctx, d.ID, creator, testTeam(1))
	require.NoError(t, err)

	_, _, err = env.app.MakePick(ctx, d.ID, creator, "p001")
	assert.True(t, errors.Is(err, ErrInvalidState), "cannot pick before start")

	_, err = env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	t.Run("unauthorized user", func(t *testing.T) {
		_, _, err := env.app.MakePick(ctx, d.ID, uuid.New(), "p001")
		assert.True(t, errors.Is(err, ErrUnauthorized))
	})

	t.Run("unknown player", func(t *testing.T) {
		_, _, err := env.app.MakePick(ctx, d.ID, creator, "bogus")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("happy path advances the draft", func(t *testing.T) {
		pick, updated, err := env.app.MakePick(ctx, d.ID, creator, "p001")
		require.NoError(t, err)

		assert.Equal(t, 1, pick.Overall)
		assert.Equal(t, testTeam(0), pick.Team)
		require.NotNil(t, pick.UserID)
		assert.Equal(t, creator, *pick.UserID)
		assert.Equal(t, 2, updated.CurrentPick)
		assert.True(t, updated.HasPicked("p001"))

		picks, err := env.app.ListPicks(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, picks, 1)
	})

	t.Run("double submit of the same player", func(t *testing.T) {
		_, _, err := env.app.MakePick(ctx, d.ID, creator, "p001")
		assert.True(t, errors.Is(err, ErrAlreadyPicked))
	})
}

func TestConcurrentPicksOneWinner(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	d := env.createDraft(t, testConfig(1), creator)
	ctx := context.Background()

	_, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(0))
	require.NoError(t, err)
	_, err = env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	players := []string{"p001", "p002", "p003", "p004"}
	var wg sync.WaitGroup
	errCh := make(chan error, len(players))

	for _, playerID := range players {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _, err := env.app.MakePick(ctx, d.ID, creator, id)
			errCh <- err
		}(playerID)
	}
	wg.Wait()
	close(errCh)

	var succeeded int
	for err := range errCh {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent submission wins slot 1")

	final, err := env.app.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, final.CurrentPick)
}

func TestAvailablePlayersShrinks(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	d := env.createDraft(t, testConfig(1), creator)
	ctx := context.Background()

	_, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(0))
	require.NoError(t, err)
	_, err = env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	before, err := env.app.AvailablePlayers(ctx, d)
	require.NoError(t, err)

	_, updated, err := env.app.MakePick(ctx, d.ID, creator, "p001")
	require.NoError(t, err)

	after, err := env.app.AvailablePlayers(ctx, updated)
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	for _, p := range after {
		assert.NotEqual(t, "p001", p.ID)
	}
}

func TestPickClockTimeoutAutopicks(t *testing.T) {
	env := newTestEnv(t, 1)
	creator := uuid.New()
	cfg := testConfig(1)
	cfg.SecondsPerPick = 30
	d := env.createDraft(t, cfg, creator)
	ctx := context.Background()

	_, err := env.app.AssignTeam(ctx, d.ID, creator, testTeam(0))
	require.NoError(t, err)
	_, err = env.app.Start(ctx, d.ID, d.CreatorID)
	require.NoError(t, err)

	env.clock.Advance(30 * time.Second)

	require.Eventually(t, func() bool {
		current, err := env.app.Get(ctx, d.ID)
		require.NoError(t, err)
		return current.Status == models.DraftStatusComplete
	}, 5*time.Second, 10*time.Millisecond,
		"timeout autopick should fire and the cascade should finish the all-CPU remainder")

	picks, err := env.app.ListPicks(ctx, d.ID)
	require.NoError(t, err)
	require.NotEmpty(t, picks)
	assert.Nil(t, picks[0].UserID, "a clock expiry records a CPU pick")
}
