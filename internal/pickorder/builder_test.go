package pickorder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftday/mockdraft/internal/seeds"
)

func testSeedRepo(year, rounds int) *seeds.StaticRepository {
	order := make(map[string][]seeds.SlotSeed, LeagueTeams)
	for i := 0; i < LeagueTeams; i++ {
		team := fmt.Sprintf("T%02d", i+1)
		for round := 1; round <= rounds; round++ {
			order[team] = append(order[team], seeds.SlotSeed{
				Overall: (round-1)*LeagueTeams + i + 1,
				Round:   round,
				Pick:    i + 1,
			})
		}
	}
	return &seeds.StaticRepository{
		Order: order,
		Year:  year,
	}
}

func TestBuildOrdersSlotsByOverall(t *testing.T) {
	b := NewBuilder(testSeedRepo(2026, 3))

	slots, err := b.Build(context.Background(), 3, 2026)
	require.NoError(t, err)
	require.Len(t, slots, LeagueTeams*3)

	for i, slot := range slots {
		assert.Equal(t, i+1, slot.Overall)
	}
	assert.Equal(t, 1, slots[0].Round)
	assert.Equal(t, 3, slots[len(slots)-1].Round)
}

func TestBuildTrimsRoundsBeyondRequested(t *testing.T) {
	b := NewBuilder(testSeedRepo(2026, 3))

	slots, err := b.Build(context.Background(), 1, 2026)
	require.NoError(t, err)
	require.Len(t, slots, LeagueTeams)

	for _, slot := range slots {
		assert.Equal(t, 1, slot.Round)
	}
}

func TestBuildUnknownYear(t *testing.T) {
	b := NewBuilder(testSeedRepo(2026, 1))

	_, err := b.Build(context.Background(), 1, 1999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, seeds.ErrNotFound))
}

func TestBuildRejectsZeroRounds(t *testing.T) {
	b := NewBuilder(testSeedRepo(2026, 1))

	_, err := b.Build(context.Background(), 0, 2026)
	require.Error(t, err)
}

func TestBuildRejectsCorruptOrder(t *testing.T) {
	repo := testSeedRepo(2026, 1)
	// Duplicate an overall so the flattened order has a gap.
	repo.Order["T01"][0].Overall = 2

	b := NewBuilder(repo)
	_, err := b.Build(context.Background(), 1, 2026)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestBuildFutureDefaultsSelfOwned(t *testing.T) {
	b := NewBuilder(testSeedRepo(2026, 1))

	future, err := b.BuildFuture(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, future, 2*FutureRounds*LeagueTeams)

	for _, fp := range future {
		assert.Contains(t, []int{2027, 2028}, fp.Year)
		assert.GreaterOrEqual(t, fp.Round, 1)
		assert.LessOrEqual(t, fp.Round, FutureRounds)
		assert.Equal(t, fp.OriginalTeam, fp.OwnerTeam)
	}
}

func TestBuildFutureAppliesOverrides(t *testing.T) {
	repo := testSeedRepo(2026, 1)
	repo.Overrides = []seeds.FutureOverride{
		{Year: 2027, Round: 1, OriginalTeam: "T05", OwnerTeam: "T12"},
	}

	b := NewBuilder(repo)
	future, err := b.BuildFuture(context.Background(), 2026)
	require.NoError(t, err)

	var found bool
	for _, fp := range future {
		if fp.Year == 2027 && fp.Round == 1 && fp.OriginalTeam == "T05" {
			found = true
			assert.Equal(t, "T12", fp.OwnerTeam)
		}
	}
	assert.True(t, found)
}
