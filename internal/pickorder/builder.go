package pickorder

import (
	"context"
	"fmt"
	"sort"

	"github.com/draftday/mockdraft/internal/models"
	"github.com/draftday/mockdraft/internal/seeds"
)

// LeagueTeams is the number of teams in the league, and therefore the
// number of slots per round.
const LeagueTeams = 32

// FutureRounds is how many rounds of out-year picks are tradeable.
const FutureRounds = 3

// SeedSource defines what the builder needs from the seed repository.
type SeedSource interface {
	BaseOrder(ctx context.Context, year int) (map[string][]seeds.SlotSeed, error)
	FutureOverrides(ctx context.Context, year int) ([]seeds.FutureOverride, error)
	Teams(ctx context.Context, year int) ([]string, error)
}

// Builder constructs draft slot sequences from a year's seed order table.
type Builder struct {
	seeds SeedSource
}

// NewBuilder creates a Builder backed by the given seed source.
func NewBuilder(src SeedSource) *Builder {
	return &Builder{seeds: src}
}

// Build returns the ordered slot sequence for an N-round draft: every
// team's base slots with round <= rounds, flattened and sorted ascending
// by overall.
func (b *Builder) Build(ctx context.Context, rounds, year int) ([]models.DraftSlot, error) {
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be greater than 0")
	}

	order, err := b.seeds.BaseOrder(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load base order for %d: %w", year, err)
	}

	slots := make([]models.DraftSlot, 0, LeagueTeams*rounds)
	for team, teamSlots := range order {
		for _, seed := range teamSlots {
			if seed.Round > rounds {
				continue
			}
			slots = append(slots, models.DraftSlot{
				Overall: seed.Overall,
				Round:   seed.Round,
				Pick:    seed.Pick,
				Team:    team,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Overall < slots[j].Overall
	})

	if err := validateOrder(slots, rounds); err != nil {
		return nil, fmt.Errorf("seed order for %d is corrupt: %w", year, err)
	}

	return slots, nil
}

// BuildFuture seeds future-pick ownership for the two out-years: rounds 1-3
// default to self-owned for every team, then seeded overrides replace the
// default entry for the same (year, round, original team) key.
func (b *Builder) BuildFuture(ctx context.Context, year int) ([]models.FuturePickSlot, error) {
	teams, err := b.seeds.Teams(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams for %d: %w", year, err)
	}

	overrides, err := b.seeds.FutureOverrides(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load future overrides for %d: %w", year, err)
	}

	ownerFor := make(map[string]string, len(overrides))
	for _, o := range overrides {
		ownerFor[futureKey(o.Year, o.Round, o.OriginalTeam)] = o.OwnerTeam
	}

	future := make([]models.FuturePickSlot, 0, 2*FutureRounds*len(teams))
	for _, outYear := range []int{year + 1, year + 2} {
		for round := 1; round <= FutureRounds; round++ {
			for _, team := range teams {
				owner := team
				if o, ok := ownerFor[futureKey(outYear, round, team)]; ok {
					owner = o
				}
				future = append(future, models.FuturePickSlot{
					Year:         outYear,
					Round:        round,
					OriginalTeam: team,
					OwnerTeam:    owner,
				})
			}
		}
	}

	return future, nil
}

func futureKey(year, round int, team string) string {
	return fmt.Sprintf("%d/%d/%s", year, round, team)
}

func validateOrder(slots []models.DraftSlot, rounds int) error {
	if len(slots) != LeagueTeams*rounds {
		return fmt.Errorf("expected %d slots, got %d", LeagueTeams*rounds, len(slots))
	}
	for i, slot := range slots {
		if slot.Overall != i+1 {
			return fmt.Errorf("slot at index %d has overall %d", i, slot.Overall)
		}
		if slot.Round < 1 || slot.Round > rounds {
			return fmt.Errorf("slot %d has round %d outside 1..%d", slot.Overall, slot.Round, rounds)
		}
	}
	return nil
}
