package seeds

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/draftday/mockdraft/internal/models"
)

// Repository serves the seed/reference data the engine reads but never
// writes: base pick-order tables, team need lists, future-pick ownership
// overrides and the draftable player pool, all keyed by draft year.
type Repository interface {
	BaseOrder(ctx context.Context, year int) (map[string][]SlotSeed, error)
	TeamNeeds(ctx context.Context, year int, team string) ([]string, error)
	FutureOverrides(ctx context.Context, year int) ([]FutureOverride, error)
	Players(ctx context.Context, year int) ([]models.Player, error)
	Teams(ctx context.Context, year int) ([]string, error)
}

type yearSeed struct {
	Order           map[string][]SlotSeed `yaml:"order"`
	Needs           map[string][]string   `yaml:"needs"`
	FutureOverrides []FutureOverride      `yaml:"future_overrides"`
	Players         []models.Player       `yaml:"players"`
}

// FileRepository loads seed YAML files from a directory, one file per year
// named seed_<year>.yaml, and caches them after first read.
type FileRepository struct {
	dir string

	mu    sync.Mutex
	cache map[int]*yearSeed
}

// NewFileRepository creates a FileRepository rooted at dir.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		dir:   dir,
		cache: make(map[int]*yearSeed),
	}
}

func (r *FileRepository) load(year int) (*yearSeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seed, ok := r.cache[year]; ok {
		return seed, nil
	}

	path := filepath.Join(r.dir, fmt.Sprintf("seed_%d.yaml", year))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("seed file for year %d: %w", year, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed yearSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	r.cache[year] = &seed
	return &seed, nil
}

func (r *FileRepository) BaseOrder(_ context.Context, year int) (map[string][]SlotSeed, error) {
	seed, err := r.load(year)
	if err != nil {
		return nil, err
	}
	if len(seed.Order) == 0 {
		return nil, fmt.Errorf("no base order for year %d: %w", year, ErrNotFound)
	}
	return seed.Order, nil
}

func (r *FileRepository) TeamNeeds(_ context.Context, year int, team string) ([]string, error) {
	seed, err := r.load(year)
	if err != nil {
		return nil, err
	}
	needs, ok := seed.Needs[team]
	if !ok {
		return nil, fmt.Errorf("no need list for team %s in year %d: %w", team, year, ErrNotFound)
	}
	return needs, nil
}

func (r *FileRepository) FutureOverrides(_ context.Context, year int) ([]FutureOverride, error) {
	seed, err := r.load(year)
	if err != nil {
		return nil, err
	}
	return seed.FutureOverrides, nil
}

func (r *FileRepository) Players(_ context.Context, year int) ([]models.Player, error) {
	seed, err := r.load(year)
	if err != nil {
		return nil, err
	}
	if len(seed.Players) == 0 {
		return nil, fmt.Errorf("no player pool for year %d: %w", year, ErrNotFound)
	}
	return seed.Players, nil
}

func (r *FileRepository) Teams(ctx context.Context, year int) ([]string, error) {
	order, err := r.BaseOrder(ctx, year)
	if err != nil {
		return nil, err
	}
	return sortedTeams(order), nil
}

// StaticRepository serves fixed in-memory seed data. Tests and local mode
// use it in place of the file-backed repository.
type StaticRepository struct {
	Order     map[string][]SlotSeed
	Needs     map[string][]string
	Overrides []FutureOverride
	Pool      []models.Player
	Year      int
}

func (r *StaticRepository) BaseOrder(_ context.Context, year int) (map[string][]SlotSeed, error) {
	if year != r.Year || len(r.Order) == 0 {
		return nil, fmt.Errorf("no base order for year %d: %w", year, ErrNotFound)
	}
	return r.Order, nil
}

func (r *StaticRepository) TeamNeeds(_ context.Context, year int, team string) ([]string, error) {
	if year != r.Year {
		return nil, fmt.Errorf("no need list for year %d: %w", year, ErrNotFound)
	}
	needs, ok := r.Needs[team]
	if !ok {
		return nil, fmt.Errorf("no need list for team %s: %w", team, ErrNotFound)
	}
	return needs, nil
}

func (r *StaticRepository) FutureOverrides(_ context.Context, year int) ([]FutureOverride, error) {
	if year != r.Year {
		return nil, fmt.Errorf("no future overrides for year %d: %w", year, ErrNotFound)
	}
	return r.Overrides, nil
}

func (r *StaticRepository) Players(_ context.Context, year int) ([]models.Player, error) {
	if year != r.Year || len(r.Pool) == 0 {
		return nil, fmt.Errorf("no player pool for year %d: %w", year, ErrNotFound)
	}
	return r.Pool, nil
}

func (r *StaticRepository) Teams(_ context.Context, year int) ([]string, error) {
	if year != r.Year || len(r.Order) == 0 {
		return nil, fmt.Errorf("no base order for year %d: %w", year, ErrNotFound)
	}
	return sortedTeams(r.Order), nil
}

func sortedTeams(order map[string][]SlotSeed) []string {
	teams := make([]string, 0, len(order))
	for team := range order {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams
}
