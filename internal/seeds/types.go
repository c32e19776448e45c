package seeds

import "errors"

// ErrNotFound is returned when no seed data exists for the requested year.
var ErrNotFound = errors.New("seed data not found")

// SlotSeed is one base draft slot owned by a team in a year's order table.
type SlotSeed struct {
	Overall int `yaml:"overall" json:"overall"`
	Round   int `yaml:"round" json:"round"`
	Pick    int `yaml:"pick" json:"pick"`
}

// FutureOverride reassigns a future pick away from its original team,
// e.g. the result of an offseason trade that predates the mock draft.
type FutureOverride struct {
	Year         int    `yaml:"year" json:"year"`
	Round        int    `yaml:"round" json:"round"`
	OriginalTeam string `yaml:"original_team" json:"original_team"`
	OwnerTeam    string `yaml:"owner_team" json:"owner_team"`
}
