package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/draftday/mockdraft/internal/dbconfig"
)

// yearSeed mirrors the seed YAML layout.
type yearSeed struct {
	Order map[string][]struct {
		Overall int `yaml:"overall"`
		Round   int `yaml:"round"`
		Pick    int `yaml:"pick"`
	} `yaml:"order"`
}

func main() {
	year := flag.Int("year", 0, "draft year to seed")
	path := flag.String("file", "", "path to seed YAML (defaults to seeds/seed_<year>.yaml)")
	flag.Parse()

	if *year == 0 {
		fmt.Fprintln(os.Stderr, "-year is required")
		os.Exit(1)
	}
	if *path == "" {
		*path = fmt.Sprintf("seeds/seed_%d.yaml", *year)
	}

	// 1) Load the YAML seed
	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read YAML: %v\n", err)
		os.Exit(1)
	}
	var seed yearSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal YAML: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.FromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.URL())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total    int
		inserted int
		skipped  int
		errs     int
	)

	for team, slots := range seed.Order {
		for _, slot := range slots {
			total++
			cmdTag, err := pool.Exec(context.Background(), `
                INSERT INTO seed_order (year, overall, round, pick, team)
                VALUES ($1, $2, $3, $4, $5)
                ON CONFLICT (year, overall) DO NOTHING
            `,
				*year, slot.Overall, slot.Round, slot.Pick, team,
			)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error inserting slot %d: %v\n", slot.Overall, err)
				errs++
				continue
			}
			if cmdTag.RowsAffected() == 1 {
				inserted++
			} else {
				skipped++
			}
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Order seed complete for %d: %d total, %d inserted, %d skipped, %d errors\n",
		*year, total, inserted, skipped, errs,
	)
}
