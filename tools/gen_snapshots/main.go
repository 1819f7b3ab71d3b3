// Package main generates deterministic levels and their rendered snapshots
// for planner benchmarks.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/elektrokombinacija/zoneplan/internal/scene"
	"github.com/elektrokombinacija/zoneplan/internal/sim"
)

// suiteSizes are the field sizes used by -scaling.
var suiteSizes = [][2]int{{4, 6}, {6, 8}, {8, 12}, {12, 16}, {16, 24}}

func levelName(cfg sim.GeneratorConfig, seed int64) string {
	return fmt.Sprintf("zoneplan_%dx%d_%dlocks_%d", cfg.Rows, cfg.Cols, cfg.Locks, seed)
}

// generate writes <name>.level.json and <name>.json into dir.
func generate(dir string, cfg sim.GeneratorConfig, seed int64) (string, error) {
	level, err := sim.RandomLevel(rand.New(rand.NewSource(seed)), cfg)
	if err != nil {
		return "", err
	}
	world, err := sim.NewWorld(level, nil)
	if err != nil {
		return "", err
	}

	name := levelName(cfg, seed)
	if err := sim.WriteLevel(filepath.Join(dir, name+".level.json"), level); err != nil {
		return "", err
	}
	if err := scene.WriteSnapshot(filepath.Join(dir, name+".json"), world.Snapshot()); err != nil {
		return "", err
	}
	return name, nil
}

func main() {
	seed := flag.Int64("seed", 42, "Random seed of the first level")
	count := flag.Int("n", 1, "Levels per field size (seeds seed, seed+1, ...)")
	rows := flag.Int("rows", 6, "Field rows in zones")
	cols := flag.Int("cols", 8, "Field columns in zones")
	locks := flag.Int("locks", 2, "Locks per level")
	budget := flag.Int("budget", 24, "Starting move budget")
	walls := flag.Float64("walls", 0.15, "Wall density (0-1)")
	noRotator := flag.Bool("no-rotator", false, "Leave out the rotator")
	noChooser := flag.Bool("no-chooser", false, "Leave out the chooser")
	noRefill := flag.Bool("no-refill", false, "Leave out the refill")
	rightInk := flag.Bool("right-ink", false, "Start with the correct key ink and no corrector")
	outputDir := flag.String("output", "testdata", "Output directory")
	scalingMode := flag.Bool("scaling", false, "Generate one suite over growing field sizes")

	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	base := sim.DefaultGeneratorConfig()
	base.Locks = *locks
	base.Budget = *budget
	base.WallDensity = *walls
	base.WithRotator = !*noRotator
	base.WithChooser = !*noChooser
	base.WithRefill = !*noRefill
	base.WrongColor = !*rightInk

	var configs []sim.GeneratorConfig
	if *scalingMode {
		for _, size := range suiteSizes {
			cfg := base
			cfg.Rows, cfg.Cols = size[0], size[1]
			// Larger fields get proportionally more budget.
			cfg.Budget = base.Budget * size[0] * size[1] / 48
			if cfg.Budget < base.Budget {
				cfg.Budget = base.Budget
			}
			configs = append(configs, cfg)
		}
	} else {
		cfg := base
		cfg.Rows, cfg.Cols = *rows, *cols
		configs = append(configs, cfg)
	}

	failed := 0
	for _, cfg := range configs {
		for i := 0; i < *count; i++ {
			s := *seed + int64(i)
			name, err := generate(*outputDir, cfg, s)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error generating %dx%d seed %d: %v\n", cfg.Rows, cfg.Cols, s, err)
				failed++
				continue
			}
			fmt.Printf("Generated: %s (%dx%d zones, %d locks, budget %d)\n",
				name, cfg.Rows, cfg.Cols, cfg.Locks, cfg.Budget)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
