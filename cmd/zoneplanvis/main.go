// Command zoneplanvis shows planned routes in a window.
//
// With -snapshot it plans that one frame; otherwise it plays a generated
// level in the simulator and records every cycle.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"os"

	"gioui.org/app"
	"gioui.org/unit"

	"github.com/elektrokombinacija/zoneplan/internal/config"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
	"github.com/elektrokombinacija/zoneplan/internal/scene"
	"github.com/elektrokombinacija/zoneplan/internal/sim"
	"github.com/elektrokombinacija/zoneplan/internal/vis"
)

func main() {
	snapshot := flag.String("snapshot", "", "snapshot JSON file to plan")
	configPath := flag.String("config", config.DefaultConfigPath, "config JSON file")
	seed := flag.Int64("seed", 42, "level seed when no snapshot is given")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) && *configPath == config.DefaultConfigPath {
		cfg, err = config.DefaultConfig(), nil
	}
	if err != nil {
		log.Fatal(err)
	}

	var cycles []*planner.Plan
	if *snapshot != "" {
		cycles, err = planSnapshot(*snapshot, cfg)
	} else {
		cycles, err = recordEpisode(*seed, cfg)
	}
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		window := new(app.Window)
		window.Option(
			app.Title("zoneplan"),
			app.Size(unit.Dp(1200), unit.Dp(800)),
		)

		application := vis.NewApp(cycles)
		if err := application.Run(window); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func planSnapshot(path string, cfg *config.Config) ([]*planner.Plan, error) {
	snap, err := scene.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	builder, err := scene.NewBuilder(cfg)
	if err != nil {
		return nil, err
	}
	state, err := builder.Build(snap)
	if err != nil {
		return nil, err
	}
	plan, err := planner.NewEngine(planner.OptionsFromConfig(cfg), nil).Plan(state)
	if err != nil {
		return nil, err
	}
	return []*planner.Plan{plan}, nil
}

func recordEpisode(seed int64, cfg *config.Config) ([]*planner.Plan, error) {
	level, err := sim.RandomLevel(rand.New(rand.NewSource(seed)), sim.DefaultGeneratorConfig())
	if err != nil {
		return nil, err
	}
	var cycles []*planner.Plan
	simCfg := sim.DefaultConfig(level)
	simCfg.Planner = cfg
	simCfg.OnPlan = func(p *planner.Plan) { cycles = append(cycles, p) }

	res, err := sim.RunSimulation(context.Background(), simCfg)
	if err != nil {
		return nil, err
	}
	log.Printf("episode %s: %s after %d cycles", res.Metrics.RunID, res.Metrics.Outcome, res.Metrics.Cycles)
	return cycles, nil
}
