// Command zoneplan plans the next moves for one game snapshot and sends
// them after confirmation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"

	"github.com/elektrokombinacija/zoneplan/internal/config"
	"github.com/elektrokombinacija/zoneplan/internal/dispatch"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
	"github.com/elektrokombinacija/zoneplan/internal/scene"
	"github.com/elektrokombinacija/zoneplan/internal/sim"
)

// errStalled is reported when the planner has nothing to send.
var errStalled = errors.New("planner stalled: no moves")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errStalled), errors.Is(err, dispatch.ErrDeclined):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		slog.Error("zoneplan failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	snapshot   string
	configPath string
	logLevel   string
	yes        bool
	dryRun     bool
	seed       int64
	metricsOut string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("zoneplan", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.snapshot, "snapshot", "", "snapshot JSON file to plan")
	fs.StringVar(&o.configPath, "config", config.DefaultConfigPath, "config JSON file")
	fs.StringVar(&o.logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	fs.BoolVar(&o.yes, "yes", false, "send moves without asking")
	fs.BoolVar(&o.dryRun, "dry-run", false, "play a generated level in the simulator instead of the game")
	fs.Int64Var(&o.seed, "seed", 42, "level seed for -dry-run")
	fs.StringVar(&o.metricsOut, "metrics", "", "write -dry-run metrics to this JSON file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !o.dryRun && o.snapshot == "" {
		fs.Usage()
		return nil, errors.New("-snapshot is required unless -dry-run is set")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if o.dryRun {
		return dryRun(ctx, o, cfg, stdout, logger)
	}
	return planAndSend(ctx, o, cfg, stdin, stdout, logger)
}

// loadConfig reads path, falling back to the defaults when the default
// path does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == config.DefaultConfigPath {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

func planAndSend(ctx context.Context, o *options, cfg *config.Config, stdin *os.File, stdout io.Writer, logger *slog.Logger) error {
	snap, err := scene.LoadSnapshot(o.snapshot)
	if err != nil {
		return err
	}
	builder, err := scene.NewBuilder(cfg)
	if err != nil {
		return err
	}
	state, err := builder.Build(snap)
	if err != nil {
		return err
	}

	engine := planner.NewEngine(planner.OptionsFromConfig(cfg), logger)
	plan, err := engine.Plan(state)
	if err != nil {
		return err
	}

	style, err := dispatch.ParseActionStyle(cfg.Dispatch.ActionStyle)
	if err != nil {
		return err
	}
	if plan.Stalled {
		fmt.Fprintln(stdout, dispatch.Preview(plan, style))
		return errStalled
	}

	var gate dispatch.Gate = dispatch.NewTerminalGate(stdin, stdout, style)
	if o.yes || cfg.Dispatch.AutoApprove {
		fmt.Fprintln(stdout, dispatch.Preview(plan, style))
		gate = dispatch.AutoGate{}
	}

	exec := dispatch.NewHTTPExecutor(cfg.Dispatch.BaseURL, style, cfg.DispatchTimeout())
	exec.Logger = logger

	sent, err := dispatch.Run(ctx, gate, exec, plan)
	logger.Info("dispatch finished", "cycle", plan.CycleID, "sent", sent, "planned", len(plan.Moves))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "sent %d moves\n", sent)
	return nil
}

func dryRun(ctx context.Context, o *options, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	level, err := sim.RandomLevel(rand.New(rand.NewSource(o.seed)), sim.DefaultGeneratorConfig())
	if err != nil {
		return err
	}
	style, err := dispatch.ParseActionStyle(cfg.Dispatch.ActionStyle)
	if err != nil {
		return err
	}

	simCfg := sim.DefaultConfig(level)
	simCfg.Planner = cfg
	simCfg.Logger = logger
	simCfg.OnPlan = func(p *planner.Plan) {
		fmt.Fprintln(stdout, dispatch.Preview(p, style))
		fmt.Fprintln(stdout)
	}

	s, err := sim.NewSimulator(simCfg)
	if err != nil {
		return err
	}
	m, err := s.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s after %d cycles, %d moves, %d/%d locks opened\n",
		m.Outcome, m.Cycles, m.MovesSent, m.LocksOpened, len(level.Locks))

	if o.metricsOut != "" {
		if err := s.ExportMetrics(o.metricsOut); err != nil {
			return err
		}
	}
	if m.Outcome == sim.OutcomeStalled {
		return errStalled
	}
	return nil
}
