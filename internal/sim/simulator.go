// Package sim runs planning episodes against an in-process world.
//
// Each cycle renders a snapshot, builds the planning state, plans, and
// dispatches the moves to the world, the same loop the CLI runs against the
// live game.
package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elektrokombinacija/zoneplan/internal/config"
	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/dispatch"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
	"github.com/elektrokombinacija/zoneplan/internal/scene"
)

// SimulationConfig configures one episode.
type SimulationConfig struct {
	Level  *Level
	Shapes []Mask // nil means DefaultShapes

	// Planner is the zoneplan config; its zone size must equal ZoneSize.
	Planner *config.Config

	// MaxCycles bounds the episode.
	MaxCycles int

	// OnPlan, when set, sees every plan before it is dispatched.
	OnPlan func(*planner.Plan)

	Logger *slog.Logger
}

// DefaultConfig returns a config for l with the default planner settings.
func DefaultConfig(l *Level) SimulationConfig {
	return SimulationConfig{
		Level:     l,
		Planner:   config.DefaultConfig(),
		MaxCycles: 64,
	}
}

// Outcome is how an episode ended.
type Outcome string

const (
	OutcomeSolved    Outcome = "solved"
	OutcomeStalled   Outcome = "stalled"
	OutcomeExhausted Outcome = "exhausted" // out of budget
	OutcomeCycles    Outcome = "max-cycles"
	OutcomeCancelled Outcome = "cancelled"
)

// SimulationMetrics collects metrics during an episode.
type SimulationMetrics struct {
	RunID     uuid.UUID `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Planning
	Cycles              int            `json:"cycles"`
	TotalPlanningTimeMs float64        `json:"total_planning_time_ms"`
	Branches            map[string]int `json:"branches"`
	Recoveries          int            `json:"recoveries"`
	BudgetGuards        int            `json:"budget_guards"`
	Stalls              int            `json:"stalls"`

	// World
	MovesSent   int  `json:"moves_sent"`
	Bumps       int  `json:"bumps"`
	Refills     int  `json:"refills"`
	LocksOpened int  `json:"locks_opened"`
	Solved      bool `json:"solved"`

	Outcome Outcome `json:"outcome"`
}

// Simulator runs the plan/dispatch loop against a World.
type Simulator struct {
	mu sync.Mutex

	config  SimulationConfig
	world   *World
	builder *scene.Builder
	engine  *planner.Engine
	logger  *slog.Logger

	// consumed holds the previous cycle's self-blocking hints.
	consumed []core.Region

	metrics SimulationMetrics
}

// NewSimulator creates a simulator at the level's initial state.
func NewSimulator(cfg SimulationConfig) (*Simulator, error) {
	if cfg.Level == nil {
		return nil, errors.New("simulation needs a level")
	}
	if cfg.Planner == nil {
		cfg.Planner = config.DefaultConfig()
	}
	if cfg.Planner.ZoneSize != ZoneSize {
		return nil, fmt.Errorf("planner zone size %d does not match world zone size %d", cfg.Planner.ZoneSize, ZoneSize)
	}
	if cfg.MaxCycles <= 0 {
		return nil, fmt.Errorf("max cycles must be positive, got %d", cfg.MaxCycles)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	world, err := NewWorld(cfg.Level, cfg.Shapes)
	if err != nil {
		return nil, err
	}
	builder, err := scene.NewBuilder(cfg.Planner)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		config:  cfg,
		world:   world,
		builder: builder,
		engine:  planner.NewEngine(planner.OptionsFromConfig(cfg.Planner), logger),
		logger:  logger,
		metrics: SimulationMetrics{RunID: uuid.New(), Branches: make(map[string]int)},
	}, nil
}

// World returns the simulated world.
func (s *Simulator) World() *World { return s.world }

// Run plays cycles until the level is solved, the planner stalls, the
// budget runs out, MaxCycles is reached or ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) (*SimulationMetrics, error) {
	s.mu.Lock()
	s.metrics.StartTime = time.Now()
	s.mu.Unlock()

	outcome, err := s.loop(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.world.State()
	s.metrics.EndTime = time.Now()
	s.metrics.MovesSent = st.Moves
	s.metrics.Bumps = st.Bumps
	s.metrics.Refills = st.Refills
	s.metrics.LocksOpened = st.Opened
	s.metrics.Solved = st.Solved
	s.metrics.Outcome = outcome
	if err != nil {
		return nil, err
	}

	s.logger.Info("episode finished",
		"run", s.metrics.RunID,
		"outcome", outcome,
		"cycles", s.metrics.Cycles,
		"moves", st.Moves,
		"opened", st.Opened)
	m := s.metrics
	return &m, nil
}

func (s *Simulator) loop(ctx context.Context) (Outcome, error) {
	for cycle := 0; cycle < s.config.MaxCycles; cycle++ {
		if ctx.Err() != nil {
			return OutcomeCancelled, nil
		}
		if s.world.State().Solved {
			return OutcomeSolved, nil
		}

		plan, err := s.plan()
		if err != nil {
			return "", fmt.Errorf("cycle %d: %w", cycle, err)
		}
		if s.config.OnPlan != nil {
			s.config.OnPlan(plan)
		}
		// An empty plan leaves the world as it is, so the next cycle would
		// plan the same thing again.
		if plan.Stalled || len(plan.Moves) == 0 {
			return OutcomeStalled, nil
		}

		_, err = dispatch.Run(ctx, dispatch.AutoGate{}, s.world, plan)
		switch {
		case err == nil:
		case errors.Is(err, ErrSolved):
			return OutcomeSolved, nil
		case errors.Is(err, ErrOutOfBudget):
			return OutcomeExhausted, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return OutcomeCancelled, nil
		default:
			return "", fmt.Errorf("cycle %d: %w", cycle, err)
		}
	}
	if s.world.State().Solved {
		return OutcomeSolved, nil
	}
	return OutcomeCycles, nil
}

// plan runs one planning cycle on the current frame.
func (s *Simulator) plan() (*planner.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.world.Snapshot()
	scene.ApplyConsumed(snap.Grid, s.builder.Background(snap), s.consumed)

	start := time.Now()
	state, err := s.builder.Build(snap)
	if err != nil {
		return nil, err
	}
	plan, err := s.engine.Plan(state)
	if err != nil {
		return nil, err
	}
	s.metrics.TotalPlanningTimeMs += float64(time.Since(start).Microseconds()) / 1000

	s.metrics.Cycles++
	s.metrics.Branches[plan.Branch.String()]++
	if plan.Recovered {
		s.metrics.Recoveries++
	}
	if plan.BudgetGuarded {
		s.metrics.BudgetGuards++
	}
	if plan.Stalled {
		s.metrics.Stalls++
	}
	s.consumed = plan.ConsumedRegions()
	return plan, nil
}

// Metrics returns a copy of the current metrics.
func (s *Simulator) Metrics() SimulationMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.metrics
	m.Branches = make(map[string]int, len(s.metrics.Branches))
	for k, v := range s.metrics.Branches {
		m.Branches[k] = v
	}
	return m
}

// ExportMetrics writes the metrics to a JSON file.
func (s *Simulator) ExportMetrics(filename string) error {
	data, err := json.MarshalIndent(s.Metrics(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// SimulationResult wraps a finished episode.
type SimulationResult struct {
	Config  SimulationConfig
	Metrics *SimulationMetrics
	Final   WorldState
}

// RunSimulation is a convenience wrapper for one episode.
func RunSimulation(ctx context.Context, cfg SimulationConfig) (*SimulationResult, error) {
	sim, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	metrics, err := sim.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &SimulationResult{Config: cfg, Metrics: metrics, Final: sim.world.State()}, nil
}
