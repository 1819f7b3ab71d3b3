package sim

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/zoneplan/internal/config"
	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
	"github.com/elektrokombinacija/zoneplan/internal/scene"
)

func cell(r, c int) *core.Cell { return &core.Cell{Row: r, Col: c} }

// corridor is a 1x4 field: agent, rotator, floor, lock.
func corridor() *Level {
	return &Level{
		Rows:     1,
		Cols:     4,
		Agent:    core.Cell{Row: 0, Col: 0},
		Rotator:  cell(0, 1),
		Locks:    []Lock{{Zone: core.Cell{Row: 0, Col: 3}, Shape: 0}},
		KeyShape: 0,
		KeyTurns: 1,
		KeyInk:   KeyInkCorrect,
		Budget:   20,
	}
}

func TestWorld_EntryEffects(t *testing.T) {
	l := &Level{
		Rows:      1,
		Cols:      5,
		Agent:     core.Cell{Row: 0, Col: 0},
		Chooser:   cell(0, 1),
		Rotator:   cell(0, 2),
		Corrector: cell(0, 3),
		Refill:    cell(0, 4),
		Locks:     []Lock{{Zone: core.Cell{Row: 0, Col: 0}, Shape: 3}},
		KeyShape:  3,
		KeyTurns:  1,
		KeyInk:    KeyInkWrong,
		Budget:    6,
	}
	w, err := NewWorld(l, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, w.Execute(ctx, core.Right))
	st := w.State()
	assert.Equal(t, 0, st.Shape, "chooser wraps to the first shape")
	assert.Equal(t, 5, st.Budget)

	require.NoError(t, w.Execute(ctx, core.Right))
	assert.Equal(t, 0, w.State().Turns, "rotator undoes one clockwise turn")

	require.NoError(t, w.Execute(ctx, core.Right))
	assert.Equal(t, KeyInkCorrect, w.State().Ink)

	require.NoError(t, w.Execute(ctx, core.Right))
	st = w.State()
	assert.Equal(t, 6, st.Budget, "refill restores the full budget")
	assert.Equal(t, 1, st.Refills)
	assert.Equal(t, 4, st.Moves)
}

func TestWorld_RotatorTurnsCounterClockwise(t *testing.T) {
	l := corridor()
	l.KeyTurns = 0
	w, err := NewWorld(l, nil)
	require.NoError(t, err)

	require.NoError(t, w.Execute(context.Background(), core.Right))
	assert.Equal(t, 3, w.State().Turns)
}

func TestWorld_BumpsCostBudget(t *testing.T) {
	l := corridor()
	l.Walls = []core.Cell{{Row: 0, Col: 2}}
	l.Budget = 2
	w, err := NewWorld(l, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, w.Execute(ctx, core.Up))
	require.NoError(t, w.Execute(ctx, core.Left))
	st := w.State()
	assert.Equal(t, core.Cell{Row: 0, Col: 0}, st.Agent)
	assert.Equal(t, 2, st.Bumps)
	assert.Equal(t, 0, st.Budget)

	assert.ErrorIs(t, w.Execute(ctx, core.Right), ErrOutOfBudget)
}

func TestWorld_LockNeedsMatchingKey(t *testing.T) {
	l := corridor()
	l.Rotator = nil
	w, err := NewWorld(l, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Execute(ctx, core.Right))
	}
	assert.False(t, w.State().Solved, "key is still turned")

	l.KeyTurns = 0
	w, err = NewWorld(l, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Execute(ctx, core.Right))
	}
	assert.True(t, w.State().Solved)
	assert.ErrorIs(t, w.Execute(ctx, core.Left), ErrSolved)
}

func TestWorld_ExecuteHonoursContext(t *testing.T) {
	w, err := NewWorld(corridor(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, w.Execute(ctx, core.Right), context.Canceled)
	assert.Equal(t, 0, w.State().Moves)
}

func TestWorld_SnapshotBuildsPlanningState(t *testing.T) {
	w, err := NewWorld(corridor(), nil)
	require.NoError(t, err)
	snap := w.Snapshot()
	require.NoError(t, snap.Validate())

	b, err := scene.NewBuilder(config.DefaultConfig())
	require.NoError(t, err)
	s, err := b.Build(snap)
	require.NoError(t, err)

	assert.Equal(t, core.Cell{Row: 0, Col: 0}, s.Agent.Zone(ZoneSize))
	assert.Equal(t, 20, s.Budget, "one marker per budget unit")
	require.Len(t, s.Goals, 1)
	assert.Equal(t, core.Cell{Row: 0, Col: 3}, s.Goals[0].Anchor().Zone(ZoneSize))
	require.NotNil(t, s.Rotator)
	assert.Equal(t, core.Cell{Row: 0, Col: 1}, s.Rotator.Anchor().Zone(ZoneSize))
	assert.Nil(t, s.Chooser)
	assert.Nil(t, s.Refill)

	require.Equal(t, 9, s.Observed.Size())
	assert.True(t, s.Expected[0].RotateN(1).Equal(s.Observed),
		"observed key is the lock glyph turned once: %v vs %v", s.Observed, s.Expected[0])
}

func TestWorld_SnapshotHidesOpenedLocks(t *testing.T) {
	l := corridor()
	l.Rotator = nil
	l.KeyTurns = 0
	l.Locks = append(l.Locks, Lock{Zone: core.Cell{Row: 0, Col: 1}, Shape: 2})
	w, err := NewWorld(l, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Execute(context.Background(), core.Right))
	}
	st := w.State()
	assert.Equal(t, 1, st.Opened)
	assert.False(t, st.Solved)

	goals := 0
	for _, o := range w.Snapshot().Objects {
		if o.HasColor(LockInk) {
			goals++
		}
	}
	assert.Equal(t, 1, goals)
}

func TestSimulator_RotateThenOpen(t *testing.T) {
	res, err := RunSimulation(context.Background(), DefaultConfig(corridor()))
	require.NoError(t, err)

	m := res.Metrics
	assert.Equal(t, OutcomeSolved, m.Outcome)
	assert.True(t, m.Solved)
	assert.Equal(t, 2, m.Cycles)
	assert.Equal(t, 3, m.MovesSent)
	assert.Equal(t, 1, m.LocksOpened)
	if diff := cmp.Diff(map[string]int{"rotate": 1, "aligned": 1}, m.Branches); diff != "" {
		t.Errorf("branches mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 17, res.Final.Budget)
}

func TestSimulator_CorrectsColourFirst(t *testing.T) {
	l := &Level{
		Rows:      1,
		Cols:      3,
		Agent:     core.Cell{Row: 0, Col: 0},
		Corrector: cell(0, 1),
		Locks:     []Lock{{Zone: core.Cell{Row: 0, Col: 2}, Shape: 1}},
		KeyShape:  1,
		KeyInk:    KeyInkWrong,
		Budget:    10,
	}
	res, err := RunSimulation(context.Background(), DefaultConfig(l))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSolved, res.Metrics.Outcome)
	assert.Equal(t, 2, res.Metrics.MovesSent)
	assert.Equal(t, map[string]int{"color-mismatch": 1, "aligned": 1}, res.Metrics.Branches)
}

func TestSimulator_StallsWhenWalledIn(t *testing.T) {
	l := corridor()
	l.Rotator = nil
	l.KeyTurns = 0
	l.Walls = []core.Cell{{Row: 0, Col: 1}}
	res, err := RunSimulation(context.Background(), DefaultConfig(l))
	require.NoError(t, err)

	assert.Equal(t, OutcomeStalled, res.Metrics.Outcome)
	assert.Equal(t, 1, res.Metrics.Cycles)
	assert.Equal(t, 1, res.Metrics.Stalls)
	assert.Equal(t, 1, res.Metrics.Recoveries)
	assert.Equal(t, 0, res.Metrics.MovesSent)
}

func TestSimulator_BudgetGuardStalls(t *testing.T) {
	l := corridor()
	l.Rotator = nil
	l.KeyTurns = 0
	l.Budget = 2
	res, err := RunSimulation(context.Background(), DefaultConfig(l))
	require.NoError(t, err)

	assert.Equal(t, OutcomeStalled, res.Metrics.Outcome)
	assert.Equal(t, 1, res.Metrics.BudgetGuards)
	assert.Equal(t, 2, res.Final.Budget)
}

func TestSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := RunSimulation(ctx, DefaultConfig(corridor()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, res.Metrics.Outcome)
	assert.Equal(t, 0, res.Metrics.Cycles)
}

func TestSimulator_MaxCycles(t *testing.T) {
	cfg := DefaultConfig(corridor())
	cfg.MaxCycles = 1
	res, err := RunSimulation(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCycles, res.Metrics.Outcome)
	assert.Equal(t, 0, res.Final.Turns)
}

func TestNewSimulator_Errors(t *testing.T) {
	_, err := NewSimulator(SimulationConfig{MaxCycles: 1})
	assert.Error(t, err)

	cfg := DefaultConfig(corridor())
	cfg.Planner.ZoneSize = 4
	_, err = NewSimulator(cfg)
	assert.ErrorContains(t, err, "zone size")

	cfg = DefaultConfig(corridor())
	cfg.MaxCycles = 0
	_, err = NewSimulator(cfg)
	assert.Error(t, err)

	bad := corridor()
	bad.Walls = []core.Cell{bad.Agent}
	_, err = NewSimulator(DefaultConfig(bad))
	assert.ErrorIs(t, err, errLevel)
}

func TestSimulator_ExportMetrics(t *testing.T) {
	s, err := NewSimulator(DefaultConfig(corridor()))
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, s.ExportMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got SimulationMetrics
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s.Metrics().RunID, got.RunID)
	assert.Equal(t, OutcomeSolved, got.Outcome)
}

func TestLevel_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Level)
	}{
		{"empty field", func(l *Level) { l.Rows = 0 }},
		{"narrow field", func(l *Level) { l.Cols = 2; l.Locks[0].Zone.Col = 1; l.Rotator = nil }},
		{"no budget", func(l *Level) { l.Budget = 0 }},
		{"no locks", func(l *Level) { l.Locks = nil }},
		{"agent outside", func(l *Level) { l.Agent = core.Cell{Row: 3, Col: 0} }},
		{"lock shape", func(l *Level) { l.Locks[0].Shape = 9 }},
		{"rotator on wall", func(l *Level) { l.Walls = []core.Cell{*l.Rotator} }},
		{"key shape", func(l *Level) { l.KeyShape = -1 }},
		{"key ink", func(l *Level) { l.KeyInk = 16 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := corridor()
			tt.mutate(l)
			assert.ErrorIs(t, l.Validate(len(DefaultShapes())), errLevel)
		})
	}
	assert.NoError(t, corridor().Validate(len(DefaultShapes())))
}

func TestRandomLevel(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	a, err := RandomLevel(rand.New(rand.NewSource(7)), cfg)
	require.NoError(t, err)
	b, err := RandomLevel(rand.New(rand.NewSource(7)), cfg)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed gave different levels (-a +b):\n%s", diff)
	}

	require.NoError(t, a.Validate(cfg.Shapes))
	assert.Len(t, a.Locks, cfg.Locks)
	assert.NotNil(t, a.Chooser)
	assert.NotNil(t, a.Rotator)
	assert.NotNil(t, a.Refill)
	assert.Equal(t, KeyInkWrong, a.KeyInk)

	items := []core.Cell{*a.Chooser, *a.Rotator, *a.Corrector, *a.Refill}
	for _, lk := range a.Locks {
		items = append(items, lk.Zone)
	}
	assert.True(t, connected(a, items))
}

func TestRandomLevel_TooManyItems(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Rows, cfg.Cols = 1, 3
	_, err := RandomLevel(rand.New(rand.NewSource(1)), cfg)
	assert.ErrorIs(t, err, errLevel)
}

func TestRandomLevel_EpisodesTerminate(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 5; i++ {
		l, err := RandomLevel(rng, DefaultGeneratorConfig())
		require.NoError(t, err)
		res, err := RunSimulation(context.Background(), DefaultConfig(l))
		require.NoError(t, err)
		assert.Contains(t, []Outcome{OutcomeSolved, OutcomeStalled, OutcomeExhausted, OutcomeCycles}, res.Metrics.Outcome)
		assert.LessOrEqual(t, res.Metrics.Cycles, 64)
	}
}

func TestSimulator_OnPlanSeesEveryCycle(t *testing.T) {
	cfg := DefaultConfig(corridor())
	var branches []string
	cfg.OnPlan = func(p *planner.Plan) { branches = append(branches, p.Branch.String()) }

	_, err := RunSimulation(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"rotate", "aligned"}, branches)
}

func TestLevelFile(t *testing.T) {
	l, err := RandomLevel(rand.New(rand.NewSource(9)), DefaultGeneratorConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, WriteLevel(path, l))
	got, err := LoadLevel(path)
	require.NoError(t, err)
	if diff := cmp.Diff(l, got); diff != "" {
		t.Errorf("LoadLevel mismatch (-want +got):\n%s", diff)
	}

	bad := corridor()
	bad.Budget = -1
	require.NoError(t, WriteLevel(path, bad))
	_, err = LoadLevel(path)
	assert.ErrorIs(t, err, errLevel)
}

func TestLevel_Connected(t *testing.T) {
	l := corridor()
	lock := l.Locks[0].Zone
	assert.True(t, connected(l, []core.Cell{lock}))

	l.Walls = []core.Cell{{Row: 0, Col: 2}}
	assert.False(t, connected(l, []core.Cell{lock}))
	assert.True(t, connected(l, []core.Cell{*l.Rotator}))

	g := l.Grid()
	start, ok := g.Start()
	require.True(t, ok)
	assert.Equal(t, l.Agent, start)
	assert.False(t, g.Passable(core.Cell{Row: 0, Col: 2}))
}
