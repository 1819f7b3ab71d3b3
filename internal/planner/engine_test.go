package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/zoneplan/internal/algo"
	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/match"
)

const bg = core.DarkGray

var (
	u, d, l, r = core.Up, core.Down, core.Left, core.Right

	// keyA has a single black corner, so each rotation is distinct.
	keyA = core.MustPattern(
		[]core.Color{core.Black, core.White},
		[]core.Color{core.White, core.White},
	)
	keyBar = core.MustPattern(
		[]core.Color{core.Black, core.Black},
		[]core.Color{core.White, core.White},
	)
	keyRed = keyA.ReplaceColor(core.Black, core.Red)
)

// fineGrid builds a 1:1 fine grid: '#' is background, anything else white.
func fineGrid(lines ...string) core.FineGrid {
	g := make(core.FineGrid, len(lines))
	for y, line := range lines {
		g[y] = make([]core.Color, len(line))
		for x, ch := range line {
			if ch == '#' {
				g[y][x] = bg
			} else {
				g[y][x] = core.White
			}
		}
	}
	return g
}

func at(role core.Role, x, y int) *Target {
	return &Target{Role: role, Region: core.Region{X1: x, Y1: y, X2: x, Y2: y}}
}

func testEngine() *Engine {
	return NewEngine(Options{
		ZoneSize:               1,
		SafetyMargin:           2,
		MinRotatorInteractions: 1,
		Match:                  match.DefaultOptions(),
	}, nil)
}

func seq(m ...core.Move) core.MoveSequence { return core.MoveSequence(m) }

func TestPlan_BudgetGuardPrefersRefill(t *testing.T) {
	// Goal is 5 moves away, refill 2, budget 3.
	s := &State{
		Fine:       fineGrid("........"),
		Background: bg,
		Agent:      core.Point{X: 2, Y: 0},
		Budget:     3,
		Observed:   keyA,
		Goals:      []Target{*at(core.RoleGoal, 7, 0)},
		Expected:   []core.Pattern{keyA},
		Refill:     at(core.RoleRefill, 0, 0),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)

	assert.Equal(t, BranchAligned, p.Branch)
	assert.True(t, p.BudgetGuarded)
	assert.Empty(t, cmp.Diff(seq(l, l), p.Moves))
	require.NotNil(t, p.Target)
	assert.Equal(t, core.RoleRefill, p.Target.Role)
	assert.False(t, p.Stalled)
}

func TestPlan_BudgetGuardWithoutRefill(t *testing.T) {
	s := &State{
		Fine:       fineGrid("........"),
		Background: bg,
		Agent:      core.Point{X: 2, Y: 0},
		Budget:     3,
		Observed:   keyA,
		Goals:      []Target{*at(core.RoleGoal, 7, 0)},
		Expected:   []core.Pattern{keyA},
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.True(t, p.BudgetGuarded)
	assert.Empty(t, p.Moves)
	assert.Nil(t, p.Target)
	assert.True(t, p.Stalled)
}

func TestPlan_ColorMismatchWithoutCorrectorRecovers(t *testing.T) {
	s := &State{
		Fine:       fineGrid("...", "...", "..."),
		Background: bg,
		Agent:      core.Point{X: 1, Y: 1},
		Budget:     20,
		Observed:   keyRed,
		Goals:      []Target{*at(core.RoleGoal, 2, 2)},
		Expected:   []core.Pattern{keyA},
		Chooser:    at(core.RoleChooser, 0, 0),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)

	assert.Equal(t, BranchColorMismatch, p.Branch)
	assert.True(t, p.Recovered)
	assert.Nil(t, p.Target, "must not route to the chooser")
	assert.Equal(t, seq(l, r), p.Moves)
}

func TestPlan_ColorMismatchRoutesToCorrector(t *testing.T) {
	s := &State{
		Fine:       fineGrid("...", "...", "..."),
		Background: bg,
		Agent:      core.Point{X: 0, Y: 0},
		Budget:     20,
		Observed:   keyRed,
		Goals:      []Target{*at(core.RoleGoal, 2, 2)},
		Expected:   []core.Pattern{keyA},
		Corrector:  at(core.RoleCorrector, 2, 0),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchColorMismatch, p.Branch)
	require.NotNil(t, p.Target)
	assert.Equal(t, core.RoleCorrector, p.Target.Role)
	assert.Equal(t, seq(r, r), p.Moves)
	assert.Empty(t, p.Consumed)
}

func TestPlan_AlignedGoesToMatchingGoal(t *testing.T) {
	s := &State{
		Fine:       fineGrid("....", "....", "...."),
		Background: bg,
		Agent:      core.Point{X: 0, Y: 0},
		Budget:     20,
		Observed:   keyA,
		Goals:      []Target{*at(core.RoleGoal, 3, 0), *at(core.RoleGoal, 0, 2)},
		Expected:   []core.Pattern{keyBar, keyA},
		Rotator:    at(core.RoleRotator, 3, 2),
		Corrector:  at(core.RoleCorrector, 1, 2),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)

	assert.Equal(t, BranchAligned, p.Branch)
	assert.Equal(t, 1, p.Verdict.Index)
	require.NotNil(t, p.Target)
	assert.Equal(t, core.Region{X1: 0, Y1: 2, X2: 0, Y2: 2}, p.Target.Region)
	assert.Equal(t, seq(d, d), p.Moves)

	// Colours and orientation are already right: both selectors are spent.
	require.Len(t, p.Consumed, 2)
	assert.Equal(t, core.RoleCorrector, p.Consumed[0].Role)
	assert.Equal(t, core.RoleRotator, p.Consumed[1].Role)
	assert.Len(t, p.ConsumedRegions(), 2)
}

func TestPlan_RotationAppendsRoundTrips(t *testing.T) {
	s := &State{
		Fine:       fineGrid("......"),
		Background: bg,
		Agent:      core.Point{X: 0, Y: 0},
		Budget:     20,
		Observed:   keyA.RotateN(3),
		Goals:      []Target{*at(core.RoleGoal, 5, 0)},
		Expected:   []core.Pattern{keyA},
		Rotator:    at(core.RoleRotator, 3, 0),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)

	assert.Equal(t, BranchRotate, p.Branch)
	assert.Equal(t, 3, p.Verdict.Rotations)
	require.NotNil(t, p.Target)
	assert.Equal(t, core.RoleRotator, p.Target.Role)
	// Three moves to the rotator, then two left/right round trips there.
	if diff := cmp.Diff(seq(r, r, r, l, r, l, r), p.Moves); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_SingleRotationHasNoRoundTrips(t *testing.T) {
	s := &State{
		Fine:       fineGrid("......"),
		Background: bg,
		Agent:      core.Point{X: 0, Y: 0},
		Budget:     20,
		Observed:   keyA.Rotate(),
		Goals:      []Target{*at(core.RoleGoal, 5, 0)},
		Expected:   []core.Pattern{keyA},
		Rotator:    at(core.RoleRotator, 2, 0),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchRotate, p.Branch)
	assert.Equal(t, seq(r, r), p.Moves)
}

func TestPlan_WrongPatternGoesToChooser(t *testing.T) {
	s := &State{
		Fine:       fineGrid("....", "...."),
		Background: bg,
		Agent:      core.Point{X: 0, Y: 0},
		Budget:     20,
		Observed:   keyBar,
		Goals:      []Target{*at(core.RoleGoal, 3, 0)},
		Expected:   []core.Pattern{keyA},
		Chooser:    at(core.RoleChooser, 1, 1),
		Refill:     at(core.RoleRefill, 3, 1),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchWrongPattern, p.Branch)
	assert.False(t, p.Verdict.IsMatch)
	require.NotNil(t, p.Target)
	assert.Equal(t, core.RoleChooser, p.Target.Role)
	assert.Equal(t, seq(d, r), p.Moves)
}

func TestPlan_LowBudgetFallsBackToRefill(t *testing.T) {
	s := &State{
		Fine:       fineGrid("....."),
		Background: bg,
		Agent:      core.Point{X: 2, Y: 0},
		Budget:     3, // 3 - margin 2 < refill distance 2
		Observed:   keyBar,
		Goals:      []Target{*at(core.RoleGoal, 4, 0)},
		Expected:   []core.Pattern{keyA},
		Chooser:    at(core.RoleChooser, 3, 0),
		Refill:     at(core.RoleRefill, 0, 0),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchFallback, p.Branch)
	require.NotNil(t, p.Target)
	assert.Equal(t, core.RoleRefill, p.Target.Role)
	assert.Equal(t, seq(l, l), p.Moves)
	assert.False(t, p.BudgetGuarded)
}

func TestPlan_UndeterminedWithoutRefillStalls(t *testing.T) {
	s := &State{
		Fine:       fineGrid("..."),
		Background: bg,
		Agent:      core.Point{X: 0, Y: 0},
		Budget:     5,
		Goals:      []Target{*at(core.RoleGoal, 2, 0)},
		Expected:   []core.Pattern{keyA},
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchFallback, p.Branch)
	assert.Equal(t, match.NoMatch, p.Verdict)
	assert.True(t, p.Stalled)
	assert.NotNil(t, p.Moves)
	assert.Empty(t, p.Moves)
}

func TestPlan_UnreachableTargetRecovers(t *testing.T) {
	s := &State{
		Fine: fineGrid(
			"..#.",
			"..#.",
		),
		Background: bg,
		Agent:      core.Point{X: 1, Y: 0},
		Budget:     20,
		Observed:   keyBar,
		Goals:      []Target{*at(core.RoleGoal, 0, 1)},
		Expected:   []core.Pattern{keyA},
		Chooser:    at(core.RoleChooser, 3, 1),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchWrongPattern, p.Branch)
	assert.True(t, p.Recovered)
	assert.Nil(t, p.Target)
	assert.Equal(t, seq(l, r), p.Moves)
}

func TestPlan_StalledWhenBoxedIn(t *testing.T) {
	s := &State{
		Fine: fineGrid(
			"###",
			"#.#",
			"###",
		),
		Background: bg,
		Agent:      core.Point{X: 1, Y: 1},
		Budget:     20,
		Observed:   keyRed,
		Goals:      []Target{*at(core.RoleGoal, 1, 1)},
		Expected:   []core.Pattern{keyA},
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchColorMismatch, p.Branch)
	assert.True(t, p.Stalled)
}

func TestPlan_SameZoneArrival(t *testing.T) {
	s := &State{
		Fine:       fineGrid("...."),
		Background: bg,
		Agent:      core.Point{X: 1, Y: 0},
		Budget:     5,
		Observed:   keyA,
		Goals:      []Target{*at(core.RoleGoal, 1, 0)},
		Expected:   []core.Pattern{keyA},
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchAligned, p.Branch)
	assert.Empty(t, p.Moves)
	require.NotNil(t, p.Target)
	assert.False(t, p.Stalled, "standing in the goal needs no action")
}

func TestPlan_ZonedGrid(t *testing.T) {
	// 4×4 fine cells per zone; the wall zone's top-left sample is background.
	fine := make(core.FineGrid, 8)
	for y := range fine {
		fine[y] = make([]core.Color, 12)
		for x := range fine[y] {
			fine[y][x] = core.White
		}
	}
	fine.Fill(core.Region{X1: 4, Y1: 0, X2: 7, Y2: 3}, bg)

	e := testEngine()
	e.opts.ZoneSize = 4
	s := &State{
		Fine:       fine,
		Background: bg,
		Agent:      core.Point{X: 1, Y: 2},
		Budget:     10,
		Observed:   keyA,
		Goals:      []Target{{Role: core.RoleGoal, Region: core.Region{X1: 9, Y1: 1, X2: 10, Y2: 2}}},
		Expected:   []core.Pattern{keyA},
	}

	p, err := e.Plan(s)
	require.NoError(t, err)
	assert.Equal(t, seq(d, r, r, u), p.Moves)
	assert.Equal(t, "S#E\n...", p.Grid.String())
}

func TestPlan_Deterministic(t *testing.T) {
	s := &State{
		Fine:       fineGrid("....", ".#..", "...."),
		Background: bg,
		Agent:      core.Point{X: 0, Y: 0},
		Budget:     20,
		Observed:   keyBar,
		Goals:      []Target{*at(core.RoleGoal, 3, 2)},
		Expected:   []core.Pattern{keyA},
		Chooser:    at(core.RoleChooser, 2, 2),
	}

	e := testEngine()
	first, err := e.Plan(s)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		p, err := e.Plan(s)
		require.NoError(t, err)
		assert.Equal(t, first.Moves, p.Moves)
		assert.NotEqual(t, first.CycleID, p.CycleID)
	}
}

func TestPlan_Errors(t *testing.T) {
	s := &State{
		Fine:       fineGrid("..."),
		Background: bg,
		Agent:      core.Point{X: 5, Y: 0},
	}
	_, err := testEngine().Plan(s)
	assert.ErrorIs(t, err, ErrNoAgent)

	s.Agent = core.Point{}
	s.Goals = []Target{*at(core.RoleGoal, 1, 0)}
	_, err = testEngine().Plan(s)
	assert.Error(t, err, "goals without expected patterns")

	e := NewEngine(Options{}, nil)
	_, err = e.Plan(&State{Fine: fineGrid("...")})
	assert.ErrorIs(t, err, algo.ErrZoneSize)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 8, opts.ZoneSize)
	assert.Equal(t, 2, opts.SafetyMargin)
	assert.Equal(t, 1, opts.MinRotatorInteractions)
	assert.Equal(t, match.Cells, opts.Match.Mode)
	assert.Equal(t, match.NoPlaceholder, opts.Match.Placeholder)
	assert.True(t, opts.Match.RotationInvariant)
}

func TestPlan_StandingOnSelectorReenters(t *testing.T) {
	s := &State{
		Fine:       fineGrid("...", "..."),
		Background: bg,
		Agent:      core.Point{X: 1, Y: 1},
		Budget:     20,
		Observed:   keyA.RotateN(2),
		Goals:      []Target{*at(core.RoleGoal, 0, 0)},
		Expected:   []core.Pattern{keyA},
		Rotator:    at(core.RoleRotator, 1, 1),
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)
	assert.Equal(t, BranchRotate, p.Branch)
	require.NotNil(t, p.Target)
	assert.Equal(t, core.RoleRotator, p.Target.Role)
	assert.True(t, p.Recovered)
	// Out and back in twice: one entry per required quarter turn.
	assert.Equal(t, seq(l, r, l, r), p.Moves)
}

func TestPlan_ConsumedRegionsCoverZones(t *testing.T) {
	p := &Plan{
		ZoneSize: 8,
		Consumed: []Target{{Role: core.RoleRotator, Region: core.Region{X1: 19, Y1: 9, X2: 22, Y2: 12}}},
	}
	assert.Equal(t, []core.Region{{X1: 16, Y1: 8, X2: 23, Y2: 15}}, p.ConsumedRegions())
	assert.Nil(t, (&Plan{}).ConsumedRegions())
}

func TestPlan_ExactMatchBeatsRecolouredCandidate(t *testing.T) {
	s := &State{
		Fine:       fineGrid("....", "....", "...."),
		Background: bg,
		Agent:      core.Point{X: 0, Y: 0},
		Budget:     20,
		Observed:   keyA,
		Goals:      []Target{*at(core.RoleGoal, 3, 0), *at(core.RoleGoal, 0, 2)},
		Expected:   []core.Pattern{keyRed, keyA},
	}

	p, err := testEngine().Plan(s)
	require.NoError(t, err)

	assert.Equal(t, BranchAligned, p.Branch)
	assert.Equal(t, 1, p.Verdict.Index)
	assert.False(t, p.Recovered)
	require.NotNil(t, p.Target)
	assert.Equal(t, core.Region{X1: 0, Y1: 2, X2: 0, Y2: 2}, p.Target.Region)
	assert.Equal(t, seq(d, d), p.Moves)
}

func TestPlan_ColorInvariantOptionTreatsPlaceholderAsWildcard(t *testing.T) {
	// The expected key has a gray placeholder where the observed key is white.
	expected := core.MustPattern(
		[]core.Color{core.Black, core.Gray},
		[]core.Color{core.White, core.White},
	)
	state := func() *State {
		return &State{
			Fine:       fineGrid("....", "...."),
			Background: bg,
			Agent:      core.Point{X: 0, Y: 0},
			Budget:     20,
			Observed:   keyA,
			Goals:      []Target{*at(core.RoleGoal, 3, 0)},
			Expected:   []core.Pattern{expected},
			Chooser:    at(core.RoleChooser, 0, 1),
		}
	}
	engine := func(colorInvariant bool) *Engine {
		opts := testEngine().Options()
		opts.Match.Placeholder = core.Gray
		opts.Match.ColorInvariant = colorInvariant
		return NewEngine(opts, nil)
	}

	p, err := engine(true).Plan(state())
	require.NoError(t, err)
	assert.Equal(t, BranchAligned, p.Branch)
	assert.Equal(t, seq(r, r, r), p.Moves)

	p, err = engine(false).Plan(state())
	require.NoError(t, err)
	assert.Equal(t, BranchWrongPattern, p.Branch)
	require.NotNil(t, p.Target)
	assert.Equal(t, core.RoleChooser, p.Target.Role)
	assert.Equal(t, seq(d), p.Moves)
}
