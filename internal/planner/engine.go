package planner

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/elektrokombinacija/zoneplan/internal/algo"
	"github.com/elektrokombinacija/zoneplan/internal/config"
	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/match"
)

// Options tunes the engine.
type Options struct {
	ZoneSize int
	// SafetyMargin is subtracted from the budget before comparing it with
	// the refill distance.
	SafetyMargin int
	// MinRotatorInteractions is how many rotations a single arrival at the
	// rotator accounts for; extra rotations are spent as round trips there.
	MinRotatorInteractions int
	Match                  match.Options
}

// DefaultOptions returns the options of config.DefaultConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

// OptionsFromConfig extracts engine options from a loaded config.
func OptionsFromConfig(cfg *config.Config) Options {
	mode := match.Cells
	if cfg.Match.Mode == "corners" {
		mode = match.Corners
	}
	return Options{
		ZoneSize:               cfg.ZoneSize,
		SafetyMargin:           cfg.SafetyMargin,
		MinRotatorInteractions: cfg.MinRotatorInteractions,
		Match: match.Options{
			RotationInvariant: cfg.Match.RotationInvariant,
			ColorInvariant:    cfg.Match.ColorInvariant,
			Mode:              mode,
			Placeholder:       core.Color(cfg.Match.Placeholder),
		},
	}
}

// Engine runs planning cycles. It keeps no state between calls.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{opts: opts, logger: logger}
}

// Options returns the engine's options.
func (e *Engine) Options() Options { return e.opts }

// Plan runs one cycle over s.
//
// Branches are tried in priority order and the first whose condition holds
// produces the moves: colour mismatch, aligned, rotation needed, wrong
// pattern, fallback. The result then passes the budget guard.
func (e *Engine) Plan(s *State) (*Plan, error) {
	if e.opts.ZoneSize <= 0 {
		return nil, fmt.Errorf("%w: %d", algo.ErrZoneSize, e.opts.ZoneSize)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	c := &cycle{
		e:    e,
		s:    s,
		plan: &Plan{CycleID: uuid.New(), Budget: s.Budget, Verdict: match.NoMatch, ZoneSize: e.opts.ZoneSize},
	}
	if err := c.prepare(); err != nil {
		return nil, err
	}

	status, err := c.tree().Tick()
	if err != nil {
		return nil, fmt.Errorf("plan: %s: %w", c.plan.Branch, err)
	}
	if status != bt.Success {
		return nil, fmt.Errorf("plan: decision tree ended with %v", status)
	}

	c.guardBudget()
	c.plan.Stalled = len(c.plan.Moves) == 0 && !c.arrived()
	if c.plan.Moves == nil {
		c.plan.Moves = core.MoveSequence{}
	}

	target := "none"
	if c.plan.Target != nil {
		target = c.plan.Target.String()
	}
	e.logger.Info("cycle planned",
		"cycle", c.plan.CycleID,
		"branch", c.plan.Branch,
		"target", target,
		"moves", len(c.plan.Moves),
		"budget", s.Budget,
		"recovered", c.plan.Recovered,
		"guarded", c.plan.BudgetGuarded,
		"stalled", c.plan.Stalled)
	return c.plan, nil
}

// cycle holds the scratch values of one Plan call.
type cycle struct {
	e    *Engine
	s    *State
	plan *Plan

	refill      core.MoveSequence
	refillGrid  *core.OccupancyGrid
	refillKnown bool

	mismatch bool
	strict   match.Verdict
}

func (c *cycle) prepare() error {
	if c.s.Refill != nil {
		moves, g, ok, err := c.route(c.s.Refill)
		if err != nil {
			return err
		}
		c.refill, c.refillGrid, c.refillKnown = moves, g, ok
	}

	c.strict = match.NoMatch
	if !c.s.determined() {
		return nil
	}

	opts := c.e.opts.Match
	c.strict = match.MatchAny(c.s.Observed, c.s.Expected, opts.Strict())
	c.plan.Verdict = c.strict

	// The colour check compares against the goal the key already opens, if any.
	closest := c.strict.Index
	if !c.strict.IsMatch {
		closest = match.Closest(c.s.Observed, c.s.Expected, opts)
	}
	ignore := []core.Color{c.s.Background}
	if opts.Placeholder != match.NoPlaceholder {
		ignore = append(ignore, opts.Placeholder)
	}
	c.mismatch = !match.SameColors(c.s.Observed, c.s.Expected[closest], ignore...)

	if c.s.Corrector != nil && !c.mismatch {
		c.plan.Consumed = append(c.plan.Consumed, *c.s.Corrector)
	}
	if c.s.Rotator != nil && c.strict.IsMatch && c.strict.Rotations == 0 {
		c.plan.Consumed = append(c.plan.Consumed, *c.s.Rotator)
	}

	c.e.logger.Debug("cycle inputs",
		"cycle", c.plan.CycleID,
		"closest", closest,
		"mismatch", c.mismatch,
		"match", c.strict.IsMatch,
		"rotations", c.strict.Rotations,
		"refill_known", c.refillKnown,
		"refill_len", len(c.refill))
	return nil
}

func (c *cycle) tree() bt.Node {
	return bt.New(
		bt.Selector,
		c.branch(BranchColorMismatch, c.colorMismatch, c.correctColors),
		c.branch(BranchAligned, c.aligned, c.openGoal),
		c.branch(BranchRotate, c.needsRotation, c.rotate),
		c.branch(BranchWrongPattern, c.wrongPattern, c.choose),
		c.branch(BranchFallback, func() bool { return true }, c.fallback),
	)
}

func (c *cycle) branch(b Branch, cond func() bool, act func() error) bt.Node {
	return bt.New(
		bt.Sequence,
		bt.New(func([]bt.Node) (bt.Status, error) {
			if cond() {
				return bt.Success, nil
			}
			return bt.Failure, nil
		}),
		bt.New(func([]bt.Node) (bt.Status, error) {
			c.plan.Branch = b
			if err := act(); err != nil {
				return bt.Failure, err
			}
			return bt.Success, nil
		}),
	)
}

// arrived reports whether the plan targets a goal whose zone the agent
// already stands in, so an empty route needs no action.
func (c *cycle) arrived() bool {
	return c.plan.Target != nil && c.plan.Target.Role == core.RoleGoal && !c.plan.Recovered && !c.plan.BudgetGuarded
}

// Conditions.

func (c *cycle) colorMismatch() bool { return c.s.determined() && c.mismatch }

func (c *cycle) aligned() bool { return c.strict.IsMatch && c.strict.Rotations == 0 }

func (c *cycle) needsRotation() bool { return c.strict.IsMatch && c.strict.Rotations > 0 }

func (c *cycle) wrongPattern() bool {
	return c.s.determined() && !c.strict.IsMatch && !c.budgetLow()
}

// budgetLow reports whether the remaining budget, less the safety margin,
// no longer covers the way to the refill.
func (c *cycle) budgetLow() bool {
	return c.refillKnown && c.s.Budget-c.e.opts.SafetyMargin < len(c.refill)
}

// Actions.

func (c *cycle) correctColors() error {
	_, err := c.goTo(c.s.Corrector)
	return err
}

func (c *cycle) openGoal() error {
	goal := c.s.Goals[c.strict.Index]
	_, err := c.goTo(&goal)
	return err
}

func (c *cycle) rotate() error {
	reached, err := c.goTo(c.s.Rotator)
	if err != nil || !reached {
		return err
	}

	extra := c.strict.Rotations - c.e.opts.MinRotatorInteractions
	end, _ := c.plan.Grid.End()
	trip := algo.Recover(c.plan.Grid, end)
	if extra <= 0 || len(trip) == 0 {
		return nil
	}
	moves := append(core.MoveSequence(nil), c.plan.Moves...)
	for i := 0; i < extra; i++ {
		moves = append(moves, trip...)
	}
	c.plan.Moves = moves
	return nil
}

func (c *cycle) choose() error {
	_, err := c.goTo(c.s.Chooser)
	return err
}

func (c *cycle) fallback() error {
	if c.refillKnown {
		c.useRefill()
		return nil
	}
	c.plan.Target = nil
	c.plan.Moves = core.MoveSequence{}
	return nil
}

// guardBudget replaces a route longer than the budget with the refill route,
// or with nothing when the refill is unknown.
func (c *cycle) guardBudget() {
	if len(c.plan.Moves) <= c.s.Budget {
		return
	}
	c.plan.BudgetGuarded = true
	c.plan.Recovered = false
	if c.refillKnown {
		c.useRefill()
		return
	}
	c.plan.Target = nil
	c.plan.Moves = core.MoveSequence{}
}

func (c *cycle) useRefill() {
	t := *c.s.Refill
	c.plan.Target = &t
	c.plan.Moves = append(core.MoveSequence{}, c.refill...)
	c.plan.Grid = c.refillGrid
}

// goTo routes to t, falling back to a recovery round trip when t is unknown
// or unreachable. It reports whether t was routed to.
func (c *cycle) goTo(t *Target) (bool, error) {
	if t == nil {
		return false, c.recoverInPlace()
	}
	moves, g, ok, err := c.route(t)
	if err != nil {
		return false, err
	}
	if !ok {
		c.e.logger.Debug("target unreachable", "cycle", c.plan.CycleID, "target", t.String())
		return false, c.recoverInPlace()
	}
	if len(moves) == 0 && t.Role.IsSelector() {
		// Already inside: step out and back in to trigger it again.
		end, _ := g.End()
		moves = algo.Recover(g, end)
		c.plan.Recovered = true
	}
	tt := *t
	c.plan.Target = &tt
	c.plan.Moves = moves
	c.plan.Grid = g
	return true, nil
}

func (c *cycle) route(t *Target) (core.MoveSequence, *core.OccupancyGrid, bool, error) {
	g, err := algo.Compress(c.s.Fine, c.e.opts.ZoneSize, c.s.Background, c.s.Agent, t.Anchor())
	if err != nil {
		return nil, nil, false, err
	}
	moves, ok := algo.PlanPath(g)
	return moves, g, ok, nil
}

func (c *cycle) recoverInPlace() error {
	g, err := algo.CompressZones(c.s.Fine, c.e.opts.ZoneSize, c.s.Background)
	if err != nil {
		return err
	}
	zone := c.s.Agent.Zone(c.e.opts.ZoneSize)
	g.SetStart(zone)
	c.plan.Target = nil
	c.plan.Moves = algo.Recover(g, zone)
	c.plan.Grid = g
	c.plan.Recovered = true
	return nil
}
