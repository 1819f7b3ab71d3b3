// Package planner chooses the next move sequence for one snapshot.
package planner

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/match"
)

// ErrNoAgent is returned when the agent is missing or outside the grid.
var ErrNoAgent = errors.New("agent not found in snapshot")

// Target is an object the agent may route to.
type Target struct {
	Role   core.Role
	Region core.Region
}

// Anchor is the fine point whose zone is routed to.
func (t Target) Anchor() core.Point { return t.Region.TopLeft() }

func (t Target) String() string {
	return fmt.Sprintf("%s@(%d,%d)", t.Role, t.Region.X1, t.Region.Y1)
}

// State is everything one planning cycle reads. It is built fresh from each
// snapshot and never modified by the engine.
type State struct {
	Fine       core.FineGrid
	Background core.Color
	Agent      core.Point
	Budget     int

	// Observed is the held key pattern; zero when no key was found.
	Observed core.Pattern
	// Goals and Expected are parallel: Expected[i] opens Goals[i].
	Goals    []Target
	Expected []core.Pattern

	Chooser   *Target
	Rotator   *Target
	Corrector *Target
	Refill    *Target
}

// Validate checks the state for planning.
func (s *State) Validate() error {
	if err := s.Fine.Validate(); err != nil {
		return err
	}
	if !s.Fine.InBounds(s.Agent) {
		return fmt.Errorf("%w: position %v outside %dx%d grid", ErrNoAgent, s.Agent, s.Fine.Width(), s.Fine.Height())
	}
	if s.Budget < 0 {
		return fmt.Errorf("budget must be non-negative, got %d", s.Budget)
	}
	if len(s.Goals) != len(s.Expected) {
		return fmt.Errorf("%d goals but %d expected patterns", len(s.Goals), len(s.Expected))
	}
	return nil
}

// determined reports whether there is a key and at least one lock to compare.
func (s *State) determined() bool {
	return !s.Observed.IsZero() && len(s.Expected) > 0
}

// Branch identifies which decision produced a plan.
type Branch int

const (
	BranchColorMismatch Branch = iota + 1
	BranchAligned
	BranchRotate
	BranchWrongPattern
	BranchFallback
)

func (b Branch) String() string {
	switch b {
	case BranchColorMismatch:
		return "color-mismatch"
	case BranchAligned:
		return "aligned"
	case BranchRotate:
		return "rotate"
	case BranchWrongPattern:
		return "wrong-pattern"
	case BranchFallback:
		return "fallback"
	}
	return "none"
}

// Plan is the outcome of one cycle.
type Plan struct {
	CycleID uuid.UUID
	Branch  Branch
	// Target is where Moves lead; nil for recovery or an empty fallback.
	Target  *Target
	Moves   core.MoveSequence
	Verdict match.Verdict
	Budget  int

	Recovered     bool // Moves are a recovery round trip
	BudgetGuarded bool // the branch's route exceeded the budget and was replaced
	Stalled       bool // nothing to send

	// Grid is the compressed grid the moves were planned on.
	Grid     *core.OccupancyGrid
	ZoneSize int
	// Consumed lists satisfied selectors the caller should paint with the
	// background colour before the next cycle.
	Consumed []Target
}

// ConsumedRegions returns the fine-grid rectangles of the zones holding the
// consumed selectors' anchors.
func (p *Plan) ConsumedRegions() []core.Region {
	z := p.ZoneSize
	if z <= 0 {
		return nil
	}
	out := make([]core.Region, len(p.Consumed))
	for i, t := range p.Consumed {
		zone := t.Anchor().Zone(z)
		out[i] = core.Region{
			X1: zone.Col * z,
			Y1: zone.Row * z,
			X2: zone.Col*z + z - 1,
			Y2: zone.Row*z + z - 1,
		}
	}
	return out
}
