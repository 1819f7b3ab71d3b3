package scene

import (
	"fmt"

	"github.com/elektrokombinacija/zoneplan/internal/config"
	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
)

// ExtractPattern crops obj's region out of fine. The region must be square
// and lie inside the grid.
func ExtractPattern(fine core.FineGrid, obj core.GridObject) (core.Pattern, error) {
	p, err := core.NewPattern(fine.Crop(obj.Region))
	if err != nil {
		return core.Pattern{}, fmt.Errorf("object at (%d,%d): %w", obj.Region.X1, obj.Region.Y1, err)
	}
	return p, nil
}

// ExpectedPattern derives the key that opens goal: the goal's glyph with the
// configured substitutions applied, scaled to size when size > 0.
func ExpectedPattern(fine core.FineGrid, goal core.GridObject, subs []config.Substitution, background core.Color, size int) (core.Pattern, error) {
	p, err := ExtractPattern(fine, goal)
	if err != nil {
		return core.Pattern{}, err
	}
	if len(subs) > 0 {
		m := make(map[core.Color]core.Color, len(subs))
		for _, s := range subs {
			to := core.Color(s.To)
			if s.To == config.BackgroundColor {
				to = background
			}
			m[core.Color(s.From)] = to
		}
		p = p.Substitute(m)
	}
	if size > 0 {
		p = p.Scale(size)
	}
	return p, nil
}

// Builder turns snapshots into planner states.
type Builder struct {
	cfg        *config.Config
	classifier *Classifier
}

// NewBuilder compiles cfg's role predicates.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	cls, err := NewClassifier(cfg.Roles)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, classifier: cls}, nil
}

// Classifier returns the builder's role classifier.
func (b *Builder) Classifier() *Classifier { return b.classifier }

// Background returns the effective background colour of snap.
func (b *Builder) Background(snap *Snapshot) core.Color {
	if b.cfg.Background != nil {
		return core.Color(*b.cfg.Background)
	}
	return snap.Background
}

// Build classifies snap's objects and assembles the planning state.
// The returned state shares snap's grid.
func (b *Builder) Build(snap *Snapshot) (*planner.State, error) {
	roles, err := b.classifier.Classify(snap.Objects)
	if err != nil {
		return nil, err
	}
	if roles.Agent == nil {
		return nil, planner.ErrNoAgent
	}

	bg := b.Background(snap)
	s := &planner.State{
		Fine:       snap.Grid,
		Background: bg,
		Agent:      roles.Agent.Region.TopLeft(),
	}

	if snap.Budget != nil {
		s.Budget = *snap.Budget
	} else if s.Budget, err = b.classifier.CountMarkers(snap.Objects); err != nil {
		return nil, err
	}

	if roles.Key != nil {
		if s.Observed, err = ExtractPattern(snap.Grid, *roles.Key); err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
	}
	for _, g := range roles.Goals {
		exp, err := ExpectedPattern(snap.Grid, g, b.cfg.Substitutions, bg, s.Observed.Size())
		if err != nil {
			return nil, fmt.Errorf("goal: %w", err)
		}
		s.Goals = append(s.Goals, planner.Target{Role: core.RoleGoal, Region: g.Region})
		s.Expected = append(s.Expected, exp)
	}

	s.Chooser = target(core.RoleChooser, roles.Chooser)
	s.Rotator = target(core.RoleRotator, roles.Rotator)
	s.Corrector = target(core.RoleCorrector, roles.Corrector)
	s.Refill = target(core.RoleRefill, roles.Refill)
	return s, nil
}

func target(role core.Role, obj *core.GridObject) *planner.Target {
	if obj == nil {
		return nil
	}
	return &planner.Target{Role: role, Region: obj.Region}
}
