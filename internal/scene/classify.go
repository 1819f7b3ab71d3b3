package scene

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/elektrokombinacija/zoneplan/internal/config"
	"github.com/elektrokombinacija/zoneplan/internal/core"
)

// Env is what a role expression sees about one object.
type Env struct {
	Colors []int `expr:"colors"`
	Color  int   `expr:"color"`
	Width  int   `expr:"width"`
	Height int   `expr:"height"`
	X      int   `expr:"x"`
	Y      int   `expr:"y"`
}

func envFor(o core.GridObject) Env {
	colors := make([]int, len(o.Colors))
	for i, c := range o.Colors {
		colors[i] = int(c)
	}
	return Env{
		Colors: colors,
		Color:  int(o.Color()),
		Width:  o.Width,
		Height: o.Height,
		X:      o.Region.X1,
		Y:      o.Region.Y1,
	}
}

// Roles is the result of classifying a snapshot's objects.
type Roles struct {
	Agent     *core.GridObject
	Goals     []core.GridObject // scan order
	Key       *core.GridObject
	Chooser   *core.GridObject
	Rotator   *core.GridObject
	Corrector *core.GridObject
	Refill    *core.GridObject
}

func (r *Roles) slot(role core.Role) **core.GridObject {
	switch role {
	case core.RoleAgent:
		return &r.Agent
	case core.RoleKey:
		return &r.Key
	case core.RoleChooser:
		return &r.Chooser
	case core.RoleRotator:
		return &r.Rotator
	case core.RoleCorrector:
		return &r.Corrector
	case core.RoleRefill:
		return &r.Refill
	}
	return nil
}

// Classifier assigns roles to objects with compiled expr predicates.
type Classifier struct {
	roles  [core.NumRoles]*vm.Program
	ignore *vm.Program
	marker *vm.Program
}

// NewClassifier compiles the role predicates. An empty expression disables
// that role.
func NewClassifier(cfg config.RolesConfig) (*Classifier, error) {
	var c Classifier
	sources := [core.NumRoles]string{
		core.RoleAgent:     cfg.Agent,
		core.RoleGoal:      cfg.Goal,
		core.RoleKey:       cfg.Key,
		core.RoleChooser:   cfg.Chooser,
		core.RoleRotator:   cfg.Rotator,
		core.RoleCorrector: cfg.Corrector,
		core.RoleRefill:    cfg.Refill,
	}
	for i, src := range sources {
		p, err := compile(src)
		if err != nil {
			return nil, fmt.Errorf("roles.%s: %w", core.Role(i), err)
		}
		c.roles[i] = p
	}

	var err error
	if c.ignore, err = compile(cfg.Ignore); err != nil {
		return nil, fmt.Errorf("roles.ignore: %w", err)
	}
	if c.marker, err = compile(cfg.BudgetMarker); err != nil {
		return nil, fmt.Errorf("roles.budget_marker: %w", err)
	}
	return &c, nil
}

func compile(src string) (*vm.Program, error) {
	if src == "" {
		return nil, nil
	}
	return expr.Compile(src, expr.Env(Env{}), expr.AsBool())
}

func eval(p *vm.Program, env Env) (bool, error) {
	if p == nil {
		return false, nil
	}
	out, err := expr.Run(p, env)
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}

// Classify scans objects in (Y1, X1) order. Each object takes the first role,
// in Role order, whose predicate holds; objects matching the ignore predicate
// are skipped. Singleton roles keep the first object in scan order, goals
// collect every match.
func (c *Classifier) Classify(objects []core.GridObject) (*Roles, error) {
	ordered := append([]core.GridObject(nil), objects...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Region, ordered[j].Region
		if a.Y1 != b.Y1 {
			return a.Y1 < b.Y1
		}
		return a.X1 < b.X1
	})

	roles := &Roles{}
	for i := range ordered {
		obj := ordered[i]
		env := envFor(obj)

		skip, err := eval(c.ignore, env)
		if err != nil {
			return nil, fmt.Errorf("roles.ignore on object at (%d,%d): %w", obj.Region.X1, obj.Region.Y1, err)
		}
		if skip {
			continue
		}

		for r, p := range c.roles {
			ok, err := eval(p, env)
			if err != nil {
				return nil, fmt.Errorf("roles.%s on object at (%d,%d): %w", core.Role(r), obj.Region.X1, obj.Region.Y1, err)
			}
			if !ok {
				continue
			}
			if core.Role(r) == core.RoleGoal {
				roles.Goals = append(roles.Goals, obj)
			} else if s := roles.slot(core.Role(r)); *s == nil {
				*s = &obj
			}
			break
		}
	}
	return roles, nil
}

// CountMarkers counts objects satisfying the budget-marker predicate.
// Ignored objects are counted too.
func (c *Classifier) CountMarkers(objects []core.GridObject) (int, error) {
	n := 0
	for _, o := range objects {
		ok, err := eval(c.marker, envFor(o))
		if err != nil {
			return 0, fmt.Errorf("roles.budget_marker: %w", err)
		}
		if ok {
			n++
		}
	}
	return n, nil
}
