package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/elektrokombinacija/zoneplan/internal/algo"
	"github.com/elektrokombinacija/zoneplan/internal/core"
)

// Mask is a square on/off glyph shared by keys and locks.
type Mask [][]bool

// MaskSize is the side of every glyph in DefaultShapes.
const MaskSize = 3

// DefaultShapes are asymmetric under rotation, so orientation is observable.
func DefaultShapes() []Mask {
	return []Mask{
		parseMask("##.", "#..", "..."),
		parseMask("#..", "###", "..."),
		parseMask(".#.", "##.", "..#"),
		parseMask("###", "#..", "#.."),
	}
}

func parseMask(rows ...string) Mask {
	m := make(Mask, len(rows))
	for i, r := range rows {
		m[i] = make([]bool, len(r))
		for j, ch := range r {
			m[i][j] = ch == '#'
		}
	}
	return m
}

// Render paints on cells with ink and off cells with paper, scaling each
// mask cell to a scale×scale block.
func (m Mask) Render(ink, paper core.Color, scale int) core.Pattern {
	n := len(m) * scale
	rows := make([][]core.Color, n)
	for r := range rows {
		rows[r] = make([]core.Color, n)
		for c := range rows[r] {
			if m[r/scale][c/scale] {
				rows[r][c] = ink
			} else {
				rows[r][c] = paper
			}
		}
	}
	p, _ := core.NewPattern(rows)
	return p
}

// Lock is a goal zone opened by one shape.
type Lock struct {
	Zone  core.Cell `json:"zone"`
	Shape int       `json:"shape"`
}

// Level is a zone-level puzzle description.
type Level struct {
	Rows  int         `json:"rows"`
	Cols  int         `json:"cols"`
	Walls []core.Cell `json:"walls"`
	Agent core.Cell   `json:"agent"`
	Locks []Lock      `json:"locks"`

	Chooser   *core.Cell `json:"chooser,omitempty"`
	Rotator   *core.Cell `json:"rotator,omitempty"`
	Corrector *core.Cell `json:"corrector,omitempty"`
	Refill    *core.Cell `json:"refill,omitempty"`

	// Key starting state: shape index, clockwise quarter turns, ink colour.
	// A key opens a lock only when drawn in KeyInkCorrect.
	KeyShape int        `json:"key_shape"`
	KeyTurns int        `json:"key_turns"`
	KeyInk   core.Color `json:"key_ink"`

	Budget int `json:"budget"`
}

var errLevel = errors.New("invalid level")

// Validate checks that every placed item is inside the field and off walls.
func (l *Level) Validate(shapes int) error {
	if l.Rows <= 0 || l.Cols <= 0 {
		return fmt.Errorf("%w: %dx%d field", errLevel, l.Rows, l.Cols)
	}
	if l.Budget <= 0 {
		return fmt.Errorf("%w: budget %d", errLevel, l.Budget)
	}
	if len(l.Locks) == 0 {
		return fmt.Errorf("%w: no locks", errLevel)
	}
	walls := l.wallSet()
	check := func(name string, c core.Cell) error {
		if c.Row < 0 || c.Col < 0 || c.Row >= l.Rows || c.Col >= l.Cols {
			return fmt.Errorf("%w: %s %v outside field", errLevel, name, c)
		}
		if walls[c] {
			return fmt.Errorf("%w: %s %v on a wall", errLevel, name, c)
		}
		return nil
	}
	if err := check("agent", l.Agent); err != nil {
		return err
	}
	for i, lk := range l.Locks {
		if err := check(fmt.Sprintf("lock %d", i), lk.Zone); err != nil {
			return err
		}
		if lk.Shape < 0 || lk.Shape >= shapes {
			return fmt.Errorf("%w: lock %d shape %d", errLevel, i, lk.Shape)
		}
	}
	for name, c := range map[string]*core.Cell{
		"chooser": l.Chooser, "rotator": l.Rotator, "corrector": l.Corrector, "refill": l.Refill,
	} {
		if c == nil {
			continue
		}
		if err := check(name, *c); err != nil {
			return err
		}
	}
	if l.KeyShape < 0 || l.KeyShape >= shapes {
		return fmt.Errorf("%w: key shape %d", errLevel, l.KeyShape)
	}
	if !l.KeyInk.Valid() {
		return fmt.Errorf("%w: key ink %d", errLevel, l.KeyInk)
	}
	if l.Cols < minCols {
		return fmt.Errorf("%w: need at least %d columns for the HUD", errLevel, minCols)
	}
	return nil
}

func (l *Level) wallSet() map[core.Cell]bool {
	walls := make(map[core.Cell]bool, len(l.Walls))
	for _, w := range l.Walls {
		walls[w] = true
	}
	return walls
}

// GeneratorConfig shapes RandomLevel output.
type GeneratorConfig struct {
	Rows, Cols  int
	WallDensity float64
	Locks       int
	Budget      int
	WithRotator bool
	WithChooser bool
	WithRefill  bool
	WrongColor  bool // start with a key ink that needs the corrector
	Shapes      int
}

// DefaultGeneratorConfig returns a small level with every selector.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:        6,
		Cols:        8,
		WallDensity: 0.15,
		Locks:       2,
		Budget:      24,
		WithRotator: true,
		WithChooser: true,
		WithRefill:  true,
		WrongColor:  true,
		Shapes:      len(DefaultShapes()),
	}
}

// RandomLevel places walls and items at distinct random zones. Walls never
// cut items off from the agent.
func RandomLevel(rng *rand.Rand, cfg GeneratorConfig) (*Level, error) {
	total := cfg.Rows * cfg.Cols
	items := 1 + cfg.Locks
	for _, on := range []bool{cfg.WithRotator, cfg.WithChooser, cfg.WithRefill, cfg.WrongColor} {
		if on {
			items++
		}
	}
	if cfg.Locks <= 0 || cfg.Shapes <= 0 || cfg.Cols < minCols || items > total {
		return nil, fmt.Errorf("%w: %d items on a %dx%d field", errLevel, items, cfg.Rows, cfg.Cols)
	}

	cells := make([]core.Cell, 0, total)
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			cells = append(cells, core.Cell{Row: r, Col: c})
		}
	}
	rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	l := &Level{
		Rows:   cfg.Rows,
		Cols:   cfg.Cols,
		Agent:  cells[0],
		KeyInk: KeyInkCorrect,
		Budget: cfg.Budget,
	}
	next := 1
	take := func() *core.Cell {
		c := cells[next]
		next++
		return &c
	}

	shapes := rng.Perm(cfg.Shapes)
	for i := 0; i < cfg.Locks; i++ {
		l.Locks = append(l.Locks, Lock{Zone: *take(), Shape: shapes[i%len(shapes)]})
	}
	l.KeyShape = l.Locks[0].Shape
	if cfg.WithChooser {
		l.Chooser = take()
		l.KeyShape = rng.Intn(cfg.Shapes)
	}
	if cfg.WithRotator {
		l.Rotator = take()
		l.KeyTurns = rng.Intn(4)
	}
	if cfg.WrongColor {
		l.Corrector = take()
		l.KeyInk = KeyInkWrong
	}
	if cfg.WithRefill {
		l.Refill = take()
	}

	// Walls go on the remaining zones, skipping any that would disconnect
	// an item from the agent.
	for _, c := range cells[next:] {
		if rng.Float64() >= cfg.WallDensity {
			continue
		}
		l.Walls = append(l.Walls, c)
		if !connected(l, cells[:next]) {
			l.Walls = l.Walls[:len(l.Walls)-1]
		}
	}
	return l, nil
}

// Grid returns the level's zone grid with walls blocked and the agent as
// START.
func (l *Level) Grid() *core.OccupancyGrid {
	g := core.NewOccupancyGrid(l.Rows, l.Cols)
	for _, w := range l.Walls {
		g.Set(w, core.Blocked)
	}
	g.SetStart(l.Agent)
	return g
}

// connected reports whether every item zone is reachable from the agent.
func connected(l *Level, items []core.Cell) bool {
	g := l.Grid()
	for _, c := range items {
		if algo.Distance(g, l.Agent, c) < 0 {
			return false
		}
	}
	return true
}
