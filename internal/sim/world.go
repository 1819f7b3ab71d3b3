package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/scene"
)

// ZoneSize is the side of one field zone in fine cells.
const ZoneSize = 8

// Palette of the rendered frames. The lock glyph is drawn in Black and the
// default substitution maps Black to the background, so a key opens a lock
// only when its ink is the wall colour.
const (
	WallColor      = core.DarkGray
	FloorColor     = core.White
	PaperColor     = core.LightGray
	LockInk        = core.Black
	AgentColor     = core.Orange
	ChooserColor   = core.LightBlue
	RotatorColor   = core.Green
	CorrectorColor = core.Pink
	RefillColor    = core.Yellow
	MarkerColor    = core.Purple

	KeyInkCorrect = WallColor
	KeyInkWrong   = core.Magenta
)

// HUD layout below the field: one separator zone row of wall, then the key
// and the budget markers.
const (
	keyScale   = 3
	keyX       = 1
	markerX    = keyX + MaskSize*keyScale + 2
	markerSide = 2
	markerStep = markerSide + 1
	minCols    = 3
)

var (
	// ErrSolved is returned for moves sent after every lock opened.
	ErrSolved = errors.New("level already solved")
	// ErrOutOfBudget is returned for moves sent with no budget left.
	ErrOutOfBudget = errors.New("step budget exhausted")
)

// World is an in-process game. It implements dispatch.Executor.
type World struct {
	mu sync.Mutex

	level  *Level
	shapes []Mask
	walls  map[core.Cell]bool

	agent  core.Cell
	shape  int
	turns  int
	ink    core.Color
	budget int
	opened []bool

	moves   int
	bumps   int
	refills int
	solved  bool
}

// NewWorld starts a world at the level's initial state.
func NewWorld(l *Level, shapes []Mask) (*World, error) {
	if len(shapes) == 0 {
		shapes = DefaultShapes()
	}
	if err := l.Validate(len(shapes)); err != nil {
		return nil, err
	}
	return &World{
		level:  l,
		shapes: shapes,
		walls:  l.wallSet(),
		agent:  l.Agent,
		shape:  l.KeyShape,
		turns:  ((l.KeyTurns % 4) + 4) % 4,
		ink:    l.KeyInk,
		budget: l.Budget,
		opened: make([]bool, len(l.Locks)),
	}, nil
}

// Execute applies one move. Moving into a wall or off the field still costs
// a budget unit but leaves the agent in place.
func (w *World) Execute(ctx context.Context, m core.Move) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.solved {
		return ErrSolved
	}
	if w.budget <= 0 {
		return ErrOutOfBudget
	}
	w.budget--
	w.moves++

	next := w.agent.Step(m)
	if !w.passable(next) {
		w.bumps++
		return nil
	}
	w.agent = next
	w.enter(next)
	return nil
}

func (w *World) passable(c core.Cell) bool {
	if c.Row < 0 || c.Col < 0 || c.Row >= w.level.Rows || c.Col >= w.level.Cols {
		return false
	}
	return !w.walls[c]
}

func (w *World) enter(c core.Cell) {
	l := w.level
	switch {
	case at(l.Chooser, c):
		w.shape = (w.shape + 1) % len(w.shapes)
	case at(l.Rotator, c):
		w.turns = (w.turns + 3) % 4
	case at(l.Corrector, c):
		w.ink = KeyInkCorrect
	case at(l.Refill, c):
		w.budget = l.Budget
		w.refills++
	}

	for i, lk := range l.Locks {
		if w.opened[i] || lk.Zone != c {
			continue
		}
		if lk.Shape == w.shape && w.turns == 0 && w.ink == KeyInkCorrect {
			w.opened[i] = true
		}
	}
	w.solved = true
	for _, o := range w.opened {
		if !o {
			w.solved = false
			break
		}
	}
}

func at(item *core.Cell, c core.Cell) bool { return item != nil && *item == c }

// WorldState is a copy of the world's counters.
type WorldState struct {
	Agent   core.Cell
	Shape   int
	Turns   int
	Ink     core.Color
	Budget  int
	Opened  int
	Moves   int
	Bumps   int
	Refills int
	Solved  bool
}

// State returns the current counters.
func (w *World) State() WorldState {
	w.mu.Lock()
	defer w.mu.Unlock()
	opened := 0
	for _, o := range w.opened {
		if o {
			opened++
		}
	}
	return WorldState{
		Agent:   w.agent,
		Shape:   w.shape,
		Turns:   w.turns,
		Ink:     w.ink,
		Budget:  w.budget,
		Opened:  opened,
		Moves:   w.moves,
		Bumps:   w.bumps,
		Refills: w.refills,
		Solved:  w.solved,
	}
}

// Snapshot renders the current frame. Budget is left to the markers.
func (w *World) Snapshot() *scene.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	l := w.level
	fieldW, fieldH := l.Cols*ZoneSize, l.Rows*ZoneSize
	perRow := (fieldW - markerX) / markerStep
	markerRows := (w.budget + perRow - 1) / perRow
	hudTop := fieldH + ZoneSize + 1
	hudH := max(MaskSize*keyScale, markerRows*markerStep)
	height := hudTop + hudH + 1

	fine := make(core.FineGrid, height)
	for y := range fine {
		fine[y] = make([]core.Color, fieldW)
		for x := range fine[y] {
			fine[y][x] = WallColor
		}
	}
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			if !w.walls[core.Cell{Row: r, Col: c}] {
				fine.Fill(zoneRegion(core.Cell{Row: r, Col: c}, 0, ZoneSize), FloorColor)
			}
		}
	}

	var objects []core.GridObject
	block := func(cell core.Cell, offset, side int, color core.Color) {
		reg := zoneRegion(cell, offset, side)
		fine.Fill(reg, color)
		objects = append(objects, object(reg, color))
	}

	for i, lk := range l.Locks {
		if w.opened[i] {
			continue
		}
		reg := zoneRegion(lk.Zone, 1, MaskSize)
		paint(fine, reg, w.shapes[lk.Shape].Render(LockInk, PaperColor, 1))
		objects = append(objects, object(reg, PaperColor, LockInk))
	}
	if l.Chooser != nil {
		block(*l.Chooser, 1, 6, ChooserColor)
	}
	if l.Rotator != nil {
		block(*l.Rotator, 1, 4, RotatorColor)
	}
	if l.Corrector != nil {
		block(*l.Corrector, 1, 4, CorrectorColor)
	}
	if l.Refill != nil {
		block(*l.Refill, 1, 4, RefillColor)
	}
	block(w.agent, 5, 2, AgentColor)

	keySide := MaskSize * keyScale
	keyReg := core.Region{X1: keyX, Y1: hudTop, X2: keyX + keySide - 1, Y2: hudTop + keySide - 1}
	paint(fine, keyReg, w.shapes[w.shape].Render(w.ink, PaperColor, keyScale).RotateN(w.turns))
	objects = append(objects, object(keyReg, PaperColor, w.ink))

	for i := 0; i < w.budget; i++ {
		x := markerX + (i%perRow)*markerStep
		y := hudTop + (i/perRow)*markerStep
		reg := core.Region{X1: x, Y1: y, X2: x + markerSide - 1, Y2: y + markerSide - 1}
		fine.Fill(reg, MarkerColor)
		objects = append(objects, object(reg, MarkerColor))
	}

	return &scene.Snapshot{Grid: fine, Background: WallColor, Objects: objects}
}

func zoneRegion(c core.Cell, offset, side int) core.Region {
	x, y := c.Col*ZoneSize+offset, c.Row*ZoneSize+offset
	return core.Region{X1: x, Y1: y, X2: x + side - 1, Y2: y + side - 1}
}

func object(r core.Region, colors ...core.Color) core.GridObject {
	return core.GridObject{Region: r, Colors: colors, Width: r.Width(), Height: r.Height()}
}

func paint(fine core.FineGrid, r core.Region, p core.Pattern) {
	for y := 0; y < p.Size(); y++ {
		for x := 0; x < p.Size(); x++ {
			fine[r.Y1+y][r.X1+x] = p.At(y, x)
		}
	}
}

func (s WorldState) String() string {
	return fmt.Sprintf("agent=%v shape=%d turns=%d ink=%v budget=%d opened=%d solved=%t",
		s.Agent, s.Shape, s.Turns, s.Ink, s.Budget, s.Opened, s.Solved)
}
