package core

import (
	"fmt"
	"strings"
)

// Cell is a coordinate in the coarse zone grid.
type Cell struct {
	Row, Col int
}

// Step returns the neighbouring cell in direction m.
func (c Cell) Step(m Move) Cell {
	dr, dc := m.Delta()
	return Cell{Row: c.Row + dr, Col: c.Col + dc}
}

// Manhattan returns the hop distance between c and o on a free grid.
func (c Cell) Manhattan(o Cell) int {
	dr, dc := c.Row-o.Row, c.Col-o.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// CellState marks a zone in the occupancy grid.
type CellState uint8

const (
	Free CellState = iota
	Blocked
	Start
	End
)

func (s CellState) String() string {
	return [...]string{"FREE", "BLOCKED", "START", "END"}[s]
}

// OccupancyGrid is the zone-level grid searched by the path planner.
// Dimensions are fixed at construction.
type OccupancyGrid struct {
	rows, cols int
	cells      []CellState

	start, end       Cell
	hasStart, hasEnd bool
}

// NewOccupancyGrid creates an all-free grid.
func NewOccupancyGrid(rows, cols int) *OccupancyGrid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &OccupancyGrid{
		rows:  rows,
		cols:  cols,
		cells: make([]CellState, rows*cols),
	}
}

// ParseOccupancyGrid builds a grid from rows of '.', '#', 'S' and 'E'.
// A '*' marks a zone that is both start and end.
func ParseOccupancyGrid(lines ...string) (*OccupancyGrid, error) {
	if len(lines) == 0 {
		return NewOccupancyGrid(0, 0), nil
	}
	g := NewOccupancyGrid(len(lines), len(lines[0]))
	for r, line := range lines {
		if len(line) != g.cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", r, len(line), g.cols)
		}
		for col, ch := range line {
			c := Cell{Row: r, Col: col}
			switch ch {
			case '.':
			case '#':
				g.Set(c, Blocked)
			case 'S':
				g.SetStart(c)
			case 'E':
				g.SetEnd(c)
			case '*':
				g.SetStart(c)
				g.SetEnd(c)
			default:
				return nil, fmt.Errorf("row %d: unknown zone marker %q", r, ch)
			}
		}
	}
	return g, nil
}

// MustParseOccupancyGrid is ParseOccupancyGrid for fixtures; it panics on error.
func MustParseOccupancyGrid(lines ...string) *OccupancyGrid {
	g, err := ParseOccupancyGrid(lines...)
	if err != nil {
		panic(err)
	}
	return g
}

// Rows returns the number of zone rows.
func (g *OccupancyGrid) Rows() int { return g.rows }

// Cols returns the number of zone columns.
func (g *OccupancyGrid) Cols() int { return g.cols }

// InBounds reports whether c lies inside the grid.
func (g *OccupancyGrid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Col >= 0 && c.Row < g.rows && c.Col < g.cols
}

// State returns the state of c; out-of-bounds cells read as Blocked.
func (g *OccupancyGrid) State(c Cell) CellState {
	if !g.InBounds(c) {
		return Blocked
	}
	return g.cells[c.Row*g.cols+c.Col]
}

// Passable reports whether c can be entered.
func (g *OccupancyGrid) Passable(c Cell) bool {
	return g.State(c) != Blocked
}

// Set overwrites the state of c. Out-of-bounds writes are ignored.
func (g *OccupancyGrid) Set(c Cell, s CellState) {
	if !g.InBounds(c) {
		return
	}
	g.cells[c.Row*g.cols+c.Col] = s
}

// SetStart moves the START marker to c, clearing any previous one.
func (g *OccupancyGrid) SetStart(c Cell) {
	if !g.InBounds(c) {
		return
	}
	if g.hasStart && g.State(g.start) == Start {
		if g.hasEnd && g.end == g.start {
			g.Set(g.start, End)
		} else {
			g.Set(g.start, Free)
		}
	}
	g.start, g.hasStart = c, true
	g.Set(c, Start)
}

// SetEnd moves the END marker to c. A zone already holding START keeps it.
func (g *OccupancyGrid) SetEnd(c Cell) {
	if !g.InBounds(c) {
		return
	}
	if g.hasEnd && g.State(g.end) == End {
		g.Set(g.end, Free)
	}
	g.end, g.hasEnd = c, true
	if g.State(c) != Start {
		g.Set(c, End)
	}
}

// Start returns the START cell, if set.
func (g *OccupancyGrid) Start() (Cell, bool) { return g.start, g.hasStart }

// End returns the END cell, if set.
func (g *OccupancyGrid) End() (Cell, bool) { return g.end, g.hasEnd }

// Clone returns an independent copy.
func (g *OccupancyGrid) Clone() *OccupancyGrid {
	c := *g
	c.cells = append([]CellState(nil), g.cells...)
	return &c
}

// String renders the grid with the ParseOccupancyGrid alphabet.
func (g *OccupancyGrid) String() string {
	var b strings.Builder
	for r := 0; r < g.rows; r++ {
		for col := 0; col < g.cols; col++ {
			c := Cell{Row: r, Col: col}
			switch {
			case g.hasStart && g.hasEnd && c == g.start && c == g.end:
				b.WriteByte('*')
			case g.State(c) == Blocked:
				b.WriteByte('#')
			case g.State(c) == Start:
				b.WriteByte('S')
			case g.State(c) == End:
				b.WriteByte('E')
			default:
				b.WriteByte('.')
			}
		}
		if r < g.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
