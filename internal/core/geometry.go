package core

import (
	"errors"
	"fmt"
)

// ErrRaggedGrid is returned when fine grid rows differ in length.
var ErrRaggedGrid = errors.New("grid rows have different lengths")

// Point is a position in the fine grid (X = column, Y = row).
type Point struct {
	X, Y int
}

// Zone returns the coarse cell that contains p for a zone size z.
func (p Point) Zone(z int) Cell {
	return Cell{Row: floorDiv(p.Y, z), Col: floorDiv(p.X, z)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Region is an inclusive rectangle in fine coordinates.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// TopLeft returns the region's anchor point.
func (r Region) TopLeft() Point { return Point{X: r.X1, Y: r.Y1} }

// Width returns the inclusive width.
func (r Region) Width() int { return r.X2 - r.X1 + 1 }

// Height returns the inclusive height.
func (r Region) Height() int { return r.Y2 - r.Y1 + 1 }

// Contains reports whether p lies inside r.
func (r Region) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// GridObject is an entity found in the fine grid by the scene parser.
type GridObject struct {
	Region Region  `json:"region"`
	Colors []Color `json:"colors"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// Color returns the dominant colour, or -1 when none is known.
func (o GridObject) Color() Color {
	if len(o.Colors) == 0 {
		return -1
	}
	return o.Colors[0]
}

// HasColor reports whether c is among the object's colours.
func (o GridObject) HasColor(c Color) bool {
	for _, oc := range o.Colors {
		if oc == c {
			return true
		}
	}
	return false
}

// FineGrid is the raw colour matrix of one frame, indexed [row][col].
type FineGrid [][]Color

// Validate checks that the grid is rectangular and holds palette colours.
func (g FineGrid) Validate() error {
	if len(g) == 0 || len(g[0]) == 0 {
		return errors.New("grid is empty")
	}
	w := len(g[0])
	for y, row := range g {
		if len(row) != w {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedGrid, y, len(row), w)
		}
		for x, c := range row {
			if !c.Valid() {
				return fmt.Errorf("cell (%d,%d): colour %d outside palette", x, y, c)
			}
		}
	}
	return nil
}

// Height returns the number of rows.
func (g FineGrid) Height() int { return len(g) }

// Width returns the number of columns.
func (g FineGrid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds reports whether p lies inside the grid.
func (g FineGrid) InBounds(p Point) bool {
	return p.Y >= 0 && p.Y < g.Height() && p.X >= 0 && p.X < g.Width()
}

// At returns the colour at p. Callers check InBounds first.
func (g FineGrid) At(p Point) Color {
	return g[p.Y][p.X]
}

// Clone returns a deep copy.
func (g FineGrid) Clone() FineGrid {
	out := make(FineGrid, len(g))
	for i, row := range g {
		out[i] = append([]Color(nil), row...)
	}
	return out
}

// Crop copies the cells of r, clipped to the grid.
func (g FineGrid) Crop(r Region) FineGrid {
	var out FineGrid
	for y := r.Y1; y <= r.Y2; y++ {
		if y < 0 || y >= g.Height() {
			continue
		}
		var row []Color
		for x := r.X1; x <= r.X2; x++ {
			if x < 0 || x >= g.Width() {
				continue
			}
			row = append(row, g[y][x])
		}
		out = append(out, row)
	}
	return out
}

// Fill paints r with c in place, clipped to the grid.
func (g FineGrid) Fill(r Region, c Color) {
	for y := r.Y1; y <= r.Y2; y++ {
		if y < 0 || y >= g.Height() {
			continue
		}
		for x := r.X1; x <= r.X2; x++ {
			if x >= 0 && x < g.Width() {
				g[y][x] = c
			}
		}
	}
}
