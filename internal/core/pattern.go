package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotSquare is returned when a pattern source is not a non-empty square.
var ErrNotSquare = errors.New("pattern must be a non-empty square")

// Pattern is an immutable square colour matrix, e.g. a key glyph.
// Every transform returns a new Pattern.
type Pattern struct {
	n     int
	cells []Color
}

// NewPattern copies rows into a Pattern.
func NewPattern(rows [][]Color) (Pattern, error) {
	n := len(rows)
	if n == 0 {
		return Pattern{}, ErrNotSquare
	}
	p := Pattern{n: n, cells: make([]Color, 0, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return Pattern{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrNotSquare, i, len(row), n)
		}
		p.cells = append(p.cells, row...)
	}
	return p, nil
}

// MustPattern is NewPattern for fixtures; it panics on error.
func MustPattern(rows ...[]Color) Pattern {
	p, err := NewPattern(rows)
	if err != nil {
		panic(err)
	}
	return p
}

// Size returns the side length; zero for the empty pattern.
func (p Pattern) Size() int { return p.n }

// IsZero reports whether p holds no cells.
func (p Pattern) IsZero() bool { return p.n == 0 }

// At returns the colour at (row, col).
func (p Pattern) At(row, col int) Color { return p.cells[row*p.n+col] }

// Rows returns a copy of the matrix.
func (p Pattern) Rows() [][]Color {
	out := make([][]Color, p.n)
	for r := range out {
		out[r] = append([]Color(nil), p.cells[r*p.n:(r+1)*p.n]...)
	}
	return out
}

// Rotate returns p turned 90 degrees clockwise.
func (p Pattern) Rotate() Pattern {
	out := Pattern{n: p.n, cells: make([]Color, len(p.cells))}
	for r := 0; r < p.n; r++ {
		for c := 0; c < p.n; c++ {
			out.cells[r*p.n+c] = p.At(p.n-1-c, r)
		}
	}
	return out
}

// RotateN applies k clockwise quarter turns; k is taken modulo 4.
func (p Pattern) RotateN(k int) Pattern {
	k = ((k % 4) + 4) % 4
	out := p
	for i := 0; i < k; i++ {
		out = out.Rotate()
	}
	return out
}

// Corners returns the corner colours clockwise from top-left:
// top-left, top-right, bottom-right, bottom-left.
// A clockwise rotation shifts this tuple right by one.
func (p Pattern) Corners() [4]Color {
	if p.n == 0 {
		return [4]Color{-1, -1, -1, -1}
	}
	last := p.n - 1
	return [4]Color{p.At(0, 0), p.At(0, last), p.At(last, last), p.At(last, 0)}
}

// Colors returns the distinct colours in ascending order.
func (p Pattern) Colors() []Color {
	seen := make(map[Color]bool)
	var out []Color
	for _, c := range p.cells {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReplaceColor returns p with every from cell painted to.
func (p Pattern) ReplaceColor(from, to Color) Pattern {
	return p.Substitute(map[Color]Color{from: to})
}

// Substitute applies a colour map to every cell. Unmapped colours stay.
func (p Pattern) Substitute(m map[Color]Color) Pattern {
	out := Pattern{n: p.n, cells: make([]Color, len(p.cells))}
	for i, c := range p.cells {
		if to, ok := m[c]; ok {
			c = to
		}
		out.cells[i] = c
	}
	return out
}

// Scale resizes p to n×n by nearest-neighbour sampling.
func (p Pattern) Scale(n int) Pattern {
	if n <= 0 || p.n == 0 {
		return Pattern{}
	}
	if n == p.n {
		return p
	}
	out := Pattern{n: n, cells: make([]Color, n*n)}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out.cells[r*n+c] = p.At(r*p.n/n, c*p.n/n)
		}
	}
	return out
}

// Equal reports cell-by-cell equality.
func (p Pattern) Equal(o Pattern) bool {
	if p.n != o.n {
		return false
	}
	for i := range p.cells {
		if p.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

func (p Pattern) String() string {
	var b strings.Builder
	for r := 0; r < p.n; r++ {
		for c := 0; c < p.n; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%x", int(p.At(r, c)))
		}
		if r < p.n-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
