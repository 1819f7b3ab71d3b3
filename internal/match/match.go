// Package match compares key patterns under rotation and colour substitution.
package match

import (
	"github.com/elektrokombinacija/zoneplan/internal/core"
)

// Mode selects what a comparison looks at.
type Mode int

const (
	// Corners compares only the corner-colour tuples.
	Corners Mode = iota
	// Cells compares every cell.
	Cells
)

func (m Mode) String() string {
	return [...]string{"corners", "cells"}[m]
}

// NoPlaceholder disables the placeholder wildcard.
const NoPlaceholder core.Color = -1

// Options controls a comparison.
type Options struct {
	RotationInvariant bool // Try 0..3 clockwise turns of the expected pattern
	ColorInvariant    bool // Allow a consistent one-to-one colour relabelling
	Mode              Mode
	// Placeholder cells of the expected pattern match anything when
	// ColorInvariant is set.
	Placeholder core.Color

	// wildcards keeps placeholder cells as wildcards without relabelling.
	wildcards bool
}

// DefaultOptions returns rotation-invariant, colour-strict, cell-by-cell matching.
func DefaultOptions() Options {
	return Options{
		RotationInvariant: true,
		Mode:              Cells,
		Placeholder:       NoPlaceholder,
	}
}

// Strict returns o without colour relabelling. When o is colour-invariant
// its placeholder cells still match anything.
func (o Options) Strict() Options {
	o.wildcards = o.ColorInvariant && o.Placeholder != NoPlaceholder
	o.ColorInvariant = false
	return o
}

// Verdict is the outcome of a comparison.
type Verdict struct {
	IsMatch   bool
	Rotations int // Clockwise turns applied to the expected pattern, in [0,3]
	Index     int // Matching candidate, -1 when none
}

// NoMatch is the verdict for an undetermined target.
var NoMatch = Verdict{Index: -1}

// Match compares observed against expected.
//
// With RotationInvariant the expected pattern is turned clockwise 0..3 times
// and the first turn that matches wins, so Rotations is the minimal count.
func Match(observed, expected core.Pattern, opts Options) Verdict {
	if observed.IsZero() || expected.IsZero() {
		return NoMatch
	}

	turns := 1
	if opts.RotationInvariant {
		turns = 4
	}

	candidate := expected
	for k := 0; k < turns; k++ {
		if compare(observed, candidate, opts) {
			return Verdict{IsMatch: true, Rotations: k, Index: 0}
		}
		candidate = candidate.Rotate()
	}
	return NoMatch
}

// MatchAny returns the verdict of the first candidate, in input order, that
// matches observed.
func MatchAny(observed core.Pattern, candidates []core.Pattern, opts Options) Verdict {
	for i, c := range candidates {
		v := Match(observed, c, opts)
		if v.IsMatch {
			v.Index = i
			return v
		}
	}
	return NoMatch
}

func compare(observed, expected core.Pattern, opts Options) bool {
	eq := newCellMatcher(opts)

	if opts.Mode == Corners {
		oc, ec := observed.Corners(), expected.Corners()
		for i := range oc {
			if !eq.match(ec[i], oc[i]) {
				return false
			}
		}
		return true
	}

	if observed.Size() != expected.Size() {
		return false
	}
	n := observed.Size()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if !eq.match(expected.At(r, c), observed.At(r, c)) {
				return false
			}
		}
	}
	return true
}

// cellMatcher compares expected/observed colour pairs, tracking the colour
// relabelling when colour invariance is on.
type cellMatcher struct {
	opts Options
	fwd  map[core.Color]core.Color
	rev  map[core.Color]core.Color
}

func newCellMatcher(opts Options) *cellMatcher {
	m := &cellMatcher{opts: opts}
	if opts.ColorInvariant {
		m.fwd = make(map[core.Color]core.Color)
		m.rev = make(map[core.Color]core.Color)
	}
	return m
}

func (m *cellMatcher) match(expected, observed core.Color) bool {
	wild := m.opts.ColorInvariant || m.opts.wildcards
	if wild && m.opts.Placeholder != NoPlaceholder && expected == m.opts.Placeholder {
		return true
	}
	if !m.opts.ColorInvariant {
		return expected == observed
	}
	if to, ok := m.fwd[expected]; ok {
		return to == observed
	}
	if from, ok := m.rev[observed]; ok {
		return from == expected
	}
	m.fwd[expected] = observed
	m.rev[observed] = expected
	return true
}
