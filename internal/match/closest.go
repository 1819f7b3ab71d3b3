package match

import "github.com/elektrokombinacija/zoneplan/internal/core"

// Closest returns the index of the candidate that best explains observed:
// the first exact match, else the first whose shape matches up to colour
// substitution, otherwise the one with the most agreeing cells over the
// allowed rotations. Ties go to the earlier candidate. It returns -1 for an
// empty candidate list.
func Closest(observed core.Pattern, candidates []core.Pattern, opts Options) int {
	if len(candidates) == 0 {
		return -1
	}

	if v := MatchAny(observed, candidates, opts.Strict()); v.IsMatch {
		return v.Index
	}
	shape := opts
	shape.ColorInvariant = true
	if v := MatchAny(observed, candidates, shape); v.IsMatch {
		return v.Index
	}

	best, bestScore := 0, -1
	for i, c := range candidates {
		if s := agreement(observed, c, opts.RotationInvariant); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// agreement counts equal cells at the best rotation.
func agreement(observed, expected core.Pattern, rotate bool) int {
	if observed.Size() != expected.Size() || observed.IsZero() {
		return 0
	}
	turns := 1
	if rotate {
		turns = 4
	}

	n := observed.Size()
	best := 0
	candidate := expected
	for k := 0; k < turns; k++ {
		score := 0
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				if observed.At(r, c) == candidate.At(r, c) {
					score++
				}
			}
		}
		if score > best {
			best = score
		}
		candidate = candidate.Rotate()
	}
	return best
}

// SameColors reports whether a and b use the same colour set, ignoring the
// listed colours (typically background and placeholder).
func SameColors(a, b core.Pattern, ignore ...core.Color) bool {
	skip := make(map[core.Color]bool, len(ignore))
	for _, c := range ignore {
		skip[c] = true
	}
	set := func(p core.Pattern) map[core.Color]bool {
		out := make(map[core.Color]bool)
		for _, c := range p.Colors() {
			if !skip[c] {
				out[c] = true
			}
		}
		return out
	}

	sa, sb := set(a), set(b)
	if len(sa) != len(sb) {
		return false
	}
	for c := range sa {
		if !sb[c] {
			return false
		}
	}
	return true
}
