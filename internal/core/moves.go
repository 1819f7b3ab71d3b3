package core

import "strings"

// MoveSequence is an ordered list of moves. An empty sequence means no action.
type MoveSequence []Move

// Len returns the number of moves; it is the budget cost of the sequence.
func (s MoveSequence) Len() int { return len(s) }

// Tokens returns the endpoint tokens (move_up, ...) for each move.
func (s MoveSequence) Tokens() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = m.Token()
	}
	return out
}

// ActionNames returns the numbered action names for each move.
func (s MoveSequence) ActionNames() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = m.ActionName()
	}
	return out
}

// Counts tallies moves per direction.
func (s MoveSequence) Counts() map[Move]int {
	counts := make(map[Move]int, 4)
	for _, m := range s {
		counts[m]++
	}
	return counts
}

// Walk applies the sequence from c and returns every visited cell, c included.
func (s MoveSequence) Walk(c Cell) []Cell {
	cells := make([]Cell, 0, len(s)+1)
	cells = append(cells, c)
	for _, m := range s {
		c = c.Step(m)
		cells = append(cells, c)
	}
	return cells
}

func (s MoveSequence) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
