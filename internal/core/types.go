// Package core defines domain models for zone planning.
package core

import "fmt"

// Color is a palette index in the playfield (0-15).
type Color int

const (
	White     Color = iota // 0
	OffWhite               // 1
	LightGray              // 2
	Gray                   // 3
	DarkGray               // 4
	Black                  // 5
	Magenta                // 6
	Pink                   // 7
	Red                    // 8
	Blue                   // 9
	LightBlue              // 10
	Yellow                 // 11
	Orange                 // 12
	Maroon                 // 13
	Green                  // 14
	Purple                 // 15
)

// PaletteSize is the number of colours a playfield can hold.
const PaletteSize = 16

var colorNames = [PaletteSize]string{
	"White", "OffWhite", "LightGray", "Gray", "DarkGray", "Black", "Magenta", "Pink",
	"Red", "Blue", "LightBlue", "Yellow", "Orange", "Maroon", "Green", "Purple",
}

func (c Color) String() string {
	if c.Valid() {
		return colorNames[c]
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// Valid reports whether c is inside the palette.
func (c Color) Valid() bool {
	return c >= 0 && c < PaletteSize
}

// Move is a single directional step of the agent.
type Move int

const (
	Up Move = iota
	Down
	Left
	Right
)

// AllMoves lists moves in search priority order.
func AllMoves() []Move {
	return []Move{Up, Down, Left, Right}
}

func (m Move) String() string {
	return [...]string{"up", "down", "left", "right"}[m]
}

// Token returns the action token understood by the game endpoint.
func (m Move) Token() string {
	return "move_" + m.String()
}

// ActionName returns the numbered game action (ACTION1..ACTION4).
func (m Move) ActionName() string {
	return fmt.Sprintf("ACTION%d", int(m)+1)
}

// Opposite returns the move that undoes m.
func (m Move) Opposite() Move {
	switch m {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Delta returns the (row, col) offset of m.
func (m Move) Delta() (dr, dc int) {
	switch m {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	default:
		return 0, 1
	}
}

// ParseMove accepts "up", "move_up" or "ACTION1" style names.
func ParseMove(s string) (Move, error) {
	for _, m := range AllMoves() {
		if s == m.String() || s == m.Token() || s == m.ActionName() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown move %q", s)
}
