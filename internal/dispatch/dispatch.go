// Package dispatch sends planned moves to the game after confirmation.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
)

var (
	// ErrDeclined is returned when the gate refuses a plan. Nothing was sent.
	ErrDeclined = errors.New("plan declined")
	// ErrRejected is returned when the game reports an action as unsuccessful.
	ErrRejected = errors.New("action rejected")
)

// Executor performs one move against the game.
type Executor interface {
	Execute(ctx context.Context, m core.Move) error
}

// Gate approves a plan before any move is sent.
type Gate interface {
	Confirm(ctx context.Context, p *planner.Plan) (bool, error)
}

// ActionStyle selects how moves are named on the wire.
type ActionStyle int

const (
	Tokens   ActionStyle = iota // move_up, move_down, ...
	Numbered                    // ACTION1..ACTION4
)

// ParseActionStyle accepts "token" or "numbered".
func ParseActionStyle(s string) (ActionStyle, error) {
	switch s {
	case "token", "":
		return Tokens, nil
	case "numbered":
		return Numbered, nil
	}
	return Tokens, fmt.Errorf("unknown action style %q", s)
}

// Name returns m as sent in this style.
func (s ActionStyle) Name(m core.Move) string {
	if s == Numbered {
		return m.ActionName()
	}
	return m.Token()
}

// Run asks gate to approve p and then sends its moves in order, one at a
// time. It returns how many moves were sent. The first failure stops the
// run; later moves are not sent and nothing is retried. An empty plan sends
// nothing and does not consult the gate.
func Run(ctx context.Context, gate Gate, exec Executor, p *planner.Plan) (int, error) {
	if len(p.Moves) == 0 {
		return 0, nil
	}

	ok, err := gate.Confirm(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return 0, ErrDeclined
	}

	for i, m := range p.Moves {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := exec.Execute(ctx, m); err != nil {
			return i, fmt.Errorf("move %d/%d (%s): %w", i+1, len(p.Moves), m, err)
		}
	}
	return len(p.Moves), nil
}
