package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/elektrokombinacija/zoneplan/internal/planner"
)

// ErrNotInteractive is returned by TerminalGate when stdin is not a terminal.
var ErrNotInteractive = errors.New("confirmation needs an interactive terminal")

// AutoGate approves every plan.
type AutoGate struct{}

// Confirm implements Gate.
func (AutoGate) Confirm(context.Context, *planner.Plan) (bool, error) { return true, nil }

// TerminalGate shows a plan preview and asks yes/no on the terminal.
type TerminalGate struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	style       ActionStyle
}

// NewTerminalGate prompts on out and reads answers from in.
func NewTerminalGate(in *os.File, out io.Writer, style ActionStyle) *TerminalGate {
	return &TerminalGate{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: term.IsTerminal(int(in.Fd())),
		style:       style,
	}
}

// Confirm implements Gate. Only "y" or "yes" approves.
func (g *TerminalGate) Confirm(ctx context.Context, p *planner.Plan) (bool, error) {
	if !g.interactive {
		return false, ErrNotInteractive
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintln(g.out, Preview(p, g.style))
	fmt.Fprint(g.out, "Continue? [y/N] ")

	line, err := g.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
