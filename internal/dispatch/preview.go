package dispatch

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	moveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	startStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	endStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Preview renders a plan for the confirmation prompt: a summary line, the
// move names and the zone grid with the route drawn on it.
func Preview(p *planner.Plan, style ActionStyle) string {
	var b strings.Builder

	target := "none"
	if p.Target != nil {
		target = p.Target.String()
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("cycle %s  branch %s  target %s  budget %d",
		p.CycleID, p.Branch, target, p.Budget)))
	b.WriteByte('\n')

	var notes []string
	if p.Recovered {
		notes = append(notes, "recovery")
	}
	if p.BudgetGuarded {
		notes = append(notes, "budget guard")
	}
	if p.Stalled {
		notes = append(notes, "stalled")
	}
	if len(notes) > 0 {
		b.WriteString(warnStyle.Render(strings.Join(notes, ", ")))
		b.WriteByte('\n')
	}

	names := make([]string, len(p.Moves))
	for i, m := range p.Moves {
		names[i] = style.Name(m)
	}
	b.WriteString(fmt.Sprintf("%d moves: ", len(p.Moves)))
	b.WriteString(moveStyle.Render(strings.Join(names, " ")))

	if p.Grid != nil {
		b.WriteByte('\n')
		b.WriteString(renderGrid(p.Grid, p.Moves))
	}
	return b.String()
}

func renderGrid(g *core.OccupancyGrid, moves core.MoveSequence) string {
	onPath := make(map[core.Cell]bool)
	if start, ok := g.Start(); ok {
		for _, c := range moves.Walk(start) {
			onPath[c] = true
		}
	}

	lines := make([]string, g.Rows())
	for r := 0; r < g.Rows(); r++ {
		var row strings.Builder
		for c := 0; c < g.Cols(); c++ {
			cell := core.Cell{Row: r, Col: c}
			switch st := g.State(cell); {
			case st == core.Start:
				row.WriteString(startStyle.Render("S"))
			case st == core.End:
				row.WriteString(endStyle.Render("E"))
			case st == core.Blocked:
				row.WriteString(blockedStyle.Render("#"))
			case onPath[cell]:
				row.WriteString(pathStyle.Render("*"))
			default:
				row.WriteString(".")
			}
		}
		lines[r] = row.String()
	}
	return strings.Join(lines, "\n")
}
