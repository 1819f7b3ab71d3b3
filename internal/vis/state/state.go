// Package state manages the visualization state.
package state

import (
	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
)

// State holds the recorded cycles and the playback over the current one.
type State struct {
	Cycles   []*planner.Plan
	Current  int
	Playback *PlaybackState
}

// NewState creates a state over cycles, showing the first.
func NewState(cycles []*planner.Plan) *State {
	s := &State{Cycles: cycles}
	s.Select(0)
	return s
}

// Plan returns the cycle on screen, or nil when nothing was recorded.
func (s *State) Plan() *planner.Plan {
	if len(s.Cycles) == 0 {
		return nil
	}
	return s.Cycles[s.Current]
}

// Select shows cycle i, clamped to the recorded range, with playback rewound.
func (s *State) Select(i int) {
	s.Current = min(max(i, 0), max(len(s.Cycles)-1, 0))
	steps := 0
	if p := s.Plan(); p != nil {
		steps = len(p.Moves)
	}
	s.Playback = NewPlaybackState(steps)
}

// NextCycle shows the following cycle.
func (s *State) NextCycle() { s.Select(s.Current + 1) }

// PrevCycle shows the preceding cycle.
func (s *State) PrevCycle() { s.Select(s.Current - 1) }

// Route returns the zones visited by the current plan, starting at START.
func (s *State) Route() []core.Cell {
	p := s.Plan()
	if p == nil || p.Grid == nil {
		return nil
	}
	start, ok := p.Grid.Start()
	if !ok {
		return nil
	}
	return p.Moves.Walk(start)
}

// AgentCell returns the agent's zone at the current playback step.
func (s *State) AgentCell() (core.Cell, bool) {
	route := s.Route()
	if len(route) == 0 {
		return core.Cell{}, false
	}
	return route[min(s.Playback.Step, len(route)-1)], true
}

// PathHistory returns the zones already walked, including the current one.
func (s *State) PathHistory() []core.Cell {
	route := s.Route()
	if len(route) == 0 {
		return nil
	}
	return route[:min(s.Playback.Step, len(route)-1)+1]
}
