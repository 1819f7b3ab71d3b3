package algo

import "github.com/elektrokombinacija/zoneplan/internal/core"

// recoveryOrder is the order Recover tries neighbours in.
var recoveryOrder = [4]core.Move{core.Left, core.Right, core.Up, core.Down}

// Recover proposes a two-move round trip from position: step into the first
// passable neighbour (left, right, up, down) and straight back. The agent
// ends where it started, so no direction is committed to.
//
// An empty result means every neighbour is blocked or out of bounds; callers
// treat it as a stall, not an error.
func Recover(g *core.OccupancyGrid, position core.Cell) core.MoveSequence {
	if !g.InBounds(position) {
		return core.MoveSequence{}
	}
	for _, m := range recoveryOrder {
		if g.Passable(position.Step(m)) {
			return core.MoveSequence{m, m.Opposite()}
		}
	}
	return core.MoveSequence{}
}
