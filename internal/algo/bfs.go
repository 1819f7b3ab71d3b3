package algo

import (
	"github.com/elektrokombinacija/zoneplan/internal/core"
)

// bfsNode records how a cell was first reached.
type bfsNode struct {
	cell   core.Cell
	move   core.Move // Move taken from parent into cell
	parent *bfsNode
}

// FindPath returns the shortest move sequence from start to end.
//
// Search is breadth-first over the four neighbours in the fixed order up,
// down, left, right; a cell is marked visited when enqueued, so ties resolve
// to the first direction in that order and identical input always yields
// the identical path. Blocked and out-of-bounds cells are never entered.
// The bool is false when end cannot be reached; start == end yields an empty
// sequence and true.
func FindPath(g *core.OccupancyGrid, start, end core.Cell) (core.MoveSequence, bool) {
	if !g.InBounds(start) || !g.Passable(end) {
		return nil, false
	}

	visited := make([]bool, g.Rows()*g.Cols())
	visit := func(c core.Cell) { visited[c.Row*g.Cols()+c.Col] = true }
	seen := func(c core.Cell) bool { return visited[c.Row*g.Cols()+c.Col] }

	queue := []*bfsNode{{cell: start}}
	visit(start)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.cell == end {
			return reconstructMoves(current), true
		}

		for _, m := range core.AllMoves() {
			next := current.cell.Step(m)
			if !g.Passable(next) || seen(next) {
				continue
			}
			visit(next)
			queue = append(queue, &bfsNode{cell: next, move: m, parent: current})
		}
	}

	return nil, false // No path found
}

// PlanPath runs FindPath between the grid's own START and END markers.
// A missing marker is reported as unreachable.
func PlanPath(g *core.OccupancyGrid) (core.MoveSequence, bool) {
	start, ok := g.Start()
	if !ok {
		return nil, false
	}
	end, ok := g.End()
	if !ok {
		return nil, false
	}
	return FindPath(g, start, end)
}

// Distance returns the BFS hop count from start to end, or -1 if unreachable.
func Distance(g *core.OccupancyGrid, start, end core.Cell) int {
	moves, ok := FindPath(g, start, end)
	if !ok {
		return -1
	}
	return len(moves)
}

func reconstructMoves(node *bfsNode) core.MoveSequence {
	var depth int
	for n := node; n.parent != nil; n = n.parent {
		depth++
	}
	moves := make(core.MoveSequence, depth)
	for n := node; n.parent != nil; n = n.parent {
		depth--
		moves[depth] = n.move
	}
	return moves
}
