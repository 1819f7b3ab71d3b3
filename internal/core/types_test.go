package core

import "testing"

func TestMoveOpposite(t *testing.T) {
	tests := []struct {
		move Move
		want Move
	}{
		{Up, Down},
		{Down, Up},
		{Left, Right},
		{Right, Left},
	}

	for _, tt := range tests {
		got := tt.move.Opposite()
		if got != tt.want {
			t.Errorf("%v.Opposite() = %v, want %v", tt.move, got, tt.want)
		}
	}
}

func TestMoveNames(t *testing.T) {
	tests := []struct {
		move   Move
		token  string
		action string
	}{
		{Up, "move_up", "ACTION1"},
		{Down, "move_down", "ACTION2"},
		{Left, "move_left", "ACTION3"},
		{Right, "move_right", "ACTION4"},
	}

	for _, tt := range tests {
		if got := tt.move.Token(); got != tt.token {
			t.Errorf("%v.Token() = %q, want %q", tt.move, got, tt.token)
		}
		if got := tt.move.ActionName(); got != tt.action {
			t.Errorf("%v.ActionName() = %q, want %q", tt.move, got, tt.action)
		}
		for _, name := range []string{tt.move.String(), tt.token, tt.action} {
			m, err := ParseMove(name)
			if err != nil || m != tt.move {
				t.Errorf("ParseMove(%q) = %v, %v, want %v", name, m, err, tt.move)
			}
		}
	}

	if _, err := ParseMove("jump"); err == nil {
		t.Error("ParseMove(jump) should fail")
	}
}

func TestMoveSequenceWalk(t *testing.T) {
	seq := MoveSequence{Down, Down, Right, Up}
	cells := seq.Walk(Cell{Row: 1, Col: 1})

	want := []Cell{{1, 1}, {2, 1}, {3, 1}, {3, 2}, {2, 2}}
	if len(cells) != len(want) {
		t.Fatalf("Walk returned %d cells, want %d", len(cells), len(want))
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, cells[i], want[i])
		}
	}

	counts := seq.Counts()
	if counts[Down] != 2 || counts[Right] != 1 || counts[Up] != 1 || counts[Left] != 0 {
		t.Errorf("Counts() = %v", counts)
	}
}

func TestOccupancyGridMarkers(t *testing.T) {
	g := MustParseOccupancyGrid(
		"S.#",
		"..E",
	)

	if g.Rows() != 2 || g.Cols() != 3 {
		t.Fatalf("dims = %dx%d, want 2x3", g.Rows(), g.Cols())
	}
	if s, ok := g.Start(); !ok || s != (Cell{0, 0}) {
		t.Errorf("Start() = %v, %v", s, ok)
	}
	if e, ok := g.End(); !ok || e != (Cell{1, 2}) {
		t.Errorf("End() = %v, %v", e, ok)
	}
	if g.State(Cell{0, 2}) != Blocked {
		t.Error("(0,2) should be blocked")
	}
	if g.State(Cell{-1, 0}) != Blocked || g.Passable(Cell{2, 0}) {
		t.Error("out-of-bounds cells should read as blocked")
	}

	// Same-zone start and end keep the START state.
	g.SetEnd(Cell{0, 0})
	if g.State(Cell{0, 0}) != Start || g.State(Cell{1, 2}) != Free {
		t.Errorf("unexpected grid after moving END:\n%s", g)
	}
	if g.String() != "*.#\n..." {
		t.Errorf("String() = %q", g.String())
	}

	// Moving START off a shared zone leaves END behind.
	g.SetStart(Cell{1, 0})
	if g.State(Cell{0, 0}) != End {
		t.Errorf("(0,0) = %v, want END", g.State(Cell{0, 0}))
	}
}

func TestPointZone(t *testing.T) {
	tests := []struct {
		p    Point
		z    int
		want Cell
	}{
		{Point{0, 0}, 8, Cell{0, 0}},
		{Point{7, 7}, 8, Cell{0, 0}},
		{Point{8, 17}, 8, Cell{2, 1}},
		{Point{-1, 0}, 8, Cell{0, -1}},
	}

	for _, tt := range tests {
		if got := tt.p.Zone(tt.z); got != tt.want {
			t.Errorf("%v.Zone(%d) = %v, want %v", tt.p, tt.z, got, tt.want)
		}
	}
}
