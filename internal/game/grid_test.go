package game

import (
	"errors"
	"testing"
)

var (
	iron = Material{ID: "iron", Name: "Iron Ingot", Icon: "icon_iron"}
	wood = Material{ID: "wood", Name: "Oak Plank", Icon: "icon_wood"}
	gem  = Material{ID: "gem", Name: "Ruby", Icon: "icon_gem"}
)

func newTestGrid(t *testing.T, w, h int) *Grid {
	t.Helper()
	g, err := NewGrid(w, h)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	return g
}

func TestNewGridRejectsEmptyDimensions(t *testing.T) {
	for _, tc := range []struct{ w, h int }{{0, 3}, {3, 0}, {-1, 2}} {
		if _, err := NewGrid(tc.w, tc.h); !errors.Is(err, ErrInvalidGrid) {
			t.Fatalf("NewGrid(%d,%d) err=%v want ErrInvalidGrid", tc.w, tc.h, err)
		}
	}
}

func TestPlaceThenClearEveryInsideCell(t *testing.T) {
	g := newTestGrid(t, 3, 2)
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if !g.Place(x, y, iron) {
				t.Fatalf("place (%d,%d) failed", x, y)
			}
			if g.IsEmpty(x, y) {
				t.Fatalf("cell (%d,%d) empty after place", x, y)
			}
			if !g.ClearCell(x, y) {
				t.Fatalf("clear (%d,%d) failed", x, y)
			}
			if !g.IsEmpty(x, y) {
				t.Fatalf("cell (%d,%d) occupied after clear", x, y)
			}
		}
	}
}

func TestOutOfBoundsNeverMutates(t *testing.T) {
	g := newTestGrid(t, 2, 2)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {5, 5}} {
		if g.IsInside(p[0], p[1]) {
			t.Fatalf("(%d,%d) reported inside", p[0], p[1])
		}
		if g.Place(p[0], p[1], iron) {
			t.Fatalf("place (%d,%d) succeeded out of bounds", p[0], p[1])
		}
		if g.ClearCell(p[0], p[1]) {
			t.Fatalf("clear (%d,%d) succeeded out of bounds", p[0], p[1])
		}
		if g.IsEmpty(p[0], p[1]) {
			t.Fatalf("(%d,%d) reported empty out of bounds", p[0], p[1])
		}
	}
	if n := g.Count(); n != 0 {
		t.Fatalf("expected untouched grid, got %d tokens", n)
	}
}

func TestPlaceRejectsOccupiedAndZeroMaterial(t *testing.T) {
	g := newTestGrid(t, 2, 2)
	if g.Place(0, 0, Material{}) {
		t.Fatalf("zero material placed")
	}
	if !g.Place(0, 0, iron) {
		t.Fatalf("first place failed")
	}
	if g.Place(0, 0, wood) {
		t.Fatalf("occupied cell overwritten")
	}
	if m, _ := g.At(0, 0); m != iron {
		t.Fatalf("cell holds %v, want iron", m)
	}
	if g.ClearCell(1, 1) {
		t.Fatalf("cleared an empty cell")
	}
}

func TestClearAllAndSnapshotIsolation(t *testing.T) {
	g := newTestGrid(t, 3, 3)
	g.Place(0, 0, iron)
	g.Place(2, 1, gem)

	snap := g.Snapshot()
	g.ClearAll()

	if g.Count() != 0 {
		t.Fatalf("ClearAll left tokens")
	}
	if m, ok := snap.At(2, 1); !ok || m != gem {
		t.Fatalf("snapshot changed with grid: %v %v", m, ok)
	}
	rows := snap.Rows()
	if len(rows) != 3 || len(rows[0]) != 3 || rows[1][2] != gem {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
