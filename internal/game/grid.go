// internal/game/grid.go
//
// Fixed-size 2D matrix of optional material tokens.
// Responsibilities:
//   - Bounds-checked placement and removal.
//   - Immutable snapshots for rendering and matching.
//
// Cells are stored row-major (index = y*Width + x). The grid never emits
// notifications; that is the Session's job.

package game

// Cells is a read-only view of a width×height matrix of materials.
// Both *Grid and Snapshot implement it.
type Cells interface {
	Width() int
	Height() int
	At(x, y int) (Material, bool)
}

// Grid holds the mutable board owned by a Session.
type Grid struct {
	w, h  int
	cells []Material
}

// NewGrid allocates an empty w×h grid.
func NewGrid(w, h int) (*Grid, error) {
	if w < 1 || h < 1 {
		return nil, ErrInvalidGrid
	}
	return &Grid{w: w, h: h, cells: make([]Material, w*h)}, nil
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

// IsInside reports whether (x,y) lies in [0,W)×[0,H).
func (g *Grid) IsInside(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

// IsEmpty is false for out-of-bounds coordinates.
func (g *Grid) IsEmpty(x, y int) bool {
	return g.IsInside(x, y) && g.cells[y*g.w+x].IsZero()
}

// At returns the material at (x,y); ok is false when the cell is empty or
// out of bounds.
func (g *Grid) At(x, y int) (Material, bool) {
	if !g.IsInside(x, y) {
		return Material{}, false
	}
	m := g.cells[y*g.w+x]
	return m, !m.IsZero()
}

// Place stores m at (x,y). It fails without mutation when the coordinates
// are out of bounds, the cell is occupied, or m is the zero material.
func (g *Grid) Place(x, y int, m Material) bool {
	if m.IsZero() || !g.IsEmpty(x, y) {
		return false
	}
	g.cells[y*g.w+x] = m
	return true
}

// ClearCell empties (x,y). It fails when out of bounds or already empty.
func (g *Grid) ClearCell(x, y int) bool {
	if !g.IsInside(x, y) || g.IsEmpty(x, y) {
		return false
	}
	g.cells[y*g.w+x] = Material{}
	return true
}

// ClearAll empties every cell.
func (g *Grid) ClearAll() {
	for i := range g.cells {
		g.cells[i] = Material{}
	}
}

// Count returns the number of occupied cells.
func (g *Grid) Count() int {
	n := 0
	for _, m := range g.cells {
		if !m.IsZero() {
			n++
		}
	}
	return n
}

// Snapshot copies the current contents.
func (g *Grid) Snapshot() Snapshot {
	cp := make([]Material, len(g.cells))
	copy(cp, g.cells)
	return Snapshot{w: g.w, h: g.h, cells: cp}
}

// Snapshot is an immutable copy of a grid.
type Snapshot struct {
	w, h  int
	cells []Material
}

func (s Snapshot) Width() int  { return s.w }
func (s Snapshot) Height() int { return s.h }

func (s Snapshot) At(x, y int) (Material, bool) {
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return Material{}, false
	}
	m := s.cells[y*s.w+x]
	return m, !m.IsZero()
}

// Rows returns the contents as row slices, y-major, for serialization.
func (s Snapshot) Rows() [][]Material {
	out := make([][]Material, s.h)
	for y := 0; y < s.h; y++ {
		row := make([]Material, s.w)
		copy(row, s.cells[y*s.w:(y+1)*s.w])
		out[y] = row
	}
	return out
}
