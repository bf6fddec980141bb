package events

import "github.com/robalobadob/forgerush/apps/go-server/internal/game"

// Wire shapes shared by event payloads and the HTTP state view.

type MaterialView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// GridView lists cells row by row; an empty cell is "".
type GridView struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Cells  [][]string `json:"cells"`
}

type RecipeView struct {
	Name        string     `json:"name"`
	Art         string     `json:"art,omitempty"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Points      int        `json:"points"`
	TimeLimitMs int64      `json:"timeLimitMs"`
	Pattern     [][]string `json:"pattern"`
}

// ViewMaterial returns nil for the empty material.
func ViewMaterial(m game.Material) *MaterialView {
	if m.IsZero() {
		return nil
	}
	return &MaterialView{ID: m.ID, Name: m.Name, Icon: m.Icon}
}

func ViewMaterials(ms []game.Material) []MaterialView {
	out := make([]MaterialView, 0, len(ms))
	for _, m := range ms {
		out = append(out, MaterialView{ID: m.ID, Name: m.Name, Icon: m.Icon})
	}
	return out
}

func ViewGrid(s game.Snapshot) GridView {
	v := GridView{Width: s.Width(), Height: s.Height(), Cells: make([][]string, 0, s.Height())}
	for _, row := range s.Rows() {
		ids := make([]string, len(row))
		for x, m := range row {
			ids[x] = m.ID
		}
		v.Cells = append(v.Cells, ids)
	}
	return v
}

// ViewRecipe returns nil for a nil recipe. Pattern cells out of range of a
// corrupt pattern read as empty.
func ViewRecipe(r *game.Recipe) *RecipeView {
	if r == nil {
		return nil
	}
	v := &RecipeView{
		Name:        r.ResultName,
		Art:         r.Art,
		Width:       r.Width,
		Height:      r.Height,
		Points:      r.Points,
		TimeLimitMs: r.TimeLimit.Milliseconds(),
	}
	for y := 0; y < r.Height; y++ {
		row := make([]string, 0, max(r.Width, 0))
		for x := 0; x < r.Width; x++ {
			row = append(row, r.At(x, y).ID)
		}
		v.Pattern = append(v.Pattern, row)
	}
	return v
}
