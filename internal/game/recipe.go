// internal/game/recipe.go
//
// Recipes and recipe catalogs.
// Responsibilities:
//   - Anchored pattern matching of a recipe against a grid.
//   - First-match-wins lookup across an ordered catalog.
//   - Uniform random order selection from an injectable source.
//
// Matching is anchored at the grid origin: the recipe's Width×Height window
// starting at (0,0) is compared cell by cell and everything outside that
// footprint is ignored. A recipe never matches a pattern placed elsewhere.

package game

import "time"

// Recipe is an immutable pattern of required materials plus order metadata.
// Pattern is row-major (index = y*Width + x); a zero Material means the cell
// must be empty.
type Recipe struct {
	ResultName string
	Art        string
	Width      int
	Height     int
	Pattern    []Material
	Points     int
	TimeLimit  time.Duration
}

// At returns the required material at (x,y). Out-of-range coordinates and
// truncated patterns yield the zero Material.
func (r *Recipe) At(x, y int) Material {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return Material{}
	}
	idx := y*r.Width + x
	if idx >= len(r.Pattern) {
		return Material{}
	}
	return r.Pattern[idx]
}

// Valid reports whether the dimensions are positive and the pattern length
// equals Width*Height.
func (r *Recipe) Valid() bool {
	return r.Width > 0 && r.Height > 0 && len(r.Pattern) == r.Width*r.Height
}

// Matches reports whether the recipe's footprint at the grid origin holds
// exactly the required materials. Corrupt recipes and grids smaller than the
// recipe never match.
func (r *Recipe) Matches(g Cells) bool {
	if r == nil || g == nil || !r.Valid() {
		return false
	}
	if g.Width() < r.Width || g.Height() < r.Height {
		return false
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			placed, _ := g.At(x, y)
			if placed != r.Pattern[y*r.Width+x] {
				return false
			}
		}
	}
	return true
}

// RequiredMaterials lists the distinct non-empty materials of the pattern in
// first-appearance order.
func (r *Recipe) RequiredMaterials() []Material {
	if r == nil {
		return nil
	}
	seen := make(map[Material]struct{}, len(r.Pattern))
	var out []Material
	for _, m := range r.Pattern {
		if m.IsZero() {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// FitPattern returns a copy whose pattern is resized to
// max(1,Width)*max(1,Height), truncating or padding with empty cells.
func (r Recipe) FitPattern() Recipe {
	r.Width = max(1, r.Width)
	r.Height = max(1, r.Height)
	target := r.Width * r.Height
	if len(r.Pattern) == target {
		r.Pattern = append([]Material(nil), r.Pattern...)
		return r
	}
	fitted := make([]Material, target)
	copy(fitted, r.Pattern)
	r.Pattern = fitted
	return r
}

// Rand is the random source used to draw orders. *math/rand/v2.Rand
// satisfies it.
type Rand interface {
	IntN(n int) int
}

// RecipeCatalog is an ordered, read-only list of recipes. Order decides
// match priority.
type RecipeCatalog struct {
	recipes []*Recipe
}

// NewRecipeCatalog copies the given recipes, preserving order.
func NewRecipeCatalog(list []Recipe) *RecipeCatalog {
	c := &RecipeCatalog{recipes: make([]*Recipe, len(list))}
	for i := range list {
		c.recipes[i] = list[i].clone()
	}
	return c
}

// clone copies r including its pattern, so holders of the copy cannot
// reach the catalog's recipes.
func (r *Recipe) clone() *Recipe {
	if r == nil {
		return nil
	}
	c := *r
	c.Pattern = append([]Material(nil), r.Pattern...)
	return &c
}

func (c *RecipeCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.recipes)
}

// All returns copies of the recipes in catalog order.
func (c *RecipeCatalog) All() []*Recipe {
	if c == nil {
		return nil
	}
	out := make([]*Recipe, len(c.recipes))
	for i, r := range c.recipes {
		out[i] = r.clone()
	}
	return out
}

// FindMatch returns the first recipe in catalog order that matches g, or nil.
// FindMatch and PickRandom hand out the catalog's own recipes; they are
// read-only.
func (c *RecipeCatalog) FindMatch(g Cells) *Recipe {
	if c == nil {
		return nil
	}
	for _, r := range c.recipes {
		if r.Matches(g) {
			return r
		}
	}
	return nil
}

// PickRandom draws uniformly over the catalog. It returns nil for an empty
// catalog or a nil source.
func (c *RecipeCatalog) PickRandom(rng Rand) *Recipe {
	if c.Len() == 0 || rng == nil {
		return nil
	}
	return c.recipes[rng.IntN(len(c.recipes))]
}
