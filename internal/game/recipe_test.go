package game

import (
	"testing"
	"time"
)

// fixedRand always returns the same index (mod n).
type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func pattern(w, h int, cells map[[2]int]Material) []Material {
	p := make([]Material, w*h)
	for xy, m := range cells {
		p[xy[1]*w+xy[0]] = m
	}
	return p
}

func TestMatchesFailsOnSmallerGrid(t *testing.T) {
	r := &Recipe{ResultName: "Wide", Width: 3, Height: 1, Pattern: []Material{{}, {}, {}}}
	for _, dims := range [][2]int{{2, 3}, {2, 1}} {
		g := newTestGrid(t, dims[0], dims[1])
		if r.Matches(g) {
			t.Fatalf("matched a %dx%d grid with a 3x1 recipe", dims[0], dims[1])
		}
	}
	tall := &Recipe{Width: 1, Height: 4, Pattern: make([]Material, 4)}
	if tall.Matches(newTestGrid(t, 5, 3)) {
		t.Fatalf("matched a grid shorter than the recipe")
	}
}

func TestMatchesAnchoredAtOrigin(t *testing.T) {
	r := &Recipe{
		ResultName: "Nail",
		Width:      3,
		Height:     3,
		Pattern:    pattern(3, 3, map[[2]int]Material{{0, 0}: iron}),
	}

	g := newTestGrid(t, 4, 4)
	g.Place(0, 0, iron)
	if !r.Matches(g) {
		t.Fatalf("expected match with iron at origin")
	}

	// Outside the 3x3 footprint: ignored.
	g.Place(3, 3, gem)
	g.Place(3, 0, wood)
	if !r.Matches(g) {
		t.Fatalf("tokens outside the footprint broke the match")
	}

	// Inside the footprint where the pattern wants empty: no match.
	g.Place(2, 2, gem)
	if r.Matches(g) {
		t.Fatalf("matched with an extra token inside the footprint")
	}
}

func TestMatchesDoesNotTranslate(t *testing.T) {
	r := &Recipe{Width: 1, Height: 1, Pattern: []Material{iron}}
	g := newTestGrid(t, 3, 3)
	g.Place(1, 1, iron)
	if r.Matches(g) {
		t.Fatalf("pattern matched away from the origin")
	}
}

func TestMatchesRequiresExactMaterial(t *testing.T) {
	r := &Recipe{Width: 2, Height: 1, Pattern: []Material{iron, wood}}
	g := newTestGrid(t, 2, 1)
	g.Place(0, 0, iron)
	g.Place(1, 0, gem)
	if r.Matches(g) {
		t.Fatalf("gem accepted where wood is required")
	}
	g.ClearCell(1, 0)
	if r.Matches(g) {
		t.Fatalf("empty cell accepted where wood is required")
	}
	g.Place(1, 0, wood)
	if !r.Matches(g) {
		t.Fatalf("expected match")
	}
}

func TestCorruptRecipesNeverMatchOrPanic(t *testing.T) {
	g := newTestGrid(t, 3, 3)
	tests := []struct {
		name string
		r    *Recipe
	}{
		{"short pattern", &Recipe{Width: 3, Height: 3, Pattern: make([]Material, 4)}},
		{"long pattern", &Recipe{Width: 1, Height: 1, Pattern: make([]Material, 2)}},
		{"zero width", &Recipe{Width: 0, Height: 1}},
		{"negative height", &Recipe{Width: 1, Height: -2}},
		{"nil pattern", &Recipe{Width: 2, Height: 2}},
	}
	for _, tc := range tests {
		if tc.r.Matches(g) {
			t.Fatalf("%s: matched", tc.name)
		}
		_ = tc.r.At(2, 2)
	}
	var nilRecipe *Recipe
	if nilRecipe.Matches(g) {
		t.Fatalf("nil recipe matched")
	}
}

func TestFindMatchFirstWinsByCatalogOrder(t *testing.T) {
	first := Recipe{ResultName: "Dagger", Width: 1, Height: 1, Pattern: []Material{iron}}
	second := Recipe{ResultName: "Spike", Width: 1, Height: 1, Pattern: []Material{iron}}
	g := newTestGrid(t, 3, 3)
	g.Place(0, 0, iron)

	got := NewRecipeCatalog([]Recipe{first, second}).FindMatch(g)
	if got == nil || got.ResultName != "Dagger" {
		t.Fatalf("got %+v, want Dagger", got)
	}
	got = NewRecipeCatalog([]Recipe{second, first}).FindMatch(g)
	if got == nil || got.ResultName != "Spike" {
		t.Fatalf("got %+v, want Spike", got)
	}
}

func TestFindMatchNone(t *testing.T) {
	g := newTestGrid(t, 2, 2)
	g.Place(0, 0, gem)
	if NewRecipeCatalog(nil).FindMatch(g) != nil {
		t.Fatalf("empty catalog matched")
	}
	c := NewRecipeCatalog([]Recipe{{ResultName: "Dagger", Width: 1, Height: 1, Pattern: []Material{iron}}})
	if c.FindMatch(g) != nil {
		t.Fatalf("unexpected match")
	}
	var nilCatalog *RecipeCatalog
	if nilCatalog.FindMatch(g) != nil {
		t.Fatalf("nil catalog matched")
	}
}

func TestCatalogRecipesCannotBeMutated(t *testing.T) {
	src := []Recipe{{ResultName: "Dagger", Width: 1, Height: 1, Pattern: []Material{iron}}}
	c := NewRecipeCatalog(src)
	src[0].Pattern[0] = wood
	c.All()[0].Pattern[0] = wood
	c.All()[0].Width = 2

	g := newTestGrid(t, 2, 2)
	g.Place(0, 0, iron)
	if got := c.FindMatch(g); got == nil || got.Width != 1 {
		t.Fatalf("catalog recipe changed through a copy: %+v", got)
	}
}

func TestPickRandom(t *testing.T) {
	if NewRecipeCatalog(nil).PickRandom(NewRand(1)) != nil {
		t.Fatalf("empty catalog picked a recipe")
	}

	list := []Recipe{{ResultName: "A"}, {ResultName: "B"}, {ResultName: "C"}}
	c := NewRecipeCatalog(list)
	if got := c.PickRandom(fixedRand(4)); got.ResultName != "B" {
		t.Fatalf("fixed pick got %s want B", got.ResultName)
	}

	seen := map[string]int{}
	rng := NewRand(7)
	for i := 0; i < 300; i++ {
		seen[c.PickRandom(rng).ResultName]++
	}
	for _, r := range list {
		if seen[r.ResultName] == 0 {
			t.Fatalf("recipe %s never picked in 300 draws: %v", r.ResultName, seen)
		}
	}

	a, b := NewRand(99), NewRand(99)
	for i := 0; i < 20; i++ {
		if c.PickRandom(a) != c.PickRandom(b) {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
}

func TestRequiredMaterialsUniqueInOrder(t *testing.T) {
	r := &Recipe{Width: 3, Height: 2, Pattern: []Material{{}, wood, iron, wood, {}, iron}}
	got := r.RequiredMaterials()
	if len(got) != 2 || got[0] != wood || got[1] != iron {
		t.Fatalf("got %v, want [wood iron]", got)
	}
	empty := &Recipe{Width: 1, Height: 1, Pattern: []Material{{}}}
	if len(empty.RequiredMaterials()) != 0 {
		t.Fatalf("expected no required materials")
	}
}

func TestFitPattern(t *testing.T) {
	short := Recipe{Width: 2, Height: 2, Pattern: []Material{iron}, TimeLimit: time.Second}
	fit := short.FitPattern()
	if !fit.Valid() || fit.Pattern[0] != iron || len(short.Pattern) != 1 {
		t.Fatalf("pad: got %+v (orig %+v)", fit, short)
	}

	long := Recipe{Width: 1, Height: 1, Pattern: []Material{gem, iron, wood}}
	if fit := long.FitPattern(); len(fit.Pattern) != 1 || fit.Pattern[0] != gem {
		t.Fatalf("truncate: got %+v", fit.Pattern)
	}

	zero := Recipe{}
	if fit := zero.FitPattern(); fit.Width != 1 || fit.Height != 1 || len(fit.Pattern) != 1 {
		t.Fatalf("zero dims: got %+v", fit)
	}
}

func TestSeededRandDeterministic(t *testing.T) {
	a, b := NewRand(12345), NewRand(12345)
	for i := 0; i < 20; i++ {
		if x, y := a.IntN(100000), b.IntN(100000); x != y {
			t.Fatalf("mismatch at %d: %d != %d", i, x, y)
		}
	}
	if seedWord(99, "a") == seedWord(99, "b") {
		t.Fatalf("expected different seed words for different salts")
	}
}

func TestCeilSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{30 * time.Second, 30},
	}
	for _, tc := range tests {
		if got := CeilSeconds(tc.in); got != tc.want {
			t.Fatalf("CeilSeconds(%v)=%d want=%d", tc.in, got, tc.want)
		}
	}
}
