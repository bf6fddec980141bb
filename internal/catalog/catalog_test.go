package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/forgerush/apps/go-server/internal/game"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	c, err := Load("", Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Source != "embedded" || len(c.Digest) != 64 {
		t.Fatalf("unexpected source/digest: %q %q", c.Source, c.Digest)
	}
	if c.Materials.Len() == 0 || c.Recipes.Len() == 0 {
		t.Fatalf("empty default catalog")
	}
	if len(c.Warnings) != 0 {
		t.Fatalf("default catalog has warnings: %v", c.Warnings)
	}
	for _, r := range c.Recipes.All() {
		if !r.Valid() {
			t.Fatalf("recipe %s invalid", r.ResultName)
		}
	}
	if c.Rules != game.DefaultRules() {
		t.Fatalf("rules %+v differ from defaults", c.Rules)
	}
}

func TestEmbeddedDaggerMatches(t *testing.T) {
	c, err := Load("", Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	iron, _ := c.Material("iron")
	wood, _ := c.Material("wood")

	g, _ := game.NewGrid(3, 3)
	g.Place(1, 0, iron)
	g.Place(1, 1, iron)
	g.Place(1, 2, wood)

	r := c.Recipes.FindMatch(g)
	if r == nil || r.ResultName != "Dagger" {
		t.Fatalf("got %+v want Dagger", r)
	}
	if r.TimeLimit != 30*time.Second || r.Points != 10 {
		t.Fatalf("dagger fields: %+v", r)
	}
}

const minimal = `
materials:
  - { id: iron, name: Iron }
  - { id: wood }
recipes:
  - name: Nail
    width: 1
    height: 1
    pattern: [[iron]]
rules:
  wrong_forge_penalty: 2
  defeat_on_timeout: false
`

func TestParseDefaultsAndRuleOverrides(t *testing.T) {
	c, err := Parse([]byte(minimal), "test", Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r := c.Recipes.All()[0]
	if r.Points != DefaultPoints || r.TimeLimit != DefaultTimeLimit {
		t.Fatalf("defaults not applied: %+v", r)
	}
	wood, _ := c.Material("wood")
	if wood.Name != "wood" {
		t.Fatalf("name should default to id, got %q", wood.Name)
	}
	want := game.DefaultRules()
	want.WrongForgePenalty = 2
	want.DefeatOnTimeout = false
	if c.Rules != want {
		t.Fatalf("rules got %+v want %+v", c.Rules, want)
	}
}

func TestParseAcceptsJSON(t *testing.T) {
	doc := `{"materials":[{"id":"iron"}],"recipes":[{"name":"Nail","width":1,"height":1,"time_limit":2.5,"pattern":[["iron"]]}]}`
	c, err := Parse([]byte(doc), "json", Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := c.Recipes.All()[0].TimeLimit; got != 2500*time.Millisecond {
		t.Fatalf("time limit %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty document"},
		{"unknown material", "materials: [{id: iron}]\nrecipes: [{name: X, width: 1, height: 1, pattern: [[gold]]}]\n", `unknown material "gold"`},
		{"duplicate material", "materials: [{id: iron}, {id: iron}]\nrecipes: []\n", "duplicate material"},
		{"schema: missing recipes", "materials: [{id: iron}]\n", "recipes"},
		{"schema: unknown field", "materials: []\nrecipes: []\nextra: 1\n", "extra"},
		{"schema: negative penalty", "materials: []\nrecipes: []\nrules: {wrong_forge_penalty: -1}\n", "wrong_forge_penalty"},
		{"schema: dot id", "materials: [{id: .}]\nrecipes: []\n", "id"},
	}
	for _, tc := range tests {
		_, err := Parse([]byte(tc.doc), "bad", Options{})
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

const malformed = `
materials: [{id: iron}]
recipes:
  - name: Broken
    width: 2
    height: 2
    pattern: [[iron]]
`

func TestMalformedRecipeKeptWithWarning(t *testing.T) {
	c, err := Parse([]byte(malformed), "test", Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Warnings) != 1 || !strings.Contains(c.Warnings[0], "never match") {
		t.Fatalf("warnings: %v", c.Warnings)
	}
	r := c.Recipes.All()[0]
	if r.Valid() {
		t.Fatalf("recipe should stay malformed")
	}

	g, _ := game.NewGrid(3, 3)
	iron, _ := c.Material("iron")
	g.Place(0, 0, iron)
	if c.Recipes.FindMatch(g) != nil {
		t.Fatalf("malformed recipe matched")
	}
}

func TestMalformedRecipeFitted(t *testing.T) {
	c, err := Parse([]byte(malformed), "test", Options{FitPatterns: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r := c.Recipes.All()[0]
	if !r.Valid() || !strings.Contains(c.Warnings[0], "resized") {
		t.Fatalf("expected resized recipe, got %+v warnings=%v", r, c.Warnings)
	}

	g, _ := game.NewGrid(3, 3)
	iron, _ := c.Material("iron")
	g.Place(0, 0, iron)
	if got := c.Recipes.FindMatch(g); got == nil || got.ResultName != "Broken" {
		t.Fatalf("fitted recipe did not match: %+v", got)
	}
}

const ragged = `
materials: [{id: iron}]
recipes:
  - name: Ragged
    width: 3
    height: 3
    pattern:
      - [".", iron]
      - [".", ".", ".", "."]
      - [".", ".", "."]
`

func TestRaggedRowsKeptWithWarning(t *testing.T) {
	c, err := Parse([]byte(ragged), "test", Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Warnings) != 1 || !strings.Contains(c.Warnings[0], "never match") {
		t.Fatalf("warnings: %v", c.Warnings)
	}
	r := c.Recipes.All()[0]
	if r.Valid() {
		t.Fatalf("ragged recipe should stay malformed")
	}

	g, _ := game.NewGrid(3, 3)
	iron, _ := c.Material("iron")
	g.Place(1, 0, iron)
	if c.Recipes.FindMatch(g) != nil {
		t.Fatalf("ragged recipe matched")
	}
}

func TestRaggedRowsFittedPerRow(t *testing.T) {
	c, err := Parse([]byte(ragged), "test", Options{FitPatterns: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Warnings) != 1 || !strings.Contains(c.Warnings[0], "resized") {
		t.Fatalf("warnings: %v", c.Warnings)
	}
	r := c.Recipes.All()[0]
	iron, _ := c.Material("iron")
	if !r.Valid() || r.At(1, 0) != iron || r.At(0, 1) != (game.Material{}) {
		t.Fatalf("fitted recipe %+v", r)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Source != path || c.Recipes.Len() != 1 {
		t.Fatalf("unexpected catalog: %+v", c)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDigestTracksContent(t *testing.T) {
	a, _ := Parse([]byte(minimal), "a", Options{})
	b, _ := Parse([]byte(minimal), "b", Options{})
	c, _ := Parse([]byte(minimal+"\n# changed\n"), "c", Options{})
	if a.Digest != b.Digest || a.Digest == c.Digest {
		t.Fatalf("digests: %s %s %s", a.Digest, b.Digest, c.Digest)
	}
}

func TestSuggest(t *testing.T) {
	c, err := Load("", Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"irn", "iron", true},
		{"Wod", "wood", true},
		{"lether", "leather", true},
		{"", "", false},
		{"platinum", "", false},
	}
	for _, tc := range tests {
		got, ok := c.Suggest(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("Suggest(%q)=%q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
