// internal/catalog/catalog.go
//
// Loads the static game configuration: materials, recipes and rules.
//
// Sources (Load):
//   1. If a path is given, read that file (YAML or JSON).
//   2. Otherwise use the catalog embedded in the assets package.
//
// Every document is validated against the embedded JSON Schema before it is
// decoded. Structural problems (unknown material ids, duplicate ids, schema
// violations) are load errors. A recipe whose pattern is not exactly height
// rows of width cells is kept with a warning: it can never match, so a bad
// entry degrades one order instead of the whole game. With FitPatterns each
// row is cut or padded to the declared footprint instead.
//
// Pattern cells: a material id, or "." / "" for a cell that must be empty.

package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/forgerush/apps/go-server/assets"
	"github.com/robalobadob/forgerush/apps/go-server/internal/game"
)

// Defaults for fields a recipe may omit.
const (
	DefaultPoints    = 10
	DefaultTimeLimit = 30 * time.Second
	emptyCell        = "."
)

// Catalog is the immutable configuration shared by every session.
type Catalog struct {
	Materials *game.MaterialCatalog
	Recipes   *game.RecipeCatalog
	Rules     game.Rules

	Source   string   // file path, or "embedded"
	Digest   string   // sha256 of the raw document
	Warnings []string // non-fatal problems found while loading
}

// Options tune loading.
type Options struct {
	// FitPatterns resizes malformed recipe patterns to width×height.
	FitPatterns bool
}

type document struct {
	Materials []materialDoc `yaml:"materials"`
	Recipes   []recipeDoc   `yaml:"recipes"`
	Rules     rulesDoc      `yaml:"rules"`
}

type materialDoc struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

type recipeDoc struct {
	Name      string     `yaml:"name"`
	Art       string     `yaml:"art"`
	Width     int        `yaml:"width"`
	Height    int        `yaml:"height"`
	Points    *int       `yaml:"points"`
	TimeLimit *float64   `yaml:"time_limit"`
	Pattern   [][]string `yaml:"pattern"`
}

type rulesDoc struct {
	WrongForgePenalty  *int  `yaml:"wrong_forge_penalty"`
	DefeatOnOutOfMoves *bool `yaml:"defeat_on_out_of_moves"`
	DefeatOnTimeout    *bool `yaml:"defeat_on_timeout"`
	ClampScoreToZero   *bool `yaml:"clamp_score_to_zero"`
	NewOrderOnTimeout  *bool `yaml:"new_order_on_timeout"`
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string, opts Options) (*Catalog, error) {
	if path == "" {
		raw, err := assets.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("catalog: read embedded: %w", err)
		}
		return Parse(raw, "embedded", opts)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return Parse(raw, path, opts)
}

// Parse validates and decodes a catalog document.
func Parse(raw []byte, source string, opts Options) (*Catalog, error) {
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", source, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", source, err)
	}

	c := &Catalog{Source: source, Digest: sha256Hex(raw)}

	mats, err := buildMaterials(doc.Materials)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", source, err)
	}
	c.Materials = mats

	recipes := make([]game.Recipe, 0, len(doc.Recipes))
	for i, rd := range doc.Recipes {
		r, shaped, err := buildRecipe(rd, mats)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: recipes[%d] %q: %w", source, i, rd.Name, err)
		}
		if !shaped || !r.Valid() {
			msg := fmt.Sprintf("recipe %q: pattern is not %d rows of %d cells", r.ResultName, r.Height, r.Width)
			if opts.FitPatterns {
				r = r.FitPattern()
				msg += "; resized"
			} else {
				r.Pattern = nil
				msg += "; it will never match"
			}
			c.Warnings = append(c.Warnings, msg)
			log.Warn().Str("catalog", source).Msg(msg)
		}
		recipes = append(recipes, r)
	}
	c.Recipes = game.NewRecipeCatalog(recipes)
	c.Rules = doc.Rules.apply(game.DefaultRules())

	if c.Recipes.Len() == 0 {
		c.Warnings = append(c.Warnings, "no recipes; sessions will have no orders")
		log.Warn().Str("catalog", source).Msg("catalog has no recipes")
	}
	return c, nil
}

// Material resolves a material id.
func (c *Catalog) Material(id string) (game.Material, bool) {
	return c.Materials.ByID(id)
}

func buildMaterials(docs []materialDoc) (*game.MaterialCatalog, error) {
	list := make([]game.Material, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("duplicate material id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		name := d.Name
		if name == "" {
			name = d.ID
		}
		list = append(list, game.Material{ID: d.ID, Name: name, Icon: d.Icon})
	}
	return game.NewMaterialCatalog(list), nil
}

// buildRecipe lays the pattern out row by row. shaped reports whether the
// rows were exactly Height rows of Width cells; otherwise cells outside the
// declared footprint are dropped and missing ones left empty.
func buildRecipe(d recipeDoc, mats *game.MaterialCatalog) (r game.Recipe, shaped bool, err error) {
	r = game.Recipe{
		ResultName: d.Name,
		Art:        d.Art,
		Width:      d.Width,
		Height:     d.Height,
		Points:     DefaultPoints,
		TimeLimit:  DefaultTimeLimit,
	}
	if d.Points != nil {
		r.Points = *d.Points
	}
	if d.TimeLimit != nil {
		r.TimeLimit = time.Duration(*d.TimeLimit * float64(time.Second))
	}
	// Without a usable footprint the cells are kept in reading order.
	flat := d.Width <= 0 || d.Height <= 0
	shaped = !flat && len(d.Pattern) == d.Height
	if !flat {
		r.Pattern = make([]game.Material, d.Width*d.Height)
	}
	for y, row := range d.Pattern {
		if len(row) != d.Width {
			shaped = false
		}
		for x, id := range row {
			var m game.Material
			if id = strings.TrimSpace(id); id != "" && id != emptyCell {
				var ok bool
				if m, ok = mats.ByID(id); !ok {
					return game.Recipe{}, false, fmt.Errorf("pattern[%d][%d]: unknown material %q", y, x, id)
				}
			}
			switch {
			case flat:
				r.Pattern = append(r.Pattern, m)
			case x < d.Width && y < d.Height:
				r.Pattern[y*d.Width+x] = m
			}
		}
	}
	return r, shaped, nil
}

func (d rulesDoc) apply(r game.Rules) game.Rules {
	if d.WrongForgePenalty != nil {
		r.WrongForgePenalty = *d.WrongForgePenalty
	}
	if d.DefeatOnOutOfMoves != nil {
		r.DefeatOnOutOfMoves = *d.DefeatOnOutOfMoves
	}
	if d.DefeatOnTimeout != nil {
		r.DefeatOnTimeout = *d.DefeatOnTimeout
	}
	if d.ClampScoreToZero != nil {
		r.ClampScoreToZero = *d.ClampScoreToZero
	}
	if d.NewOrderOnTimeout != nil {
		r.NewOrderOnTimeout = *d.NewOrderOnTimeout
	}
	return r
}

// --- schema ---

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		text, err := assets.CatalogSchema()
		if err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = jsonschema.CompileString(assets.CatalogSchemaURL, text)
	})
	return schema, schemaErr
}

// validate checks raw against the catalog schema. YAML is round-tripped
// through JSON so the validator sees plain JSON values.
func validate(raw []byte) error {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}
	if generic == nil {
		return errors.New("empty document")
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("not a JSON-compatible document: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return s.Validate(v)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
