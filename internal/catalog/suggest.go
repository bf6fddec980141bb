package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the material id closest to id, for "did you mean" hints
// on bad client input. ok is false when nothing is reasonably close.
func (c *Catalog) Suggest(id string) (best string, ok bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return "", false
	}
	limit := len(id) / 3
	if limit < 2 {
		limit = 2
	}
	bestDist := limit + 1
	for _, m := range c.Materials.All() {
		d := levenshtein.ComputeDistance(id, strings.ToLower(m.ID))
		if d < bestDist {
			best, bestDist = m.ID, d
		}
	}
	if bestDist > limit {
		return "", false
	}
	return best, true
}
