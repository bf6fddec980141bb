package game

// MaterialCatalog is an ordered, read-only list of known materials.
type MaterialCatalog struct {
	list []Material
	byID map[string]int
}

// NewMaterialCatalog keeps the given order. Later duplicates of an id are
// ignored by ByID but still listed.
func NewMaterialCatalog(list []Material) *MaterialCatalog {
	c := &MaterialCatalog{
		list: append([]Material(nil), list...),
		byID: make(map[string]int, len(list)),
	}
	for i, m := range c.list {
		if _, dup := c.byID[m.ID]; !dup && m.ID != "" {
			c.byID[m.ID] = i
		}
	}
	return c
}

// ByID looks a material up by identifier.
func (c *MaterialCatalog) ByID(id string) (Material, bool) {
	if c == nil || id == "" {
		return Material{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Material{}, false
	}
	return c.list[i], true
}

// All returns a copy of the catalog in load order.
func (c *MaterialCatalog) All() []Material {
	if c == nil {
		return nil
	}
	return append([]Material(nil), c.list...)
}

func (c *MaterialCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.list)
}

// First returns the first material, used as the default selection.
func (c *MaterialCatalog) First() (Material, bool) {
	if c.Len() == 0 {
		return Material{}, false
	}
	return c.list[0], true
}
