package layout

// Catalog is the merged set of built-in templates and user layouts,
// ordered and indexed by id.
type Catalog struct {
	layouts []Layout
	byID    map[string]int
}

// Merge builds a catalog from defaults and user overrides. User entries
// shadow defaults with an identical id (replacement, not merging). Every
// entry is validated; an invalid entry is rejected individually and
// reported in the returned slice rather than failing the whole load, so a
// single corrupt user layout never takes down the catalog.
func Merge(defaults, overrides []Layout) (*Catalog, []error) {
	c := &Catalog{byID: make(map[string]int)}
	var rejected []error

	add := func(l Layout) {
		if err := Validate(l); err != nil {
			rejected = append(rejected, err)
			return
		}
		l = Clone(l)
		if i, ok := c.byID[l.ID]; ok {
			c.layouts[i] = l
			return
		}
		c.byID[l.ID] = len(c.layouts)
		c.layouts = append(c.layouts, l)
	}

	for _, l := range defaults {
		add(l)
	}
	for _, l := range overrides {
		add(l)
	}
	return c, rejected
}

// Get returns the layout with the given id.
func (c *Catalog) Get(id string) (Layout, bool) {
	if c == nil {
		return Layout{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Layout{}, false
	}
	return c.layouts[i], true
}

// First returns the first catalog entry, the final resolution fallback.
func (c *Catalog) First() (Layout, bool) {
	if c == nil || len(c.layouts) == 0 {
		return Layout{}, false
	}
	return c.layouts[0], true
}

// All returns the catalog entries in order. The slice is shared; callers
// must not mutate it.
func (c *Catalog) All() []Layout {
	if c == nil {
		return nil
	}
	return c.layouts
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.layouts)
}

// IDs returns the set of valid layout ids, in catalog order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.layouts))
	for i, l := range c.layouts {
		out[i] = l.ID
	}
	return out
}

// IDSet returns the valid ids as a set, for orphan cleanup.
func (c *Catalog) IDSet() map[string]struct{} {
	out := make(map[string]struct{}, c.Len())
	if c != nil {
		for _, l := range c.layouts {
			out[l.ID] = struct{}{}
		}
	}
	return out
}
