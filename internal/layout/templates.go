package layout

// Templates returns the built-in layout library.
//
// These are always available without needing to be defined in YAML or the
// persisted override catalog. They are immutable: user layouts may shadow
// them by reusing an id, but the templates themselves are never edited or
// removed.
func Templates() []Layout {
	return []Layout{
		{
			ID:         "halves",
			Name:       "Halves",
			IsTemplate: true,
			Zones: []Zone{
				{Name: "left", X: 0, Y: 0, W: 0.5, H: 1},
				{Name: "right", X: 0.5, Y: 0, W: 0.5, H: 1},
			},
		},
		{
			ID:         "thirds",
			Name:       "Thirds",
			IsTemplate: true,
			Zones: []Zone{
				{Name: "left", X: 0, Y: 0, W: 1.0 / 3, H: 1},
				{Name: "center", X: 1.0 / 3, Y: 0, W: 1.0 / 3, H: 1},
				{Name: "right", X: 2.0 / 3, Y: 0, W: 1.0 / 3, H: 1},
			},
		},
		{
			ID:         "quarters",
			Name:       "Quarters",
			IsTemplate: true,
			Zones: []Zone{
				{Name: "top-left", X: 0, Y: 0, W: 0.5, H: 0.5},
				{Name: "top-right", X: 0.5, Y: 0, W: 0.5, H: 0.5},
				{Name: "bottom-left", X: 0, Y: 0.5, W: 0.5, H: 0.5},
				{Name: "bottom-right", X: 0.5, Y: 0.5, W: 0.5, H: 0.5},
			},
		},
		{
			ID:         "main-side",
			Name:       "Main + Side",
			IsTemplate: true,
			Zones: []Zone{
				{Name: "main", X: 0, Y: 0, W: 0.65, H: 1},
				{Name: "side-top", X: 0.65, Y: 0, W: 0.35, H: 0.5},
				{Name: "side-bottom", X: 0.65, Y: 0.5, W: 0.35, H: 0.5},
			},
		},
		{
			ID:         "focus",
			Name:       "Focus",
			IsTemplate: true,
			Zones: []Zone{
				{Name: "focus", X: 0.15, Y: 0.1, W: 0.7, H: 0.8},
				{Name: "full", X: 0, Y: 0, W: 1, H: 1},
			},
		},
		{
			ID:         "rows",
			Name:       "Rows",
			IsTemplate: true,
			Zones: []Zone{
				{Name: "top", X: 0, Y: 0, W: 1, H: 0.5},
				{Name: "bottom", X: 0, Y: 0.5, W: 1, H: 0.5},
			},
		},
	}
}

// DefaultTemplateID seeds the config's default_layout when the user
// does not set one.
const DefaultTemplateID = "halves"
