package mcp

// GetZoneStateInput is the input for the get_zone_state tool.
type GetZoneStateInput struct {
	Space string `json:"space,omitempty" jsonschema:"Space key in <connector>:<workspace> form (default: the active space)"`
}

// ZoneStateInfo describes one space's resolved assignment.
type ZoneStateInfo struct {
	Space     string `json:"space"`
	LayoutID  string `json:"layout_id"`
	ZoneIndex int    `json:"zone_index"`
}

// GetZoneStateOutput is the output for the get_zone_state tool.
type GetZoneStateOutput struct {
	ActiveSpace  string          `json:"active_space,omitempty"`
	LastSelected string          `json:"last_selected,omitempty"`
	Layouts      []string        `json:"layouts"`
	Spaces       []ZoneStateInfo `json:"spaces"`
}

// CycleZoneInput is the input for the cycle_zone tool.
type CycleZoneInput struct {
	Space     string `json:"space,omitempty" jsonschema:"Space key to cycle (default: the active space)"`
	Direction int    `json:"direction,omitempty" jsonschema:"Cycle direction, 1 for forward or -1 for backward (default: 1)"`
}

// CycleZoneOutput is the output for the cycle_zone tool.
type CycleZoneOutput struct {
	Space     string `json:"space"`
	ZoneIndex int    `json:"zone_index"`
	ZoneName  string `json:"zone_name"`
}

// ApplyLayoutInput is the input for the apply_layout tool.
type ApplyLayoutInput struct {
	LayoutID  string `json:"layout_id" jsonschema:"required,Layout id to assign (e.g. halves, thirds, quarters)"`
	Space     string `json:"space,omitempty" jsonschema:"Space key to assign (default: the active space)"`
	ZoneIndex int    `json:"zone_index,omitempty" jsonschema:"Initial zone index (default: 0)"`
}

// ApplyLayoutOutput is the output for the apply_layout tool.
type ApplyLayoutOutput struct {
	Space     string `json:"space"`
	LayoutID  string `json:"layout_id"`
	ZoneIndex int    `json:"zone_index"`
}

// ResourceReportInput is the input for the resource_report tool.
type ResourceReportInput struct {
	Reset bool `json:"reset,omitempty" jsonschema:"When true, clear resource tracking after reporting"`
}

// ResourceReportOutput is the output for the resource_report tool.
type ResourceReportOutput struct {
	Outstanding int            `json:"outstanding"`
	Leaked      map[string]int `json:"leaked,omitempty"`
	Components  []string       `json:"components_with_leaks,omitempty"`
}
