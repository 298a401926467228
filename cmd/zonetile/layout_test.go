package main

import (
	"testing"

	"github.com/1broseidon/zonetile/internal/layout"
)

func TestParseZones(t *testing.T) {
	zones, err := parseZones("left 0 0 0.5 1\nright 0.5 0 0.5 1\n")
	if err != nil {
		t.Fatalf("parseZones: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("got %d zones, want 2", len(zones))
	}
	if zones[0].Name != "left" || zones[0].W != 0.5 {
		t.Errorf("zone 0 = %+v", zones[0])
	}
	if zones[1].X != 0.5 {
		t.Errorf("zone 1 = %+v", zones[1])
	}
}

func TestParseZones_SkipsBlankLines(t *testing.T) {
	zones, err := parseZones("\nfull 0 0 1 1\n\n")
	if err != nil {
		t.Fatalf("parseZones: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("got %d zones, want 1", len(zones))
	}
}

func TestInstantiateTemplate(t *testing.T) {
	layouts := layout.Templates()

	l, err := instantiateTemplate("thirds", layouts)
	if err != nil {
		t.Fatalf("instantiateTemplate: %v", err)
	}
	if l.ID != "template-thirds" {
		t.Errorf("id = %q, want template-thirds", l.ID)
	}
	if !l.Editable || l.IsTemplate {
		t.Errorf("copy not editable: editable=%v template=%v", l.Editable, l.IsTemplate)
	}
	if len(l.Zones) != 3 {
		t.Fatalf("got %d zones, want 3", len(l.Zones))
	}

	// Zones must be copied, not shared with the template.
	l.Zones[0].W = 0.9
	if layouts[1].Zones[0].W == 0.9 {
		t.Error("mutating the copy changed the template")
	}
}

func TestInstantiateTemplate_Errors(t *testing.T) {
	layouts := append(layout.Templates(), layout.Layout{
		ID:       "mine",
		Name:     "Mine",
		Zones:    []layout.Zone{{Name: "full", X: 0, Y: 0, W: 1, H: 1}},
		Editable: true,
	})

	if _, err := instantiateTemplate("missing", layouts); err == nil {
		t.Error("unknown id accepted")
	}
	if _, err := instantiateTemplate("mine", layouts); err == nil {
		t.Error("non-template layout accepted as a template")
	}
}

func TestParseZones_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"wrong field count", "left 0 0 0.5"},
		{"bad number", "left a 0 0.5 1"},
		{"out of range", "left 1.5 0 0.5 1"},
		{"zero size", "left 0 0 0 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseZones(tt.in); err == nil {
				t.Errorf("parseZones(%q) succeeded, want error", tt.in)
			}
		})
	}
}
