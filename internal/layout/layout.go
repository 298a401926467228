package layout

import (
	"fmt"
)

// Zone is one fractional rectangle within a layout. Coordinates and sizes
// are relative to the monitor: 0 <= x,y < 1 and 0 < w,h <= 1. Zones may
// extend past the right/bottom edge and may overlap each other; the
// placement collaborator decides what to do with that.
type Zone struct {
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	W    float64 `json:"w" yaml:"w"`
	H    float64 `json:"h" yaml:"h"`
}

// Layout is a named set of zones. Identity is ID; a user layout shadows a
// built-in template that reuses the same ID.
type Layout struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Zones      []Zone `json:"zones" yaml:"zones"`
	Editable   bool   `json:"editable" yaml:"editable"`
	IsTemplate bool   `json:"is_template" yaml:"is_template"`
}

// ValidationError reports the first invalid field of a layout definition.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

// ValidateZone checks a single zone's numeric ranges.
func ValidateZone(z Zone) error {
	if z.X < 0 || z.X >= 1 {
		return fmt.Errorf("x must be in [0, 1), got %v", z.X)
	}
	if z.Y < 0 || z.Y >= 1 {
		return fmt.Errorf("y must be in [0, 1), got %v", z.Y)
	}
	if z.W <= 0 || z.W > 1 {
		return fmt.Errorf("w must be in (0, 1], got %v", z.W)
	}
	if z.H <= 0 || z.H > 1 {
		return fmt.Errorf("h must be in (0, 1], got %v", z.H)
	}
	return nil
}

// Validate checks required fields and every zone. The first violation is
// returned as a ValidationError naming the offending field.
func Validate(l Layout) error {
	if l.ID == "" {
		return &ValidationError{Path: "id", Err: fmt.Errorf("id is required")}
	}
	if l.Name == "" {
		return &ValidationError{Path: "layouts." + l.ID + ".name", Err: fmt.Errorf("name is required")}
	}
	if len(l.Zones) == 0 {
		return &ValidationError{Path: "layouts." + l.ID + ".zones", Err: fmt.Errorf("zones must not be empty")}
	}
	for i, z := range l.Zones {
		if err := ValidateZone(z); err != nil {
			return &ValidationError{
				Path: fmt.Sprintf("layouts.%s.zones[%d]", l.ID, i),
				Err:  err,
			}
		}
	}
	return nil
}

// CloneZones returns a structural copy of zs. Callers mutating the result
// never affect the source slice.
func CloneZones(zs []Zone) []Zone {
	if zs == nil {
		return nil
	}
	out := make([]Zone, len(zs))
	copy(out, zs)
	return out
}

// Clone returns a deep copy of l.
func Clone(l Layout) Layout {
	out := l
	out.Zones = CloneZones(l.Zones)
	return out
}

// FromTemplate instantiates an editable user layout from a template. The
// new layout gets the fixed id "template-<templateId>" so repeated
// instantiation of the same template overwrites rather than accumulates.
func FromTemplate(t Layout) Layout {
	return Layout{
		ID:         "template-" + t.ID,
		Name:       t.Name,
		Zones:      CloneZones(t.Zones),
		Editable:   true,
		IsTemplate: false,
	}
}
