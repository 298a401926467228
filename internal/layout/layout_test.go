package layout

import (
	"strings"
	"testing"
)

func validLayout(id string) Layout {
	return Layout{
		ID:   id,
		Name: id,
		Zones: []Zone{
			{X: 0, Y: 0, W: 0.5, H: 1},
			{X: 0.5, Y: 0, W: 0.5, H: 1},
		},
		Editable: true,
	}
}

func TestValidateZone_Ranges(t *testing.T) {
	cases := []struct {
		name    string
		zone    Zone
		wantErr bool
	}{
		{"full", Zone{X: 0, Y: 0, W: 1, H: 1}, false},
		{"half", Zone{X: 0.5, Y: 0, W: 0.5, H: 1}, false},
		{"overhang allowed", Zone{X: 0.8, Y: 0.8, W: 0.5, H: 0.5}, false},
		{"negative x", Zone{X: -0.1, Y: 0, W: 0.5, H: 0.5}, true},
		{"x at 1", Zone{X: 1, Y: 0, W: 0.5, H: 0.5}, true},
		{"zero width", Zone{X: 0, Y: 0, W: 0, H: 0.5}, true},
		{"width over 1", Zone{X: 0, Y: 0, W: 1.1, H: 0.5}, true},
		{"negative height", Zone{X: 0, Y: 0, W: 0.5, H: -0.5}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateZone(tc.zone)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %+v", tc.zone)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_NamesOffendingZone(t *testing.T) {
	l := validLayout("bad")
	l.Zones = append(l.Zones, Zone{X: 0, Y: 0, W: 2, H: 1})

	err := Validate(l)
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !strings.Contains(verr.Path, "bad") || !strings.Contains(verr.Path, "zones[2]") {
		t.Fatalf("error path does not name the offending zone: %q", verr.Path)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	noID := validLayout("")
	if Validate(noID) == nil {
		t.Fatal("expected error for missing id")
	}

	noZones := validLayout("empty")
	noZones.Zones = nil
	if Validate(noZones) == nil {
		t.Fatal("expected error for empty zones")
	}
}

func TestTemplates_AllValid(t *testing.T) {
	for _, tmpl := range Templates() {
		if err := Validate(tmpl); err != nil {
			t.Errorf("builtin template %q invalid: %v", tmpl.ID, err)
		}
		if !tmpl.IsTemplate {
			t.Errorf("builtin %q must have IsTemplate set", tmpl.ID)
		}
		if tmpl.Editable {
			t.Errorf("builtin %q must not be editable", tmpl.ID)
		}
	}
}

func TestFromTemplate_DeepCopiesZones(t *testing.T) {
	tmpl := validLayout("halves")
	tmpl.IsTemplate = true
	tmpl.Editable = false

	inst := FromTemplate(tmpl)
	if inst.ID != "template-halves" {
		t.Fatalf("expected id template-halves, got %q", inst.ID)
	}
	if !inst.Editable || inst.IsTemplate {
		t.Fatalf("instance must be editable and not a template: %+v", inst)
	}

	inst.Zones[0].W = 0.25
	if tmpl.Zones[0].W != 0.5 {
		t.Fatalf("mutating instance leaked into template: %v", tmpl.Zones[0])
	}
}

func TestMerge_UserShadowsDefaultByID(t *testing.T) {
	def := validLayout("halves")
	user := validLayout("halves")
	user.Zones = []Zone{{X: 0, Y: 0, W: 1, H: 1}}

	c, rejected := Merge([]Layout{def}, []Layout{user})
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", rejected)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after shadowing, got %d", c.Len())
	}
	got, ok := c.Get("halves")
	if !ok {
		t.Fatal("halves not found")
	}
	if len(got.Zones) != 1 {
		t.Fatalf("expected user layout to shadow default, got %d zones", len(got.Zones))
	}
}

func TestMerge_RejectsInvalidEntriesIndividually(t *testing.T) {
	good := validLayout("good")
	bad := validLayout("bad")
	bad.Zones = []Zone{{X: 0, Y: 0, W: 0, H: 1}}

	c, rejected := Merge([]Layout{good, bad}, nil)
	if c.Len() != 1 {
		t.Fatalf("expected only the valid entry, got %d", c.Len())
	}
	if len(rejected) != 1 {
		t.Fatalf("expected 1 rejection, got %d", len(rejected))
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatal("invalid entry must not be in the catalog")
	}
}

func TestMerge_PreservesDefaultOrder(t *testing.T) {
	c, _ := Merge([]Layout{validLayout("a"), validLayout("b")}, []Layout{validLayout("z")})
	ids := c.IDs()
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "z" {
		t.Fatalf("unexpected order: %v", ids)
	}
	first, ok := c.First()
	if !ok || first.ID != "a" {
		t.Fatalf("expected first entry a, got %+v ok=%v", first, ok)
	}
}

func TestMerge_CatalogIsolatedFromInput(t *testing.T) {
	src := validLayout("iso")
	c, _ := Merge([]Layout{src}, nil)

	src.Zones[0].W = 0.1
	got, _ := c.Get("iso")
	if got.Zones[0].W != 0.5 {
		t.Fatalf("catalog shares zone storage with input: %v", got.Zones[0])
	}
}

func TestRectIn_MapsFractionsToPixels(t *testing.T) {
	bounds := Rect{X: 100, Y: 50, Width: 1920, Height: 1080}
	z := Zone{X: 0.5, Y: 0, W: 0.5, H: 1}

	r := z.RectIn(bounds)
	if r.X != 1060 || r.Y != 50 || r.Width != 960 || r.Height != 1080 {
		t.Fatalf("unexpected rect: %+v", r)
	}
}

func TestRectIn_ClampsToMinimumSize(t *testing.T) {
	bounds := Rect{Width: 10, Height: 10}
	z := Zone{X: 0, Y: 0, W: 0.001, H: 0.001}

	r := z.RectIn(bounds)
	if r.Width != 1 || r.Height != 1 {
		t.Fatalf("expected 1x1, got %dx%d", r.Width, r.Height)
	}
}
