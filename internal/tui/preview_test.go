package tui

import (
	"strings"
	"testing"

	"github.com/1broseidon/zonetile/internal/layout"
)

func halvesLayout() layout.Layout {
	return layout.Layout{
		ID:   "halves",
		Name: "Halves",
		Zones: []layout.Zone{
			{Name: "left", X: 0, Y: 0, W: 0.5, H: 1},
			{Name: "right", X: 0.5, Y: 0, W: 0.5, H: 1},
		},
	}
}

func TestRenderPreview_Dimensions(t *testing.T) {
	lines := RenderPreview(halvesLayout(), 40, 12, -1)
	if len(lines) != 12 {
		t.Fatalf("got %d lines, want 12", len(lines))
	}
	for i, line := range lines {
		if got := len([]rune(line)); got != 40 {
			t.Errorf("line %d width = %d, want 40", i, got)
		}
	}
}

func TestRenderPreview_DrawsZoneNumbers(t *testing.T) {
	joined := strings.Join(RenderPreview(halvesLayout(), 40, 12, -1), "\n")
	if !strings.Contains(joined, "1") {
		t.Error("preview missing zone 1 label")
	}
	if !strings.Contains(joined, "2") {
		t.Error("preview missing zone 2 label")
	}
}

func TestRenderPreview_HighlightFillsZone(t *testing.T) {
	plain := strings.Join(RenderPreview(halvesLayout(), 40, 12, -1), "\n")
	highlighted := strings.Join(RenderPreview(halvesLayout(), 40, 12, 0), "\n")
	if strings.Contains(plain, "░") {
		t.Error("unhighlighted preview should not contain fill")
	}
	if !strings.Contains(highlighted, "░") {
		t.Error("highlighted preview should contain fill")
	}
}

func TestRenderPreview_TinyCanvas(t *testing.T) {
	lines := RenderPreview(halvesLayout(), 3, 2, 0)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			t.Errorf("tiny canvas should be blank, got %q", line)
		}
	}
}

func TestRenderPreview_NoZones(t *testing.T) {
	lines := RenderPreview(layout.Layout{ID: "empty"}, 20, 6, -1)
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			t.Errorf("zoneless layout should render blank, got %q", line)
		}
	}
}

func TestSummarizeLayout(t *testing.T) {
	got := summarizeLayout(halvesLayout())
	want := "2 zones: left, right"
	if got != want {
		t.Errorf("summarizeLayout = %q, want %q", got, want)
	}

	if got := summarizeLayout(layout.Layout{}); got != "no zones" {
		t.Errorf("empty summary = %q, want %q", got, "no zones")
	}
}
