package mcp

import (
	"context"
	"testing"

	"github.com/1broseidon/zonetile/internal/ipc"
	"github.com/1broseidon/zonetile/internal/layout"
	"github.com/1broseidon/zonetile/internal/ledger"
	"github.com/1broseidon/zonetile/internal/spatial"
)

type fakeClient struct {
	lastTrigger ipc.TriggerActionPayload
	resetCalled bool
}

func (f *fakeClient) Ping() error { return nil }

func (f *fakeClient) GetState() (*ipc.StateData, error) {
	return &ipc.StateData{
		Layouts: []layout.Layout{
			{ID: "halves", Name: "Halves"},
			{ID: "thirds", Name: "Thirds"},
		},
		Spaces: map[spatial.SpaceKey]ipc.SpaceState{
			"eDP-1:0":  {LayoutID: "halves", ZoneIndex: 1},
			"HDMI-1:0": {LayoutID: "thirds", ZoneIndex: 0},
		},
		LastSelected: "halves",
		ActiveSpace:  "eDP-1:0",
	}, nil
}

func (f *fakeClient) GetResourceReport() (*ipc.ReportData, error) {
	return &ipc.ReportData{
		Report: ledger.Report{
			LeakedByCategory:    map[ledger.Category]int{ledger.CategoryTimer: 2},
			ComponentsWithLeaks: []string{"sched"},
		},
		Outstanding: 5,
	}, nil
}

func (f *fakeClient) Trigger(p ipc.TriggerActionPayload) (*ipc.ActionResult, error) {
	f.lastTrigger = p
	return &ipc.ActionResult{
		Space:     "eDP-1:0",
		LayoutID:  p.LayoutID,
		ZoneIndex: 1,
		ZoneName:  "right",
	}, nil
}

func (f *fakeClient) ResetResourceTracking() error {
	f.resetCalled = true
	return nil
}

func TestGetZoneState(t *testing.T) {
	s := newServerWithClient(&fakeClient{})

	_, out, err := s.handleGetZoneState(context.Background(), nil, GetZoneStateInput{})
	if err != nil {
		t.Fatalf("handleGetZoneState: %v", err)
	}
	if len(out.Layouts) != 2 {
		t.Errorf("layouts = %v, want 2 entries", out.Layouts)
	}
	if len(out.Spaces) != 2 {
		t.Fatalf("spaces = %v, want 2 entries", out.Spaces)
	}
	// Sorted by space key.
	if out.Spaces[0].Space != "HDMI-1:0" || out.Spaces[1].Space != "eDP-1:0" {
		t.Errorf("spaces not sorted: %+v", out.Spaces)
	}
	if out.ActiveSpace != "eDP-1:0" {
		t.Errorf("active space = %q", out.ActiveSpace)
	}
}

func TestGetZoneState_FilterBySpace(t *testing.T) {
	s := newServerWithClient(&fakeClient{})

	_, out, err := s.handleGetZoneState(context.Background(), nil, GetZoneStateInput{Space: "HDMI-1:0"})
	if err != nil {
		t.Fatalf("handleGetZoneState: %v", err)
	}
	if len(out.Spaces) != 1 || out.Spaces[0].Space != "HDMI-1:0" {
		t.Errorf("filtered spaces = %+v", out.Spaces)
	}
}

func TestCycleZone_DefaultsForward(t *testing.T) {
	client := &fakeClient{}
	s := newServerWithClient(client)

	_, out, err := s.handleCycleZone(context.Background(), nil, CycleZoneInput{Space: "eDP-1:0"})
	if err != nil {
		t.Fatalf("handleCycleZone: %v", err)
	}
	if client.lastTrigger.Direction != 1 {
		t.Errorf("direction = %d, want 1", client.lastTrigger.Direction)
	}
	if out.ZoneName != "right" {
		t.Errorf("zone name = %q", out.ZoneName)
	}
}

func TestCycleZone_RejectsBadDirection(t *testing.T) {
	s := newServerWithClient(&fakeClient{})

	if _, _, err := s.handleCycleZone(context.Background(), nil, CycleZoneInput{Direction: 3}); err == nil {
		t.Fatal("expected direction 3 to be rejected")
	}
}

func TestApplyLayout(t *testing.T) {
	client := &fakeClient{}
	s := newServerWithClient(client)

	_, out, err := s.handleApplyLayout(context.Background(), nil, ApplyLayoutInput{LayoutID: "thirds"})
	if err != nil {
		t.Fatalf("handleApplyLayout: %v", err)
	}
	if client.lastTrigger.Action != ipc.ActionSetCurrent {
		t.Errorf("action = %q", client.lastTrigger.Action)
	}
	if out.LayoutID != "thirds" {
		t.Errorf("layout = %q", out.LayoutID)
	}
}

func TestApplyLayout_RequiresID(t *testing.T) {
	s := newServerWithClient(&fakeClient{})

	if _, _, err := s.handleApplyLayout(context.Background(), nil, ApplyLayoutInput{}); err == nil {
		t.Fatal("expected missing layout_id to fail")
	}
}

func TestResourceReport(t *testing.T) {
	client := &fakeClient{}
	s := newServerWithClient(client)

	_, out, err := s.handleResourceReport(context.Background(), nil, ResourceReportInput{})
	if err != nil {
		t.Fatalf("handleResourceReport: %v", err)
	}
	if out.Outstanding != 5 {
		t.Errorf("outstanding = %d, want 5", out.Outstanding)
	}
	if out.Leaked["timer"] != 2 {
		t.Errorf("leaked = %v", out.Leaked)
	}
	if client.resetCalled {
		t.Error("reset should not be called without the flag")
	}
}

func TestResourceReport_Reset(t *testing.T) {
	client := &fakeClient{}
	s := newServerWithClient(client)

	if _, _, err := s.handleResourceReport(context.Background(), nil, ResourceReportInput{Reset: true}); err != nil {
		t.Fatalf("handleResourceReport: %v", err)
	}
	if !client.resetCalled {
		t.Error("reset flag should clear tracking")
	}
}
