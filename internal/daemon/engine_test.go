package daemon

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/1broseidon/zonetile/internal/config"
	"github.com/1broseidon/zonetile/internal/ipc"
	"github.com/1broseidon/zonetile/internal/layout"
	"github.com/1broseidon/zonetile/internal/ledger"
	"github.com/1broseidon/zonetile/internal/persist"
	"github.com/1broseidon/zonetile/internal/spatial"
)

type fakeIdentity struct {
	primary    string
	active     string
	workspace  int
	workspaces int
}

func (f *fakeIdentity) PrimaryConnector() (string, error) { return f.primary, nil }
func (f *fakeIdentity) ActiveConnector() (string, error)  { return f.active, nil }
func (f *fakeIdentity) ActiveWorkspace() (int, error)     { return f.workspace, nil }
func (f *fakeIdentity) WorkspaceCount() (int, error)      { return f.workspaces, nil }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SweepIntervalSeconds = 0
	return cfg
}

func newTestEngine(t *testing.T, kv persist.KV) *Engine {
	t.Helper()
	return newTestEngineWithConfig(t, kv, testConfig())
}

func newTestEngineWithConfig(t *testing.T, kv persist.KV, cfg *config.Config) *Engine {
	t.Helper()
	ident := &fakeIdentity{primary: "eDP-1", active: "eDP-1", workspace: 0, workspaces: 4}
	eng, err := New(cfg, kv, ident, ledger.New(slog.Default()), slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func TestEngine_StartLoadsTemplates(t *testing.T) {
	eng := newTestEngine(t, persist.NewMemKV())
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	state, err := eng.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(state.Layouts) != len(layout.Templates()) {
		t.Errorf("got %d layouts, want %d", len(state.Layouts), len(layout.Templates()))
	}
	if state.ActiveSpace != "eDP-1:0" {
		t.Errorf("active space = %q, want eDP-1:0", state.ActiveSpace)
	}
}

func TestEngine_DoubleStartFails(t *testing.T) {
	eng := newTestEngine(t, persist.NewMemKV())
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	if err := eng.Start(); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestEngine_ShutdownWithoutStart(t *testing.T) {
	eng := newTestEngine(t, persist.NewMemKV())
	eng.Shutdown() // must not panic
	eng.Shutdown()
}

func TestEngine_TriggerSetCurrentAndCycle(t *testing.T) {
	eng := newTestEngine(t, persist.NewMemKV())
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	res, err := eng.Trigger(ipc.TriggerActionPayload{
		Action:   ipc.ActionSetCurrent,
		Space:    "eDP-1:0",
		LayoutID: "quarters",
	})
	if err != nil {
		t.Fatalf("set_current: %v", err)
	}
	if res.LayoutID != "quarters" {
		t.Errorf("layout = %q, want quarters", res.LayoutID)
	}

	res, err = eng.Trigger(ipc.TriggerActionPayload{
		Action: ipc.ActionCycleZone,
		Space:  "eDP-1:0",
	})
	if err != nil {
		t.Fatalf("cycle_zone: %v", err)
	}
	if res.ZoneIndex != 1 {
		t.Errorf("zone index = %d, want 1", res.ZoneIndex)
	}
}

func TestEngine_TriggerDefaultsToActiveSpace(t *testing.T) {
	eng := newTestEngine(t, persist.NewMemKV())
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	res, err := eng.Trigger(ipc.TriggerActionPayload{Action: ipc.ActionCycleZone})
	if err != nil {
		t.Fatalf("cycle_zone: %v", err)
	}
	if res.Space != "eDP-1:0" {
		t.Errorf("space = %q, want eDP-1:0", res.Space)
	}
}

func TestEngine_SetCurrentUnknownLayout(t *testing.T) {
	eng := newTestEngine(t, persist.NewMemKV())
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	_, err := eng.Trigger(ipc.TriggerActionPayload{
		Action:   ipc.ActionSetCurrent,
		Space:    "eDP-1:0",
		LayoutID: "no-such-layout",
	})
	if err == nil {
		t.Fatal("expected unknown layout to fail")
	}
	var nfe *spatial.NotFoundError
	if !asNotFound(err, &nfe) {
		t.Errorf("error type = %T, want *spatial.NotFoundError", err)
	}
}

func asNotFound(err error, target **spatial.NotFoundError) bool {
	nfe, ok := err.(*spatial.NotFoundError)
	if ok {
		*target = nfe
	}
	return ok
}

func TestEngine_LegacyMigration(t *testing.T) {
	kv := persist.NewMemKV()
	legacy, _ := json.Marshal(map[string]string{"0": "halves", "2": "thirds"})
	if err := kv.SetString(persist.KeyLegacyWorkspaces, string(legacy)); err != nil {
		t.Fatal(err)
	}

	eng := newTestEngine(t, kv)
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	state, err := eng.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if got := state.Spaces["eDP-1:0"]; got.LayoutID != "halves" || got.ZoneIndex != 0 {
		t.Errorf("eDP-1:0 = %+v, want halves @0", got)
	}
	if got := state.Spaces["eDP-1:2"]; got.LayoutID != "thirds" {
		t.Errorf("eDP-1:2 = %+v, want thirds", got)
	}
}

func TestEngine_LegacyMigrationDropsOutOfRangeWorkspaces(t *testing.T) {
	kv := persist.NewMemKV()
	legacy, _ := json.Marshal(map[string]string{"0": "halves", "2": "thirds", "9": "quarters"})
	if err := kv.SetString(persist.KeyLegacyWorkspaces, string(legacy)); err != nil {
		t.Fatal(err)
	}

	// The fake identity reports 4 workspaces, so index 9 cannot belong
	// to any live space.
	eng := newTestEngine(t, kv)
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	state, err := eng.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(state.Spaces) != 2 {
		t.Fatalf("got %d spaces, want 2: %+v", len(state.Spaces), state.Spaces)
	}
	if _, ok := state.Spaces["eDP-1:9"]; ok {
		t.Error("workspace 9 migrated despite only 4 workspaces existing")
	}
}

func TestEngine_DefaultLayoutSeedsFreshResolution(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultLayout = "thirds"

	eng := newTestEngineWithConfig(t, persist.NewMemKV(), cfg)
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	// Nothing selected anywhere yet: the first cycle must start from the
	// configured default, not from the first catalog entry.
	result, err := eng.Trigger(ipc.TriggerActionPayload{Action: ipc.ActionCycleZone})
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if result.ZoneIndex != 1 {
		t.Errorf("zone index = %d, want 1", result.ZoneIndex)
	}

	state, err := eng.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if got := state.Spaces["eDP-1:0"]; got.LayoutID != "thirds" {
		t.Errorf("eDP-1:0 layout = %q, want the configured default thirds", got.LayoutID)
	}
}

func TestEngine_ReloadCatalogReportsRejected(t *testing.T) {
	kv := persist.NewMemKV()
	stored, _ := json.Marshal([]layout.Layout{
		{ID: "ok", Name: "OK", Zones: []layout.Zone{{Name: "z", X: 0, Y: 0, W: 1, H: 1}}},
		{ID: "broken", Name: "Broken", Zones: []layout.Zone{{Name: "z", X: 1.5, Y: 0, W: 0.5, H: 1}}},
	})
	if err := kv.SetString(persist.KeyUserLayouts, string(stored)); err != nil {
		t.Fatal(err)
	}

	eng := newTestEngine(t, kv)
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	result, err := eng.Trigger(ipc.TriggerActionPayload{Action: ipc.ActionReloadCatalog})
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if result.Rejected != 1 {
		t.Errorf("rejected = %d, want 1", result.Rejected)
	}
}

func TestEngine_SaveUserLayoutShadowsTemplate(t *testing.T) {
	kv := persist.NewMemKV()
	eng := newTestEngine(t, kv)
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	custom := layout.Layout{
		ID:   "halves",
		Name: "Uneven Halves",
		Zones: []layout.Zone{
			{Name: "left", X: 0, Y: 0, W: 0.7, H: 1},
			{Name: "right", X: 0.7, Y: 0, W: 0.3, H: 1},
		},
		Editable: true,
	}
	if err := eng.SaveUserLayout(custom); err != nil {
		t.Fatalf("SaveUserLayout: %v", err)
	}

	state, err := eng.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	found := false
	for _, l := range state.Layouts {
		if l.ID == "halves" {
			found = true
			if l.Name != "Uneven Halves" {
				t.Errorf("halves name = %q, user layout should shadow template", l.Name)
			}
		}
	}
	if !found {
		t.Error("halves missing from catalog")
	}
	// Still the same number of layouts: shadowed, not appended.
	if len(state.Layouts) != len(layout.Templates()) {
		t.Errorf("got %d layouts, want %d", len(state.Layouts), len(layout.Templates()))
	}
}

func TestEngine_SaveUserLayoutRejectsInvalid(t *testing.T) {
	eng := newTestEngine(t, persist.NewMemKV())
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	bad := layout.Layout{
		ID:    "bad",
		Name:  "Bad",
		Zones: []layout.Zone{{Name: "z", X: 1.5, Y: 0, W: 0.5, H: 1}},
	}
	if err := eng.SaveUserLayout(bad); err == nil {
		t.Fatal("expected invalid layout to be rejected")
	}
}

func TestEngine_CleanupOrphansAction(t *testing.T) {
	eng := newTestEngine(t, persist.NewMemKV())
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Shutdown()

	if _, err := eng.Trigger(ipc.TriggerActionPayload{
		Action:   ipc.ActionSetCurrent,
		Space:    "eDP-1:0",
		LayoutID: "thirds",
	}); err != nil {
		t.Fatalf("set_current: %v", err)
	}

	res, err := eng.Trigger(ipc.TriggerActionPayload{Action: ipc.ActionCleanupOrphans})
	if err != nil {
		t.Fatalf("cleanup_orphans: %v", err)
	}
	if res.Removed != 0 {
		t.Errorf("removed = %d, want 0 for live state", res.Removed)
	}
}

func TestEngine_ResourceLifecycle(t *testing.T) {
	ldg := ledger.New(slog.Default())
	ident := &fakeIdentity{primary: "eDP-1", active: "eDP-1", workspace: 0}

	for i := 0; i < 5; i++ {
		eng, err := New(testConfig(), persist.NewMemKV(), ident, ldg, slog.Default())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := eng.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		eng.Shutdown()
	}

	if n := ldg.Outstanding(); n != 0 {
		t.Errorf("outstanding handles after repeated start/shutdown = %d, want 0", n)
	}
	report := ldg.Report()
	if len(report.LeakedByCategory) != 0 {
		t.Errorf("leaks reported: %+v", report)
	}
}

func TestEngine_ResetResourceTracking(t *testing.T) {
	ldg := ledger.New(slog.Default())
	ident := &fakeIdentity{primary: "eDP-1", active: "eDP-1", workspace: 0}
	eng, err := New(testConfig(), persist.NewMemKV(), ident, ldg, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	report, err := eng.ResourceReport()
	if err != nil {
		t.Fatalf("ResourceReport: %v", err)
	}
	if report.Outstanding == 0 {
		t.Error("expected outstanding handles while running")
	}

	eng.ResetResourceTracking()
	report, _ = eng.ResourceReport()
	if report.Outstanding != 0 {
		t.Errorf("outstanding after reset = %d, want 0", report.Outstanding)
	}

	eng.Shutdown()
}
