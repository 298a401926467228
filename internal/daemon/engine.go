package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/zonetile/internal/actionlog"
	"github.com/1broseidon/zonetile/internal/config"
	"github.com/1broseidon/zonetile/internal/ipc"
	"github.com/1broseidon/zonetile/internal/layout"
	"github.com/1broseidon/zonetile/internal/ledger"
	"github.com/1broseidon/zonetile/internal/persist"
	"github.com/1broseidon/zonetile/internal/sched"
	"github.com/1broseidon/zonetile/internal/spatial"
)

// Identity resolves which monitor and workspace the daemon is acting on.
// The X11 connection satisfies it; tests substitute a fixture.
type Identity interface {
	PrimaryConnector() (string, error)
	ActiveConnector() (string, error)
	ActiveWorkspace() (int, error)
	WorkspaceCount() (int, error)
}

const engineOwner = "engine"

// Engine owns the layout catalog and per-space zone state, and dispatches
// the actions exposed over IPC and hotkeys. It implements ipc.Controller.
type Engine struct {
	cfg      *config.Config
	kv       persist.KV
	identity Identity
	ledger   *ledger.Ledger
	sched    *sched.Scheduler
	store    *spatial.Store
	actions  *actionlog.Logger
	logger   *slog.Logger

	mu        sync.Mutex
	catalog   *layout.Catalog
	started   bool
	handle    ledger.HandleID
	teardowns []func()
}

// New creates an engine. Start must be called before dispatching actions.
func New(cfg *config.Config, kv persist.KV, identity Identity, ldg *ledger.Ledger, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lc := cfg.GetLoggingConfig()
	actions, err := actionlog.NewLogger(actionlog.LogConfig{
		Enabled:   lc.Enabled,
		Level:     actionlog.ParseLogLevel(lc.Level),
		FilePath:  lc.File,
		MaxSizeMB: lc.MaxSizeMB,
		MaxFiles:  lc.MaxFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open action log: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		kv:       kv,
		identity: identity,
		ledger:   ldg,
		sched:    sched.New("sched", ldg),
		store:    spatial.NewStore(kv, logger),
		actions:  actions,
		logger:   logger,
	}, nil
}

// Start loads the catalog, migrates legacy workspace state and begins the
// periodic orphan sweep. Calling Start on a started engine is an error.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine already started")
	}

	catalog, rejected := e.loadCatalog()
	e.catalog = catalog
	e.store.SetCatalog(catalog)
	e.store.SetDefault(e.cfg.DefaultLayout)
	if rejected > 0 {
		e.actions.Log(actionlog.ActionCatalogReload, "", map[string]interface{}{
			"accepted": catalog.Len(),
			"rejected": rejected,
		})
	}

	if legacy := spatial.LoadLegacy(e.kv); len(legacy) > 0 {
		primary, err := e.identity.PrimaryConnector()
		if err != nil {
			e.logger.Warn("primary connector unavailable, skipping legacy migration", "error", err)
		} else {
			// Legacy indices beyond the WM's desktop count would mint
			// spaces no workspace can ever resolve to.
			if count, err := e.identity.WorkspaceCount(); err == nil && count > 0 {
				for idx := range legacy {
					if idx >= count {
						e.logger.Warn("dropping legacy entry beyond workspace count",
							"workspace", idx, "count", count)
						delete(legacy, idx)
					}
				}
			}
			if n := e.store.MigrateLegacy(legacy, primary); n > 0 {
				e.actions.Log(actionlog.ActionMigrate, "", map[string]interface{}{
					"migrated":  n,
					"connector": primary,
				})
			}
		}
	}

	e.handle = e.ledger.Acquire(ledger.CategorySignal, engineOwner)

	if e.cfg.SweepIntervalSeconds > 0 {
		interval := time.Duration(e.cfg.SweepIntervalSeconds) * time.Second
		e.sched.Every(interval, func() {
			e.sweepOrphans()
		})
	}

	e.started = true
	e.logger.Info("engine started", "layouts", catalog.Len())
	return nil
}

// RegisterTeardown adds a hook that Shutdown runs before reporting the
// engine's own teardown. Used to wire hotkey and IPC cleanup.
func (e *Engine) RegisterTeardown(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teardowns = append(e.teardowns, fn)
}

// Shutdown tears down timers and registered hooks, then audits the ledger.
// Idempotent, and safe to call on an engine that never started.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	teardowns := e.teardowns
	e.teardowns = nil
	e.mu.Unlock()

	for _, fn := range teardowns {
		fn()
	}

	e.sched.Shutdown()
	e.ledger.Release(e.handle)
	e.ledger.ComponentTornDown(engineOwner)
	e.actions.Close()

	report := e.ledger.Report()
	if len(report.LeakedByCategory) > 0 {
		e.logger.Warn("resource leaks detected at shutdown",
			"leaked", report.LeakedByCategory,
			"components", report.ComponentsWithLeaks)
	} else {
		e.logger.Info("engine stopped, no resource leaks")
	}
}

// loadCatalog merges built-in templates with user layouts from the config
// file and the persisted store. Invalid entries are rejected one by one;
// the count comes back so callers can report it.
func (e *Engine) loadCatalog() (*layout.Catalog, int) {
	overrides := e.cfg.UserLayouts()
	overrides = append(overrides, e.loadStoredLayouts()...)

	catalog, rejected := layout.Merge(layout.Templates(), overrides)
	for _, err := range rejected {
		e.logger.Warn("rejected layout", "error", err)
	}
	return catalog, len(rejected)
}

func (e *Engine) loadStoredLayouts() []layout.Layout {
	raw, err := e.kv.GetString(persist.KeyUserLayouts)
	if err != nil || raw == "" {
		return nil
	}

	var layouts []layout.Layout
	if err := json.Unmarshal([]byte(raw), &layouts); err != nil {
		e.logger.Warn("ignoring corrupt stored layouts", "error", err)
		return nil
	}
	for i := range layouts {
		layouts[i].Editable = true
	}
	return layouts
}

// SaveUserLayout persists a user layout and reloads the catalog so the
// new definition takes effect immediately.
func (e *Engine) SaveUserLayout(l layout.Layout) error {
	if err := layout.Validate(l); err != nil {
		return err
	}

	stored := e.loadStoredLayouts()
	replaced := false
	for i := range stored {
		if stored[i].ID == l.ID {
			stored[i] = layout.Clone(l)
			replaced = true
			break
		}
	}
	if !replaced {
		stored = append(stored, layout.Clone(l))
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode layouts: %w", err)
	}
	if err := e.kv.SetString(persist.KeyUserLayouts, string(data)); err != nil {
		return fmt.Errorf("failed to persist layouts: %w", err)
	}

	e.reloadCatalog()
	return nil
}

func (e *Engine) reloadCatalog() (accepted, rejected int) {
	catalog, rejected := e.loadCatalog()
	e.mu.Lock()
	e.catalog = catalog
	e.mu.Unlock()
	e.store.SetCatalog(catalog)
	return catalog.Len(), rejected
}

func (e *Engine) currentCatalog() *layout.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

func (e *Engine) sweepOrphans() {
	catalog := e.currentCatalog()
	if catalog == nil {
		return
	}
	if removed := e.store.CleanupOrphans(catalog.IDSet()); removed > 0 {
		e.logger.Info("removed orphaned space state", "count", removed)
		e.actions.Log(actionlog.ActionCleanupOrphans, "", map[string]interface{}{
			"removed": removed,
		})
	}
}

// ActiveSpace resolves the space key for the focused monitor and current
// workspace.
func (e *Engine) ActiveSpace() (spatial.SpaceKey, error) {
	connector, err := e.identity.ActiveConnector()
	if err != nil {
		return "", fmt.Errorf("failed to resolve active monitor: %w", err)
	}
	workspace, err := e.identity.ActiveWorkspace()
	if err != nil {
		return "", fmt.Errorf("failed to resolve active workspace: %w", err)
	}
	return spatial.Key(connector, workspace), nil
}

// CycleActive advances the active space's zone selection. Hotkeys call
// this directly; IPC reaches it through Trigger.
func (e *Engine) CycleActive(direction int) (layout.Zone, int, error) {
	key, err := e.ActiveSpace()
	if err != nil {
		return layout.Zone{}, 0, err
	}
	return e.cycleSpace(key, direction)
}

func (e *Engine) cycleSpace(key spatial.SpaceKey, direction int) (layout.Zone, int, error) {
	zone, idx, err := e.store.CycleZone(key, direction)
	if err != nil {
		return layout.Zone{}, 0, err
	}
	e.actions.Log(actionlog.ActionCycleZone, string(key), map[string]interface{}{
		"zone":      zone.Name,
		"index":     idx,
		"direction": direction,
	})
	return zone, idx, nil
}

// State implements ipc.Controller.
func (e *Engine) State() (*ipc.StateData, error) {
	catalog := e.currentCatalog()
	if catalog == nil {
		return nil, fmt.Errorf("engine not started")
	}

	spaces := make(map[spatial.SpaceKey]ipc.SpaceState)
	for key, st := range e.store.States() {
		spaces[key] = ipc.SpaceState{LayoutID: st.LayoutID, ZoneIndex: st.ZoneIndex}
	}

	data := &ipc.StateData{
		Layouts:      catalog.All(),
		Spaces:       spaces,
		LastSelected: e.store.LastSelected(),
	}
	if key, err := e.ActiveSpace(); err == nil {
		data.ActiveSpace = string(key)
	}
	return data, nil
}

// ResourceReport implements ipc.Controller.
func (e *Engine) ResourceReport() (*ipc.ReportData, error) {
	return &ipc.ReportData{
		Report:      e.ledger.Report(),
		Outstanding: e.ledger.Outstanding(),
	}, nil
}

// ResetResourceTracking implements ipc.Controller.
func (e *Engine) ResetResourceTracking() {
	e.ledger.Reset()
	e.actions.Log(actionlog.ActionReset, "", nil)
}

// Trigger implements ipc.Controller. The action set is closed; the IPC
// layer rejects unknown names before dispatch, and the default branch
// here guards direct callers.
func (e *Engine) Trigger(p ipc.TriggerActionPayload) (*ipc.ActionResult, error) {
	switch p.Action {
	case ipc.ActionCycleZone:
		return e.triggerCycle(p)
	case ipc.ActionSetCurrent:
		return e.triggerSetCurrent(p)
	case ipc.ActionReloadCatalog:
		accepted, rejected := e.reloadCatalog()
		e.actions.Log(actionlog.ActionCatalogReload, "", map[string]interface{}{
			"accepted": accepted,
			"rejected": rejected,
		})
		return &ipc.ActionResult{Rejected: rejected}, nil
	case ipc.ActionCleanupOrphans:
		catalog := e.currentCatalog()
		if catalog == nil {
			return nil, fmt.Errorf("engine not started")
		}
		removed := e.store.CleanupOrphans(catalog.IDSet())
		if removed > 0 {
			e.actions.Log(actionlog.ActionCleanupOrphans, "", map[string]interface{}{
				"removed": removed,
			})
		}
		return &ipc.ActionResult{Removed: removed}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", p.Action)
	}
}

func (e *Engine) triggerCycle(p ipc.TriggerActionPayload) (*ipc.ActionResult, error) {
	key, err := e.targetSpace(p.Space)
	if err != nil {
		return nil, err
	}

	direction := p.Direction
	if direction == 0 {
		direction = 1
	}

	zone, idx, err := e.cycleSpace(key, direction)
	if err != nil {
		return nil, err
	}
	return &ipc.ActionResult{
		Space:     string(key),
		ZoneIndex: idx,
		ZoneName:  zone.Name,
	}, nil
}

func (e *Engine) triggerSetCurrent(p ipc.TriggerActionPayload) (*ipc.ActionResult, error) {
	key, err := e.targetSpace(p.Space)
	if err != nil {
		return nil, err
	}
	if p.LayoutID == "" {
		return nil, fmt.Errorf("layout_id is required")
	}

	if err := e.store.SetCurrent(key, p.LayoutID, p.ZoneIndex); err != nil {
		return nil, err
	}
	e.actions.Log(actionlog.ActionSetCurrent, string(key), map[string]interface{}{
		"layout": p.LayoutID,
		"index":  p.ZoneIndex,
	})
	return &ipc.ActionResult{
		Space:     string(key),
		LayoutID:  p.LayoutID,
		ZoneIndex: p.ZoneIndex,
	}, nil
}

func (e *Engine) targetSpace(explicit string) (spatial.SpaceKey, error) {
	if explicit != "" {
		return spatial.SpaceKey(explicit), nil
	}
	return e.ActiveSpace()
}
