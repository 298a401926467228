// Package spatial owns the per-space layout/zone selection: which layout
// and which zone are active for each (monitor, workspace) pair, with
// fallback resolution and persistence through the key/value collaborator.
package spatial

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/zonetile/internal/layout"
	"github.com/1broseidon/zonetile/internal/persist"
)

// SpaceKey identifies a (monitor connector, workspace index) pair.
type SpaceKey string

// Key builds the canonical "<connector>:<workspaceIndex>" space key.
func Key(connector string, workspace int) SpaceKey {
	return SpaceKey(fmt.Sprintf("%s:%d", connector, workspace))
}

// State is the last-applied layout and active zone for one space.
// ZoneIndex is clamped to the layout's zone count at read time, not at
// write time: layouts change underneath stored indices, so a write-time
// clamp would only give a false sense of normalization.
type State struct {
	LayoutID  string `json:"layoutId"`
	ZoneIndex int    `json:"zoneIndex"`
}

// NotFoundError reports a reference to a layout id that is not in the
// current catalog.
type NotFoundError struct {
	LayoutID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("layout %q not found", e.LayoutID)
}

// Store is the single source of truth for "what layout/zone is active"
// on any space. All mutating operations are serialized by a mutex so the
// read-modify-write in CycleZone stays atomic under concurrent IPC
// connections.
type Store struct {
	mu            sync.Mutex
	kv            persist.KV
	catalog       *layout.Catalog
	states        map[SpaceKey]State
	lastSelected  string
	defaultLayout string
	logger        *slog.Logger
}

// NewStore creates a store bound to kv and restores prior selection.
// Malformed persisted JSON is logged and treated as empty state; corrupt
// storage must never block window operations.
func NewStore(kv persist.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		kv:     kv,
		states: make(map[SpaceKey]State),
		logger: logger,
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	raw, err := s.kv.GetString(persist.KeySpaceState)
	if err != nil {
		s.logger.Warn("failed to read space state, starting empty", "error", err)
	} else if raw != "" {
		var states map[SpaceKey]State
		if err := json.Unmarshal([]byte(raw), &states); err != nil {
			s.logger.Warn("corrupt space state, starting empty", "error", err)
		} else {
			s.states = states
		}
	}
	if s.states == nil {
		s.states = make(map[SpaceKey]State)
	}

	last, err := s.kv.GetString(persist.KeyLastSelected)
	if err != nil {
		s.logger.Warn("failed to read last-selected layout", "error", err)
		return
	}
	s.lastSelected = last
}

// SetCatalog swaps the layout catalog the store resolves against.
func (s *Store) SetCatalog(c *layout.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
}

// SetDefault sets the configured default layout id, consulted when a
// space has no state and nothing has ever been selected. An id missing
// from the catalog is skipped during resolution, not an error.
func (s *Store) SetDefault(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultLayout = id
}

// ResolveCurrent returns the active layout and zone index for a space.
// Resolution order: explicit state for the space (zone clamped), then the
// global last-selected layout at zone 0, then the configured default at
// zone 0, then the first catalog entry at zone 0. ok is false only when
// the catalog is empty. Never errors.
func (s *Store) ResolveCurrent(key SpaceKey) (layout.Layout, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(key)
}

func (s *Store) resolveLocked(key SpaceKey) (layout.Layout, int, bool) {
	if st, ok := s.states[key]; ok {
		if l, found := s.catalog.Get(st.LayoutID); found {
			return l, clampZone(st.ZoneIndex, len(l.Zones)), true
		}
		// Unknown id: fall through to the global fallback instead of
		// erroring so window operations keep working.
	}
	if s.lastSelected != "" {
		if l, found := s.catalog.Get(s.lastSelected); found {
			return l, 0, true
		}
	}
	if s.defaultLayout != "" {
		if l, found := s.catalog.Get(s.defaultLayout); found {
			return l, 0, true
		}
	}
	if l, found := s.catalog.First(); found {
		return l, 0, true
	}
	return layout.Layout{}, 0, false
}

// SetCurrent writes the space's state and updates the global fallback
// used by spaces with no explicit state. Returns a NotFoundError when
// layoutID is not in the catalog.
func (s *Store) SetCurrent(key SpaceKey, layoutID string, zoneIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.catalog.Get(layoutID); !found {
		return &NotFoundError{LayoutID: layoutID}
	}

	s.states[key] = State{LayoutID: layoutID, ZoneIndex: zoneIndex}
	s.lastSelected = layoutID
	s.persistLocked()
	return nil
}

// CycleZone advances the space's active zone by direction (+1 or -1)
// with wraparound, persists the new state, and returns the new zone and
// its index. The modulus is the zone count of the space's current
// layout, so switching layouts resets the cycle on the next call.
func (s *Store) CycleZone(key SpaceKey, direction int) (layout.Zone, int, error) {
	if direction != 1 && direction != -1 {
		return layout.Zone{}, 0, fmt.Errorf("direction must be +1 or -1, got %d", direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, idx, ok := s.resolveLocked(key)
	if !ok {
		return layout.Zone{}, 0, fmt.Errorf("no layouts available")
	}

	n := len(l.Zones)
	next := (idx + direction + n) % n
	s.states[key] = State{LayoutID: l.ID, ZoneIndex: next}
	s.persistLocked()
	return l.Zones[next], next, nil
}

// CleanupOrphans removes every state entry whose layout id is not in the
// valid set and returns how many were removed. Running it twice with the
// same set is a no-op the second time.
func (s *Store) CleanupOrphans(valid map[string]struct{}) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, st := range s.states {
		if _, ok := valid[st.LayoutID]; !ok {
			delete(s.states, key)
			removed++
		}
	}
	if removed > 0 {
		s.persistLocked()
	}
	return removed
}

// States returns a copy of all per-space state entries.
func (s *Store) States() map[SpaceKey]State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[SpaceKey]State, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// LastSelected returns the global fallback layout id, "" if none.
func (s *Store) LastSelected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSelected
}

// persistLocked writes the state map and last-selected id through the
// KV. Persistence failures are logged, never propagated: a broken disk
// must not take zone cycling down with it.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.states)
	if err != nil {
		s.logger.Error("failed to encode space state", "error", err)
		return
	}
	if err := s.kv.SetString(persist.KeySpaceState, string(data)); err != nil {
		s.logger.Error("failed to persist space state", "error", err)
	}
	if err := s.kv.SetString(persist.KeyLastSelected, s.lastSelected); err != nil {
		s.logger.Error("failed to persist last-selected layout", "error", err)
	}
}

func clampZone(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
