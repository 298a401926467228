package spatial

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/1broseidon/zonetile/internal/persist"
)

// LoadLegacy reads the pre-per-space workspace map from the KV: a JSON
// object of workspace index -> layout id. Missing or corrupt data reads
// as an empty map; legacy state is best-effort by definition.
func LoadLegacy(kv persist.KV) map[int]string {
	raw, err := kv.GetString(persist.KeyLegacyWorkspaces)
	if err != nil || raw == "" {
		return nil
	}

	var doc map[string]string
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}

	out := make(map[int]string, len(doc))
	for k, v := range doc {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			continue
		}
		out[idx] = v
	}
	return out
}

// MigrateLegacy maps each legacy workspace entry onto the space
// "<primaryConnector>:<workspaceIndex>" at zone 0 and persists the
// result. It runs only when the per-space store is empty, which makes it
// idempotent: once any per-space state exists the legacy map is ignored.
//
// Using the current primary connector as a proxy for "whatever monitor
// the workspace used to mean" is a heuristic, not a reconstruction; a
// multi-monitor history cannot be recovered from the legacy format.
func (s *Store) MigrateLegacy(legacy map[int]string, primaryConnector string) int {
	if len(legacy) == 0 || primaryConnector == "" {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.states) > 0 {
		return 0
	}

	indices := make([]int, 0, len(legacy))
	for idx := range legacy {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	migrated := 0
	for _, idx := range indices {
		layoutID := legacy[idx]
		if layoutID == "" {
			continue
		}
		s.states[Key(primaryConnector, idx)] = State{LayoutID: layoutID, ZoneIndex: 0}
		migrated++
	}
	if migrated > 0 {
		s.persistLocked()
		s.logger.Info("migrated legacy workspace layouts", "entries", migrated, "connector", primaryConnector)
	}
	return migrated
}
