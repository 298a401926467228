// Package ledger tracks acquired host resources (signal connections,
// hotkey grabs, timers) so acquire/release asymmetry is a queryable fact
// instead of something found by code review. A long-lived daemon never
// gets process-exit cleanup; the only reliable correctness signal across
// repeated start/stop cycles is symmetry between what components report
// created and destroyed.
package ledger

import (
	"log/slog"
	"sort"
	"sync"
)

// Category classifies a tracked resource.
type Category string

const (
	CategorySignal Category = "signal"
	CategoryHotkey Category = "hotkey"
	CategoryTimer  Category = "timer"
)

// HandleID identifies one acquired resource. IDs are monotonic for the
// process lifetime and never reused, so a stale reference shows up as an
// unknown-handle warning instead of silently matching a newer resource.
type HandleID uint64

type handle struct {
	category Category
	owner    string
}

// Snapshot holds point-in-time active handle counts per category.
type Snapshot map[Category]int

// Report describes leaks: handles that were never released even though
// their owning component has reported its own teardown. Handles held by
// live components (a registered hotkey while the daemon runs) are
// steady-state, not leaks.
type Report struct {
	LeakedByCategory    map[Category]int `json:"leaked_by_category"`
	ComponentsWithLeaks []string         `json:"components_with_leaks"`
}

// Ledger indexes resource handles. It never owns their lifecycle; the
// registering component remains responsible for the underlying resource.
type Ledger struct {
	mu       sync.Mutex
	nextID   HandleID
	active   map[HandleID]handle
	tornDown map[string]bool
	logger   *slog.Logger
}

// New creates an empty ledger. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		active:   make(map[HandleID]handle),
		tornDown: make(map[string]bool),
		logger:   logger,
	}
}

// Acquire records a new handle for owner and returns its id. Acquiring
// also marks the owner live again, so a component restarted after a
// teardown starts from a clean slate.
func (l *Ledger) Acquire(category Category, owner string) HandleID {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.active[id] = handle{category: category, owner: owner}
	delete(l.tornDown, owner)
	return id
}

// Release removes a handle. Releasing an unknown or already-released
// handle logs a warning and returns; a double release must never crash
// the process hosting us.
func (l *Ledger) Release(id HandleID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.active[id]; !ok {
		l.logger.Warn("release of unknown or already-released handle", "handle", uint64(id))
		return
	}
	delete(l.active, id)
}

// ComponentTornDown records that owner claims to have destroyed all of
// its resources. Any handle it still holds is a leak from this point on.
// Teardown is an explicit external signal, never inferred.
func (l *Ledger) ComponentTornDown(owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tornDown[owner] = true
}

// Reset clears all tracked handles and teardown marks. Meant for
// separating independent test runs, not for normal operation. Handle ids
// keep counting; reuse would hide stale references.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = make(map[HandleID]handle)
	l.tornDown = make(map[string]bool)
}

// Snapshot returns current active handle counts per category.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(Snapshot)
	for _, h := range l.active {
		out[h.category]++
	}
	return out
}

// Diff returns per-category growth from before to after. Categories with
// zero delta are omitted.
func Diff(before, after Snapshot) map[Category]int {
	out := make(map[Category]int)
	for cat, n := range after {
		if d := n - before[cat]; d != 0 {
			out[cat] = d
		}
	}
	for cat, n := range before {
		if _, ok := after[cat]; !ok && n != 0 {
			out[cat] = -n
		}
	}
	return out
}

// Report lists handles whose owner has reported teardown but never
// released them, grouped by category, plus the offending owners.
func (l *Ledger) Report() Report {
	l.mu.Lock()
	defer l.mu.Unlock()

	leaked := make(map[Category]int)
	owners := make(map[string]struct{})
	for _, h := range l.active {
		if l.tornDown[h.owner] {
			leaked[h.category]++
			owners[h.owner] = struct{}{}
		}
	}

	names := make([]string, 0, len(owners))
	for o := range owners {
		names = append(names, o)
	}
	sort.Strings(names)

	return Report{
		LeakedByCategory:    leaked,
		ComponentsWithLeaks: names,
	}
}

// Outstanding returns the total number of active handles, all categories.
func (l *Ledger) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}
