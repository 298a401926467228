// Package sched runs one-shot and periodic timers as tracked resources:
// every pending timer holds a ledger handle from schedule until it fires
// or is cancelled, and both completion paths release through the same
// code so the ledger never double-counts. Timer leaks and signal leaks
// are checked by the exact same report.
package sched

import (
	"sync"
	"time"

	"github.com/1broseidon/zonetile/internal/ledger"
)

// Timer is a pending one-shot callback.
type Timer struct {
	mu        sync.Mutex
	id        ledger.HandleID
	fireAt    time.Time
	cancelled bool
	done      bool
	timer     *time.Timer
	sched     *Scheduler
}

// ID returns the ledger handle backing this timer.
func (t *Timer) ID() ledger.HandleID { return t.id }

// FireAt returns the scheduled fire time.
func (t *Timer) FireAt() time.Time { return t.fireAt }

// Cancelled reports whether Cancel won the race against firing.
func (t *Timer) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Cancel stops the timer if it has not fired. Idempotent; the ledger
// handle is released exactly once whether the timer fired or was
// cancelled.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.cancelled = true
	t.timer.Stop()
	t.mu.Unlock()

	t.sched.finish(t)
}

// fire marks the timer complete from the callback path. Returns false if
// Cancel got there first, in which case the callback must not run.
func (t *Timer) fire() bool {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return false
	}
	t.done = true
	t.mu.Unlock()

	t.sched.finish(t)
	return true
}

// Ticker is a periodic callback holding one ledger handle for its whole
// active lifetime.
type Ticker struct {
	mu     sync.Mutex
	id     ledger.HandleID
	ticker *time.Ticker
	stop   chan struct{}
	done   bool
	sched  *Scheduler
}

// ID returns the ledger handle backing this ticker.
func (tk *Ticker) ID() ledger.HandleID { return tk.id }

// Stop cancels the periodic callback and releases its handle. Idempotent.
func (tk *Ticker) Stop() {
	tk.mu.Lock()
	if tk.done {
		tk.mu.Unlock()
		return
	}
	tk.done = true
	tk.ticker.Stop()
	close(tk.stop)
	tk.mu.Unlock()

	tk.sched.mu.Lock()
	delete(tk.sched.tickers, tk.id)
	tk.sched.mu.Unlock()
	tk.sched.ledger.Release(tk.id)
}

// Scheduler owns all pending timers for one component lifecycle.
type Scheduler struct {
	owner  string
	ledger *ledger.Ledger

	mu      sync.Mutex
	timers  map[ledger.HandleID]*Timer
	tickers map[ledger.HandleID]*Ticker
}

// New creates a scheduler acquiring handles as owner.
func New(owner string, l *ledger.Ledger) *Scheduler {
	return &Scheduler{
		owner:   owner,
		ledger:  l,
		timers:  make(map[ledger.HandleID]*Timer),
		tickers: make(map[ledger.HandleID]*Ticker),
	}
}

// AfterFunc schedules fn once after d. The returned timer counts as an
// active resource until it fires or is cancelled.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Timer {
	t := &Timer{
		id:     s.ledger.Acquire(ledger.CategoryTimer, s.owner),
		fireAt: time.Now().Add(d),
		sched:  s,
	}
	t.timer = time.AfterFunc(d, func() {
		if t.fire() {
			fn()
		}
	})

	s.mu.Lock()
	s.timers[t.id] = t
	s.mu.Unlock()
	return t
}

// Every schedules fn periodically until the returned ticker is stopped.
func (s *Scheduler) Every(d time.Duration, fn func()) *Ticker {
	tk := &Ticker{
		id:     s.ledger.Acquire(ledger.CategoryTimer, s.owner),
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
		sched:  s,
	}

	s.mu.Lock()
	s.tickers[tk.id] = tk
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-tk.stop:
				return
			case <-tk.ticker.C:
				fn()
			}
		}
	}()
	return tk
}

func (s *Scheduler) finish(t *Timer) {
	s.mu.Lock()
	delete(s.timers, t.id)
	s.mu.Unlock()
	s.ledger.Release(t.id)
}

// Shutdown cancels every outstanding timer and ticker and reports the
// scheduler torn down. Safe to call more than once.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	timers := make([]*Timer, 0, len(s.timers))
	for _, t := range s.timers {
		timers = append(timers, t)
	}
	tickers := make([]*Ticker, 0, len(s.tickers))
	for _, tk := range s.tickers {
		tickers = append(tickers, tk)
	}
	s.mu.Unlock()

	for _, t := range timers {
		t.Cancel()
	}
	for _, tk := range tickers {
		tk.Stop()
	}
	s.ledger.ComponentTornDown(s.owner)
}
