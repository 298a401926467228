package hotkeys

import (
	"fmt"
	"sync"

	"github.com/1broseidon/zonetile/internal/ledger"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Handler manages global keyboard shortcuts. Every registered binding
// holds a ledger handle so unreleased grabs surface in resource reports
// after teardown.
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	ledger *ledger.Ledger

	mu      sync.Mutex
	handles []ledger.HandleID
	down    bool
}

var ignoreModsOnce sync.Once

const owner = "hotkeys"

// NewHandler creates a new hotkey handler.
func NewHandler(xu *xgbutil.XUtil, root xproto.Window, ldg *ledger.Ledger) *Handler {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   root,
		ledger: ldg,
	}
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.down {
		return fmt.Errorf("hotkey handler already torn down")
	}

	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return fmt.Errorf("failed to bind %q: %w", keySequence, err)
	}

	h.handles = append(h.handles, h.ledger.Acquire(ledger.CategoryHotkey, owner))
	return nil
}

// Teardown detaches all key bindings and releases their ledger handles.
// Safe to call more than once.
func (h *Handler) Teardown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.down {
		return
	}
	h.down = true

	keybind.Detach(h.xu, h.root)
	for _, id := range h.handles {
		h.ledger.Release(id)
	}
	h.handles = nil
	h.ledger.ComponentTornDown(owner)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
