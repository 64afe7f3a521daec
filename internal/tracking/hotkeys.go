package tracking

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// ErrUnknownKey is returned for key names gohook does not know.
var ErrUnknownKey = errors.New("unknown key name")

// hotkey fires once per press of its trigger key while the rest of its
// chord is held. Auto-repeat is ignored until the trigger is released.
type hotkey struct {
	name    string
	keys    []string
	trigger uint16
	fn      func()

	mu      sync.Mutex
	latched bool
}

func (k *hotkey) fire(e hook.Event) {
	if e.Keycode != k.trigger {
		return
	}
	k.mu.Lock()
	if k.latched {
		k.mu.Unlock()
		return
	}
	k.latched = true
	k.mu.Unlock()
	k.fn()
}

func (k *hotkey) release(e hook.Event) {
	if e.Keycode != k.trigger {
		return
	}
	k.mu.Lock()
	k.latched = false
	k.mu.Unlock()
}

// ParseChord splits "ctrl+shift+f9" into gohook's key order, trigger first:
// ["f9", "ctrl", "shift"].
func ParseChord(chord string) ([]string, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("empty key in chord %q", chord)
		}
		if _, ok := hook.Keycode[p]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, p)
		}
		keys = append(keys, p)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("empty chord")
	}
	trigger := keys[len(keys)-1]
	return append([]string{trigger}, keys[:len(keys)-1]...), nil
}

// RegisterHotkey binds a chord such as "ctrl+f9" to fn. It must be called
// before Run.
func (h *HookSource) RegisterHotkey(name, chord string, fn func()) error {
	keys, err := ParseChord(chord)
	if err != nil {
		return fmt.Errorf("hotkey %s: %w", name, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("hotkey %s: %w", name, ErrHookStarted)
	}
	h.hotkeys = append(h.hotkeys, &hotkey{
		name:    name,
		keys:    keys,
		trigger: hook.Keycode[keys[0]],
		fn:      fn,
	})
	return nil
}

// TriggerRawcodes returns the raw key codes of every hotkey trigger, in the
// same code space as recorded key events.
func (h *HookSource) TriggerRawcodes() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int, 0, len(h.hotkeys))
	for _, k := range h.hotkeys {
		if raw := hook.KeychartoRawcode(k.keys[0]); raw != 0 {
			out = append(out, int(raw))
		}
	}
	return out
}

// ModifierRawcodes returns the raw key codes of every non-trigger key of the
// registered chords. Left and right variants of a modifier are included when
// gohook knows them.
func (h *HookSource) ModifierRawcodes() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[int]bool)
	var out []int
	for _, k := range h.hotkeys {
		for _, name := range k.keys[1:] {
			for _, variant := range []string{name, "l" + name, "r" + name} {
				raw := int(hook.KeychartoRawcode(variant))
				if raw == 0 || seen[raw] {
					continue
				}
				seen[raw] = true
				out = append(out, raw)
			}
		}
	}
	return out
}
