// Package tracking connects the recorder to the operating system: a global
// keyboard/mouse hook built on gohook and an injector built on robotgo.
package tracking

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/vedantwpatil/AutoReplay/internal/input"
)

// ErrHookStarted is returned when Run is called a second time or a hotkey is
// registered after Run.
var ErrHookStarted = errors.New("hook already started")

// hookKinds are the gohook event kinds forwarded to subscribers.
var hookKinds = []uint8{hook.KeyHold, hook.KeyUp, hook.MouseHold, hook.MouseDown, hook.MouseMove, hook.MouseDrag}

// HookSource is an input.Source backed by the process-wide gohook listener.
// gohook keeps its callbacks in global tables, so a HookSource runs once and
// only one HookSource should exist per process.
type HookSource struct {
	logger *slog.Logger

	mu         sync.Mutex
	nextID     int
	keys       map[int]input.KeyHandler
	mice       map[int]input.MouseHandler
	translator *translator
	hotkeys    []*hotkey
	started    bool
}

// NewHookSource creates a source. When relative is set, cursor motion is
// reported as deltas between consecutive positions instead of absolute
// coordinates.
func NewHookSource(relative bool, logger *slog.Logger) *HookSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &HookSource{
		logger:     logger.With("component", "hook"),
		keys:       make(map[int]input.KeyHandler),
		mice:       make(map[int]input.MouseHandler),
		translator: &translator{relative: relative},
	}
}

// Subscribe implements input.Source.
func (h *HookSource) Subscribe(onKey input.KeyHandler, onMouse input.MouseHandler) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if onKey != nil {
		h.keys[id] = onKey
	}
	if onMouse != nil {
		h.mice[id] = onMouse
	}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.keys, id)
		delete(h.mice, id)
		h.mu.Unlock()
	}
}

// Run registers the callbacks, starts the hook and blocks until ctx is
// cancelled. It can be called once.
func (h *HookSource) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return ErrHookStarted
	}
	h.started = true
	hotkeys := h.hotkeys
	h.mu.Unlock()

	for _, kind := range hookKinds {
		hook.Register(kind, []string{}, h.deliver)
	}
	for _, hk := range hotkeys {
		hook.Register(hook.KeyHold, hk.keys, hk.fire)
		hook.Register(hook.KeyUp, []string{}, hk.release)
	}

	evChan := hook.Start()
	h.logger.Info("hook process started", "hotkeys", len(hotkeys))

	go func() {
		<-ctx.Done()
		hook.End()
	}()

	// Blocks until hook.End() is called.
	<-hook.Process(evChan)

	h.logger.Info("hook process stopped")
	return ctx.Err()
}

func (h *HookSource) deliver(e hook.Event) {
	ev, ok := h.translator.translate(e)
	if !ok {
		return
	}

	h.mu.Lock()
	var keyHandlers []input.KeyHandler
	var mouseHandlers []input.MouseHandler
	if ev.Kind == input.KindKey {
		for _, fn := range h.keys {
			keyHandlers = append(keyHandlers, fn)
		}
	} else {
		for _, fn := range h.mice {
			mouseHandlers = append(mouseHandlers, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range keyHandlers {
		fn(ev.Key)
	}
	for _, fn := range mouseHandlers {
		fn(ev.Mouse)
	}
}
