// Package inputtest provides in-memory Source and Injector implementations
// for tests.
package inputtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/vedantwpatil/AutoReplay/internal/input"
)

// Source is a manually driven input.Source.
type Source struct {
	mu     sync.Mutex
	nextID int
	keys   map[int]input.KeyHandler
	mice   map[int]input.MouseHandler
}

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{
		keys: make(map[int]input.KeyHandler),
		mice: make(map[int]input.MouseHandler),
	}
}

// Subscribe implements input.Source.
func (s *Source) Subscribe(onKey input.KeyHandler, onMouse input.MouseHandler) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if onKey != nil {
		s.keys[id] = onKey
	}
	if onMouse != nil {
		s.mice[id] = onMouse
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.keys, id)
		delete(s.mice, id)
		s.mu.Unlock()
	}
}

// Subscribers reports how many subscriptions are active.
func (s *Source) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.keys)
	if len(s.mice) > n {
		n = len(s.mice)
	}
	return n
}

// Key delivers a keyboard event to every subscriber.
func (s *Source) Key(code int, state input.KeyState) {
	s.mu.Lock()
	handlers := make([]input.KeyHandler, 0, len(s.keys))
	for _, h := range s.keys {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()
	for _, h := range handlers {
		h(input.KeyEvent{Code: code, State: state})
	}
}

// Mouse delivers a mouse event to every subscriber.
func (s *Source) Mouse(e input.MouseEvent) {
	s.mu.Lock()
	handlers := make([]input.MouseHandler, 0, len(s.mice))
	for _, h := range s.mice {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()
	for _, h := range handlers {
		h(e)
	}
}

// Call is one recorded injection.
type Call struct {
	Op   string
	Args []int
	At   time.Time
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

// Injector records every injection it receives.
type Injector struct {
	mu    sync.Mutex
	calls []Call

	// X, Y is the reported cursor position.
	X, Y int
	Caps input.Capabilities
	// Err, when set, is returned by every injection.
	Err error
	// OnCall, when set, runs after each recorded call.
	OnCall func(Call)
}

// NewInjector returns a direct-injection fake positioned at (x, y).
func NewInjector(x, y int) *Injector {
	return &Injector{X: x, Y: y}
}

func (i *Injector) record(op string, args ...int) error {
	c := Call{Op: op, Args: args, At: time.Now()}
	i.mu.Lock()
	i.calls = append(i.calls, c)
	hook := i.OnCall
	err := i.Err
	i.mu.Unlock()
	if hook != nil {
		hook(c)
	}
	return err
}

func (i *Injector) KeyDown(code int) error { return i.record("KeyDown", code) }
func (i *Injector) KeyUp(code int) error { return i.record("KeyUp", code) }
func (i *Injector) MoveAbsolute(x, y int) error { return i.record("MoveAbsolute", x, y) }
func (i *Injector) MoveDelta(dx, dy int) error { return i.record("MoveDelta", dx, dy) }
func (i *Injector) ButtonDown(b input.Button) error {
	return i.record("ButtonDown", b.Code())
}
func (i *Injector) ButtonUp(b input.Button) error {
	return i.record("ButtonUp", b.Code())
}

// MoveController records a controller-relative move.
func (i *Injector) MoveController(dx, dy int) error {
	return i.record("MoveController", dx, dy)
}

func (i *Injector) CursorPosition() (int, int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.X, i.Y
}

func (i *Injector) Capabilities() input.Capabilities {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.Caps
}

// Calls returns a copy of the recorded calls.
func (i *Injector) Calls() []Call {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Call, len(i.calls))
	copy(out, i.calls)
	return out
}

// Ops returns the recorded calls rendered as strings.
func (i *Injector) Ops() []string {
	calls := i.Calls()
	out := make([]string, len(calls))
	for n, c := range calls {
		out[n] = c.String()
	}
	return out
}
