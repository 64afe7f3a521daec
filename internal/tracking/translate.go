package tracking

import (
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/vedantwpatil/AutoReplay/internal/input"
)

// translator converts gohook events into input events.
//
// gohook names its kinds after libuiohook's numbering, so KeyHold is a key
// press, MouseHold a button press and MouseDown a button release. KeyDown
// (typed character) and MouseUp (click) duplicate the press/release pair
// and are dropped.
type translator struct {
	relative bool

	mu      sync.Mutex
	havePos bool
	lastX   int
	lastY   int
}

func (t *translator) translate(e hook.Event) (input.Event, bool) {
	switch e.Kind {
	case hook.KeyHold:
		return input.Key(int(e.Rawcode), input.KeyDown), true
	case hook.KeyUp:
		return input.Key(int(e.Rawcode), input.KeyUp), true
	case hook.MouseHold, hook.MouseDown:
		b, err := input.ButtonFromCode(int(e.Button) - 1)
		if err != nil {
			return input.Event{}, false
		}
		state := input.KeyDown
		if e.Kind == hook.MouseDown {
			state = input.KeyUp
		}
		t.track(int(e.X), int(e.Y))
		return input.Press(input.ControllerDirect, b, state, int(e.X), int(e.Y)), true
	case hook.MouseMove, hook.MouseDrag:
		return t.move(int(e.X), int(e.Y))
	default:
		return input.Event{}, false
	}
}

func (t *translator) track(x, y int) {
	t.mu.Lock()
	t.lastX, t.lastY, t.havePos = x, y, true
	t.mu.Unlock()
}

func (t *translator) move(x, y int) (input.Event, bool) {
	if !t.relative {
		t.track(x, y)
		return input.MoveTo(input.ControllerDirect, x, y), true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.havePos {
		t.lastX, t.lastY, t.havePos = x, y, true
		return input.MoveTo(input.ControllerDirect, x, y), true
	}
	dx, dy := x-t.lastX, y-t.lastY
	t.lastX, t.lastY = x, y
	if dx == 0 && dy == 0 {
		return input.Event{}, false
	}
	return input.MoveBy(input.ControllerDirect, dx, dy), true
}
