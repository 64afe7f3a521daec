// Package input defines the keyboard and mouse event model shared by the
// recorder, the player and the concrete hook/injection backends.
package input

import (
	"errors"
	"fmt"
)

// ErrUnknownButton is returned when a button code outside 0-4 is converted.
var ErrUnknownButton = errors.New("unknown mouse button")

// KeyState is the direction of a key or button transition.
// The zero value is not a valid state.
type KeyState uint8

const (
	KeyDown KeyState = iota + 1
	KeyUp
)

func (s KeyState) String() string {
	switch s {
	case KeyDown:
		return "down"
	case KeyUp:
		return "up"
	default:
		return fmt.Sprintf("KeyState(%d)", uint8(s))
	}
}

// Button identifies a mouse button. ButtonNone is the zero value so that a
// move-only event never carries a button by accident.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
)

// ButtonFromCode maps the integer codes 0-4 to Left, Right, Middle, X1, X2.
func ButtonFromCode(code int) (Button, error) {
	if code < 0 || code > 4 {
		return ButtonNone, fmt.Errorf("%w: code %d", ErrUnknownButton, code)
	}
	return Button(code + 1), nil
}

// Code is the inverse of ButtonFromCode. It returns -1 for ButtonNone.
func (b Button) Code() int {
	if b == ButtonNone || b > ButtonX2 {
		return -1
	}
	return int(b) - 1
}

func (b Button) String() string {
	switch b {
	case ButtonNone:
		return "none"
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonX1:
		return "x1"
	case ButtonX2:
		return "x2"
	default:
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
}

// Controller tags the driver that produced or should consume an event.
type Controller uint8

const (
	// ControllerDirect is the OS-level hook and direct injection path.
	ControllerDirect Controller = iota
	// ControllerSoftware is a software cursor controller that moves the
	// cursor through its own relative-motion channel.
	ControllerSoftware
)

func (c Controller) String() string {
	if c == ControllerSoftware {
		return "software"
	}
	return "direct"
}

// MoveKind says whether a mouse event moves the cursor and how.
type MoveKind uint8

const (
	MoveNone MoveKind = iota
	MoveAbsolute
	MoveDelta
)

// KeyEvent is a keyboard transition for a virtual key code.
type KeyEvent struct {
	Code  int
	State KeyState
}

// MouseEvent is a cursor move, a button transition, or both.
// State only applies when Button is not ButtonNone.
type MouseEvent struct {
	Controller Controller
	Move       MoveKind
	X, Y       int
	Button     Button
	State      KeyState
}

// IsMove reports whether the event moves the cursor.
func (m MouseEvent) IsMove() bool { return m.Move != MoveNone }

// HasButton reports whether the event carries a button transition.
func (m MouseEvent) HasButton() bool { return m.Button != ButtonNone }

// Kind discriminates the Event union.
type Kind uint8

const (
	KindKey Kind = iota + 1
	KindMouse
)

// Event is an immutable keyboard or mouse event. Exactly one of Key and
// Mouse is meaningful, selected by Kind.
type Event struct {
	Kind  Kind
	Key   KeyEvent
	Mouse MouseEvent
}

// Key builds a keyboard event.
func Key(code int, state KeyState) Event {
	return Event{Kind: KindKey, Key: KeyEvent{Code: code, State: state}}
}

// Mouse builds a mouse event.
func Mouse(m MouseEvent) Event {
	return Event{Kind: KindMouse, Mouse: m}
}

// MoveTo builds an absolute move event.
func MoveTo(c Controller, x, y int) Event {
	return Mouse(MouseEvent{Controller: c, Move: MoveAbsolute, X: x, Y: y})
}

// MoveBy builds a relative move event.
func MoveBy(c Controller, dx, dy int) Event {
	return Mouse(MouseEvent{Controller: c, Move: MoveDelta, X: dx, Y: dy})
}

// Press builds a button transition event at the given position.
func Press(c Controller, b Button, state KeyState, x, y int) Event {
	return Mouse(MouseEvent{Controller: c, X: x, Y: y, Button: b, State: state})
}

// IsMouse reports whether the event is a mouse event.
func (e Event) IsMouse() bool { return e.Kind == KindMouse }

func (e Event) String() string {
	switch e.Kind {
	case KindKey:
		return fmt.Sprintf("key %d %s", e.Key.Code, e.Key.State)
	case KindMouse:
		m := e.Mouse
		switch {
		case m.HasButton():
			return fmt.Sprintf("mouse %s %s at (%d,%d)", m.Button, m.State, m.X, m.Y)
		case m.Move == MoveDelta:
			return fmt.Sprintf("mouse delta (%d,%d) via %s", m.X, m.Y, m.Controller)
		default:
			return fmt.Sprintf("mouse move (%d,%d) via %s", m.X, m.Y, m.Controller)
		}
	default:
		return "invalid event"
	}
}
