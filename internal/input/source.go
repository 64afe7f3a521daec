package input

// KeyHandler receives keyboard events from a Source.
type KeyHandler func(KeyEvent)

// MouseHandler receives mouse events from a Source.
type MouseHandler func(MouseEvent)

// Source delivers raw keyboard and mouse events. Handlers are invoked on
// whatever goroutine the backend delivers events on.
type Source interface {
	// Subscribe registers handlers and returns a function that removes them.
	Subscribe(onKey KeyHandler, onMouse MouseHandler) (unsubscribe func())
}

// Capabilities describes what an Injector can do beyond the basic surface.
type Capabilities struct {
	// Controller is the kind of driver the injector sends input through.
	Controller Controller
	// ControllerRelative is true when relative moves must go through the
	// controller's own channel (see ControllerMover).
	ControllerRelative bool
}

// Injector synthesises input and reports cursor state.
type Injector interface {
	KeyDown(code int) error
	KeyUp(code int) error
	MoveAbsolute(x, y int) error
	MoveDelta(dx, dy int) error
	ButtonDown(b Button) error
	ButtonUp(b Button) error
	CursorPosition() (x, y int)
	Capabilities() Capabilities
}

// ControllerMover is implemented by injectors whose Capabilities report
// ControllerRelative.
type ControllerMover interface {
	MoveController(dx, dy int) error
}
