package recording

import (
	"fmt"

	"github.com/vedantwpatil/AutoReplay/internal/input"
)

func (s *Session) dispatch(e input.Event) error {
	switch e.Kind {
	case input.KindKey:
		return dispatchKey(s.inj, e.Key)
	case input.KindMouse:
		return dispatchMouse(s.inj, e.Mouse)
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidEvent, e.Kind)
	}
}

func dispatchKey(inj input.Injector, k input.KeyEvent) error {
	switch k.State {
	case input.KeyDown:
		return inj.KeyDown(k.Code)
	case input.KeyUp:
		return inj.KeyUp(k.Code)
	default:
		return fmt.Errorf("%w: key %d %s", ErrInvalidKeyState, k.Code, k.State)
	}
}

// dispatchMouse replays the move first and then the button transition.
//
// Absolute moves always go through MoveAbsolute. Relative moves go through
// the controller channel when the injector reports ControllerRelative; in
// that case only deltas recorded from the same controller are replayed,
// since the OS hook sees the controller's motion a second time. Otherwise
// deltas use MoveDelta.
func dispatchMouse(inj input.Injector, m input.MouseEvent) error {
	switch m.Move {
	case input.MoveAbsolute:
		if err := inj.MoveAbsolute(m.X, m.Y); err != nil {
			return err
		}
	case input.MoveDelta:
		if err := moveDelta(inj, m); err != nil {
			return err
		}
	}

	if !m.HasButton() {
		return nil
	}
	switch m.State {
	case input.KeyDown:
		return inj.ButtonDown(m.Button)
	case input.KeyUp:
		return inj.ButtonUp(m.Button)
	default:
		return fmt.Errorf("%w: button %s %s", ErrInvalidKeyState, m.Button, m.State)
	}
}

func moveDelta(inj input.Injector, m input.MouseEvent) error {
	caps := inj.Capabilities()
	if !caps.ControllerRelative {
		return inj.MoveDelta(m.X, m.Y)
	}
	mover, ok := inj.(input.ControllerMover)
	if !ok {
		return inj.MoveDelta(m.X, m.Y)
	}
	if m.Controller != caps.Controller {
		return nil
	}
	return mover.MoveController(m.X, m.Y)
}
