package tracking

import (
	"errors"
	"fmt"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"

	"github.com/vedantwpatil/AutoReplay/internal/input"
)

// ErrUnsupportedButton is returned for buttons robotgo cannot press.
var ErrUnsupportedButton = errors.New("mouse button not supported by injector")

// RobotInjector synthesises input through robotgo.
type RobotInjector struct{}

// NewRobotInjector returns a direct-injection backend.
func NewRobotInjector() *RobotInjector {
	return &RobotInjector{}
}

// keyName maps a raw key code to the name robotgo expects.
func keyName(code int) (string, error) {
	if code < 0 || code > 0xFFFF {
		return "", fmt.Errorf("%w: code %d", ErrUnknownKey, code)
	}
	name := hook.RawcodetoKeychar(uint16(code))
	if name == "" {
		return "", fmt.Errorf("%w: code %d", ErrUnknownKey, code)
	}
	return name, nil
}

func buttonName(b input.Button) (string, error) {
	switch b {
	case input.ButtonLeft:
		return "left", nil
	case input.ButtonRight:
		return "right", nil
	case input.ButtonMiddle:
		return "center", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedButton, b)
	}
}

func (r *RobotInjector) KeyDown(code int) error {
	name, err := keyName(code)
	if err != nil {
		return err
	}
	return robotgo.KeyToggle(name, "down")
}

func (r *RobotInjector) KeyUp(code int) error {
	name, err := keyName(code)
	if err != nil {
		return err
	}
	return robotgo.KeyToggle(name, "up")
}

func (r *RobotInjector) MoveAbsolute(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (r *RobotInjector) MoveDelta(dx, dy int) error {
	robotgo.MoveRelative(dx, dy)
	return nil
}

func (r *RobotInjector) ButtonDown(b input.Button) error {
	name, err := buttonName(b)
	if err != nil {
		return err
	}
	return robotgo.Toggle(name)
}

func (r *RobotInjector) ButtonUp(b input.Button) error {
	name, err := buttonName(b)
	if err != nil {
		return err
	}
	return robotgo.Toggle(name, "up")
}

func (r *RobotInjector) CursorPosition() (int, int) {
	return robotgo.Location()
}

func (r *RobotInjector) Capabilities() input.Capabilities {
	return input.Capabilities{Controller: input.ControllerDirect}
}
