package tracking

import (
	"context"
	"testing"

	hook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedantwpatil/AutoReplay/internal/input"
)

func TestTranslateKeys(t *testing.T) {
	tr := &translator{}

	ev, ok := tr.translate(hook.Event{Kind: hook.KeyHold, Rawcode: 65})
	require.True(t, ok)
	assert.Equal(t, input.Key(65, input.KeyDown), ev)

	ev, ok = tr.translate(hook.Event{Kind: hook.KeyUp, Rawcode: 65})
	require.True(t, ok)
	assert.Equal(t, input.Key(65, input.KeyUp), ev)

	_, ok = tr.translate(hook.Event{Kind: hook.KeyDown, Rawcode: 65})
	assert.False(t, ok, "typed characters duplicate the press")
}

func TestTranslateButtons(t *testing.T) {
	tr := &translator{}

	ev, ok := tr.translate(hook.Event{Kind: hook.MouseHold, Button: 2, X: 10, Y: 20})
	require.True(t, ok)
	assert.Equal(t, input.Press(input.ControllerDirect, input.ButtonRight, input.KeyDown, 10, 20), ev)

	ev, ok = tr.translate(hook.Event{Kind: hook.MouseDown, Button: 5, X: 1, Y: 1})
	require.True(t, ok)
	assert.Equal(t, input.ButtonX2, ev.Mouse.Button)
	assert.Equal(t, input.KeyUp, ev.Mouse.State)

	_, ok = tr.translate(hook.Event{Kind: hook.MouseHold, Button: 0})
	assert.False(t, ok)
	_, ok = tr.translate(hook.Event{Kind: hook.MouseUp, Button: 1})
	assert.False(t, ok, "clicks duplicate press and release")
	_, ok = tr.translate(hook.Event{Kind: hook.MouseWheel})
	assert.False(t, ok)
}

func TestTranslateAbsoluteMoves(t *testing.T) {
	tr := &translator{}
	ev, ok := tr.translate(hook.Event{Kind: hook.MouseMove, X: 100, Y: 50})
	require.True(t, ok)
	assert.Equal(t, input.MoveTo(input.ControllerDirect, 100, 50), ev)

	ev, ok = tr.translate(hook.Event{Kind: hook.MouseDrag, X: 101, Y: 52})
	require.True(t, ok)
	assert.Equal(t, input.MoveAbsolute, ev.Mouse.Move)
}

func TestTranslateRelativeMoves(t *testing.T) {
	tr := &translator{relative: true}

	ev, ok := tr.translate(hook.Event{Kind: hook.MouseMove, X: 100, Y: 50})
	require.True(t, ok)
	assert.Equal(t, input.MoveAbsolute, ev.Mouse.Move, "first sample anchors the cursor")

	ev, ok = tr.translate(hook.Event{Kind: hook.MouseMove, X: 103, Y: 46})
	require.True(t, ok)
	assert.Equal(t, input.MoveBy(input.ControllerDirect, 3, -4), ev)

	_, ok = tr.translate(hook.Event{Kind: hook.MouseMove, X: 103, Y: 46})
	assert.False(t, ok)

	// a click updates the reference point
	_, ok = tr.translate(hook.Event{Kind: hook.MouseHold, Button: 1, X: 200, Y: 200})
	require.True(t, ok)
	ev, ok = tr.translate(hook.Event{Kind: hook.MouseMove, X: 201, Y: 200})
	require.True(t, ok)
	assert.Equal(t, input.MoveBy(input.ControllerDirect, 1, 0), ev)
}

func TestParseChord(t *testing.T) {
	keys, err := ParseChord("Ctrl+Shift+F9")
	require.NoError(t, err)
	assert.Equal(t, []string{"f9", "ctrl", "shift"}, keys)

	keys, err = ParseChord("f10")
	require.NoError(t, err)
	assert.Equal(t, []string{"f10"}, keys)

	_, err = ParseChord("ctrl++f9")
	assert.Error(t, err)
	_, err = ParseChord("hyper+f9")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestHotkeyIgnoresAutoRepeat(t *testing.T) {
	fired := 0
	hk := &hotkey{trigger: 67, fn: func() { fired++ }}

	hk.fire(hook.Event{Kind: hook.KeyHold, Keycode: 67})
	hk.fire(hook.Event{Kind: hook.KeyHold, Keycode: 67})
	assert.Equal(t, 1, fired)

	hk.fire(hook.Event{Kind: hook.KeyHold, Keycode: 29})
	hk.release(hook.Event{Kind: hook.KeyUp, Keycode: 29})
	assert.Equal(t, 1, fired)

	hk.release(hook.Event{Kind: hook.KeyUp, Keycode: 67})
	hk.fire(hook.Event{Kind: hook.KeyHold, Keycode: 67})
	assert.Equal(t, 2, fired)
}

func TestSubscribeFanOut(t *testing.T) {
	src := NewHookSource(false, nil)
	var keys []input.KeyEvent
	var mice []input.MouseEvent
	unsub := src.Subscribe(
		func(e input.KeyEvent) { keys = append(keys, e) },
		func(e input.MouseEvent) { mice = append(mice, e) },
	)

	src.deliver(hook.Event{Kind: hook.KeyHold, Rawcode: 70})
	src.deliver(hook.Event{Kind: hook.MouseMove, X: 3, Y: 4})
	src.deliver(hook.Event{Kind: hook.MouseWheel})
	require.Len(t, keys, 1)
	require.Len(t, mice, 1)

	unsub()
	src.deliver(hook.Event{Kind: hook.KeyUp, Rawcode: 70})
	assert.Len(t, keys, 1)
}

func TestRegisterHotkeyValidates(t *testing.T) {
	src := NewHookSource(false, nil)
	require.NoError(t, src.RegisterHotkey("record", "f9", func() {}))
	assert.Error(t, src.RegisterHotkey("bad", "nope", func() {}))
}

func TestRunIsSingleUse(t *testing.T) {
	src := NewHookSource(false, nil)
	src.started = true

	assert.ErrorIs(t, src.Run(context.Background()), ErrHookStarted)
	assert.ErrorIs(t, src.RegisterHotkey("late", "f9", func() {}), ErrHookStarted)
}

func TestModifierRawcodes(t *testing.T) {
	src := NewHookSource(false, nil)
	require.NoError(t, src.RegisterHotkey("record", "ctrl+f9", func() {}))
	require.NoError(t, src.RegisterHotkey("stop", "ctrl+f11", func() {}))

	mods := src.ModifierRawcodes()
	seen := make(map[int]bool)
	for _, code := range mods {
		assert.NotZero(t, code)
		assert.False(t, seen[code], "duplicate code %d", code)
		seen[code] = true
	}
	for _, trigger := range []string{"f9", "f11"} {
		if raw := int(hook.KeychartoRawcode(trigger)); raw != 0 {
			assert.NotContains(t, mods, raw)
		}
	}

	assert.Empty(t, NewHookSource(false, nil).ModifierRawcodes())
}

func TestButtonNames(t *testing.T) {
	name, err := buttonName(input.ButtonMiddle)
	require.NoError(t, err)
	assert.Equal(t, "center", name)

	_, err = buttonName(input.ButtonX1)
	assert.ErrorIs(t, err, ErrUnsupportedButton)
	_, err = buttonName(input.ButtonNone)
	assert.ErrorIs(t, err, ErrUnsupportedButton)
}

func TestRobotInjectorIsDirect(t *testing.T) {
	var inj input.Injector = NewRobotInjector()
	assert.Equal(t, input.ControllerDirect, inj.Capabilities().Controller)
	assert.False(t, inj.Capabilities().ControllerRelative)
}
