package editing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedantwpatil/AutoReplay/internal/input"
	"github.com/vedantwpatil/AutoReplay/internal/recording"
)

func pixel(frame []byte, width, x, y int) []byte {
	i := (y*width + x) * 4
	return frame[i : i+4]
}

func TestClicksFrom(t *testing.T) {
	entries := []recording.Entry{
		{Offset: 0, Event: input.MoveTo(input.ControllerDirect, 1, 1)},
		{Offset: 10 * time.Millisecond, Event: input.Press(input.ControllerDirect, input.ButtonLeft, input.KeyDown, 5, 6)},
		{Offset: 20 * time.Millisecond, Event: input.Press(input.ControllerDirect, input.ButtonLeft, input.KeyUp, 5, 6)},
		{Offset: 30 * time.Millisecond, Event: input.Key(65, input.KeyDown)},
	}

	clicks := ClicksFrom(entries, time.Second)
	require.Len(t, clicks, 1)
	assert.Equal(t, Click{At: time.Second + 10*time.Millisecond, X: 5, Y: 6, Button: input.ButtonLeft}, clicks[0])
}

func TestDrawMarkersWindow(t *testing.T) {
	const w, h = 40, 40
	style := Style{Radius: 6, Hold: 100 * time.Millisecond, Color: [4]byte{1, 2, 3, 4}}
	clicks := []Click{{At: time.Second, X: 20, Y: 20}}

	frame := make([]byte, w*h*4)
	drawMarkers(frame, w, h, clicks, 900*time.Millisecond, style)
	assert.Equal(t, []byte{0, 0, 0, 0}, pixel(frame, w, 26, 20), "before the press")

	drawMarkers(frame, w, h, clicks, 1050*time.Millisecond, style)
	assert.Equal(t, []byte{1, 2, 3, 4}, pixel(frame, w, 26, 20), "on the ring")
	assert.Equal(t, []byte{0, 0, 0, 0}, pixel(frame, w, 20, 20), "centre stays clear")

	frame = make([]byte, w*h*4)
	drawMarkers(frame, w, h, clicks, 1200*time.Millisecond, style)
	assert.Equal(t, []byte{0, 0, 0, 0}, pixel(frame, w, 26, 20), "after hold")
}

func TestDrawRingClipsToFrame(t *testing.T) {
	const w, h = 10, 10
	frame := make([]byte, w*h*4)
	assert.NotPanics(t, func() {
		drawRing(frame, w, h, 0, 0, 8, [4]byte{9, 9, 9, 9})
		drawRing(frame, w, h, 50, 50, 8, [4]byte{9, 9, 9, 9})
	})
	assert.Equal(t, []byte{9, 9, 9, 9}, pixel(frame, w, 8, 0))
}

func TestOverlayFrom(t *testing.T) {
	entries := []recording.Entry{
		{Offset: 0, Event: input.MoveTo(input.ControllerSoftware, 1, 1)},
		{Offset: 5 * time.Millisecond, Event: input.MoveBy(input.ControllerDirect, 3, 3)},
		{Offset: 10 * time.Millisecond, Event: input.Press(input.ControllerDirect, input.ButtonRight, input.KeyDown, 4, 4)},
	}

	o := OverlayFrom(entries, 0)
	require.Len(t, o.Clicks, 1)
	assert.Equal(t, []PathPoint{{At: 0, X: 1, Y: 1}, {At: 10 * time.Millisecond, X: 4, Y: 4}}, o.Path)
}

func TestDrawPathTrail(t *testing.T) {
	const w, h = 20, 20
	style := Style{Hold: 100 * time.Millisecond, PathColor: [4]byte{7, 7, 7, 7}}
	path := []PathPoint{{At: 0, X: 5, Y: 5}, {At: 200 * time.Millisecond, X: 15, Y: 15}}

	frame := make([]byte, w*h*4)
	drawPath(frame, w, h, path, 250*time.Millisecond, style)
	assert.Equal(t, []byte{7, 7, 7, 7}, pixel(frame, w, 17, 15))
	assert.Equal(t, []byte{0, 0, 0, 0}, pixel(frame, w, 7, 5), "outside the trail window")
}

func TestAnnotateRejectsSamePath(t *testing.T) {
	err := Annotate("a.mp4", "a.mp4", Overlay{}, DefaultStyle(), nil)
	assert.Error(t, err)
}
