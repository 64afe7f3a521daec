// Package editing post-processes screen captures using the recorded input.
package editing

import (
	"fmt"
	"log/slog"
	"time"

	vidio "github.com/AlexEidt/Vidio"

	"github.com/vedantwpatil/AutoReplay/internal/input"
	"github.com/vedantwpatil/AutoReplay/internal/recording"
)

// Click is a button press placed on the video timeline.
type Click struct {
	At     time.Duration
	X, Y   int
	Button input.Button
}

// PathPoint is an absolute cursor position placed on the video timeline.
type PathPoint struct {
	At   time.Duration
	X, Y int
}

// Style controls how click markers are drawn.
type Style struct {
	Radius int
	// Hold is how long a marker stays visible after the press.
	Hold      time.Duration
	Color     [4]byte
	PathColor [4]byte
}

// DefaultStyle draws a red ring for half a second and a yellow cursor trail.
func DefaultStyle() Style {
	return Style{
		Radius:    18,
		Hold:      500 * time.Millisecond,
		Color:     [4]byte{230, 40, 40, 255},
		PathColor: [4]byte{250, 210, 40, 255},
	}
}

// ClicksFrom extracts button presses from entries. lead is how long the video
// was running before the recording epoch.
func ClicksFrom(entries []recording.Entry, lead time.Duration) []Click {
	var clicks []Click
	for _, e := range entries {
		m := e.Event.Mouse
		if !e.IsMouseEvent() || !m.HasButton() || m.State != input.KeyDown {
			continue
		}
		clicks = append(clicks, Click{At: e.Offset + lead, X: m.X, Y: m.Y, Button: m.Button})
	}
	return clicks
}

// PathFrom extracts absolute cursor positions from entries, including the
// positions of button presses.
func PathFrom(entries []recording.Entry, lead time.Duration) []PathPoint {
	var path []PathPoint
	for _, e := range entries {
		m := e.Event.Mouse
		if !e.IsMouseEvent() || m.Move == input.MoveDelta {
			continue
		}
		path = append(path, PathPoint{At: e.Offset + lead, X: m.X, Y: m.Y})
	}
	return path
}

// Overlay is everything drawn on top of a capture.
type Overlay struct {
	Clicks []Click
	Path   []PathPoint
}

// OverlayFrom builds the overlay for entries recorded lead after the video
// started.
func OverlayFrom(entries []recording.Entry, lead time.Duration) Overlay {
	return Overlay{Clicks: ClicksFrom(entries, lead), Path: PathFrom(entries, lead)}
}

// Annotate copies the video at inputPath to outputPath with a marker drawn
// over every click while it is within style.Hold of its press, and the cursor
// trail of the last style.Hold.
func Annotate(inputPath, outputPath string, overlay Overlay, style Style, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if inputPath == outputPath {
		return fmt.Errorf("annotate: output must differ from input %q", inputPath)
	}

	video, err := vidio.NewVideo(inputPath)
	if err != nil {
		return fmt.Errorf("open video %q: %w", inputPath, err)
	}
	defer video.Close()

	writer, err := vidio.NewVideoWriter(outputPath, video.Width(), video.Height(), &vidio.Options{
		FPS:     video.FPS(),
		Bitrate: video.Bitrate(),
	})
	if err != nil {
		return fmt.Errorf("create video writer %q: %w", outputPath, err)
	}
	defer writer.Close()

	frameTime := time.Duration(float64(time.Second) / video.FPS())
	frames := 0
	for video.Read() {
		at := time.Duration(frames) * frameTime
		drawPath(video.FrameBuffer(), video.Width(), video.Height(), overlay.Path, at, style)
		drawMarkers(video.FrameBuffer(), video.Width(), video.Height(), overlay.Clicks, at, style)
		if err := writer.Write(video.FrameBuffer()); err != nil {
			return fmt.Errorf("write frame %d: %w", frames, err)
		}
		frames++
	}

	logger.Info("video annotated", "input", inputPath, "output", outputPath, "frames", frames, "clicks", len(overlay.Clicks))
	return nil
}

// drawMarkers paints a ring for each click active at time at onto an RGBA
// frame of the given size.
func drawMarkers(frame []byte, width, height int, clicks []Click, at time.Duration, style Style) {
	for _, c := range clicks {
		if at < c.At || at > c.At+style.Hold {
			continue
		}
		drawRing(frame, width, height, c.X, c.Y, style.Radius, style.Color)
	}
}

// drawPath paints a dot at each path point recorded within style.Hold
// before at.
func drawPath(frame []byte, width, height int, path []PathPoint, at time.Duration, style Style) {
	for _, p := range path {
		if p.At > at || p.At < at-style.Hold {
			continue
		}
		drawRing(frame, width, height, p.X, p.Y, 2, style.PathColor)
	}
}

func drawRing(frame []byte, width, height, cx, cy, radius int, rgba [4]byte) {
	outer := radius * radius
	inner := (radius - 3) * (radius - 3)
	if radius <= 3 {
		inner = 0
	}
	for y := cy - radius; y <= cy+radius; y++ {
		if y < 0 || y >= height {
			continue
		}
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= width {
				continue
			}
			d := (x-cx)*(x-cx) + (y-cy)*(y-cy)
			if d > outer || d < inner {
				continue
			}
			i := (y*width + x) * 4
			if i+3 >= len(frame) {
				return
			}
			copy(frame[i:i+4], rgba[:])
		}
	}
}
