package screencap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFmpegArgs(t *testing.T) {
	args, err := ffmpegArgs("windows", "", 30, "out.mp4")
	require.NoError(t, err)
	assert.Equal(t, []string{"-f", "gdigrab", "-framerate", "30", "-i", "desktop"}, args[:6])
	assert.Equal(t, "out.mp4", args[len(args)-1])

	args, err = ffmpegArgs("darwin", "3", 60, "o.mp4")
	require.NoError(t, err)
	assert.Contains(t, args, "3:none")
	assert.Contains(t, args, "ultrafast")

	t.Setenv("DISPLAY", ":1")
	args, err = ffmpegArgs("linux", "", 24, "o.mp4")
	require.NoError(t, err)
	assert.Contains(t, args, "x11grab")
	assert.Contains(t, args, ":1")

	_, err = ffmpegArgs("plan9", "", 24, "o.mp4")
	assert.ErrorIs(t, err, ErrUnsupportedOS)
}

func TestParseScreenDevice(t *testing.T) {
	out := `[AVFoundation indev @ 0x1] AVFoundation video devices:
[AVFoundation indev @ 0x1] [0] FaceTime HD Camera
[AVFoundation indev @ 0x1] [1] OBS Virtual Camera
[AVFoundation indev @ 0x1] [2] Capture screen 0
[AVFoundation indev @ 0x1] AVFoundation audio devices:
[AVFoundation indev @ 0x1] [0] Capture screen 0 audio
`
	idx, err := parseScreenDevice(out)
	require.NoError(t, err)
	assert.Equal(t, "2", idx)

	_, err = parseScreenDevice("AVFoundation video devices:\n[0] Camera\n")
	assert.Error(t, err)
}

func TestStopWithoutStart(t *testing.T) {
	r := NewRecorder(Options{OutputDir: t.TempDir()}, nil)
	_, err := r.Stop()
	assert.ErrorIs(t, err, ErrNotCapturing)
	assert.False(t, r.Capturing())
}

func TestEncodePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	data, err := encodePNG(img)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	r, _, _, _ := decoded.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}
