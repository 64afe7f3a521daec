package screencap

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// Preview captures a display and returns it PNG-encoded.
func Preview(display int) ([]byte, error) {
	if n := screenshot.NumActiveDisplays(); display < 0 || display >= n {
		return nil, fmt.Errorf("display %d out of range (%d active)", display, n)
	}
	img, err := screenshot.CaptureDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", display, err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
