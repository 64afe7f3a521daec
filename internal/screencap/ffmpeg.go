// Package screencap records the screen with ffmpeg while a macro is being
// captured and grabs still previews with kbinani/screenshot.
package screencap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnsupportedOS = errors.New("screen capture not supported on this OS")
	ErrCapturing     = errors.New("screen capture already running")
	ErrNotCapturing  = errors.New("no screen capture running")
)

// Capture describes a finished or running screen capture.
type Capture struct {
	Path      string
	StartedAt time.Time
	FPS       int
}

// Options configures a Recorder.
type Options struct {
	OutputDir string
	FPS       int
	// Stderr receives ffmpeg's diagnostics. Nil discards them.
	Stderr io.Writer
}

// Recorder drives one ffmpeg screen capture at a time.
type Recorder struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	current Capture
	done    chan error
}

func NewRecorder(opts Options, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	return &Recorder{opts: opts, logger: logger.With("component", "screencap")}
}

// ffmpegArgs builds the ffmpeg command line for goos. device is the
// avfoundation screen index and is only used on darwin.
func ffmpegArgs(goos, device string, fps int, output string) ([]string, error) {
	rate := strconv.Itoa(fps)
	switch goos {
	case "windows":
		return []string{
			"-f", "gdigrab",
			"-framerate", rate,
			"-i", "desktop",
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-y", output,
		}, nil
	case "darwin":
		return []string{
			"-f", "avfoundation",
			"-framerate", rate,
			"-i", device + ":none",
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-preset", "ultrafast",
			"-y", output,
		}, nil
	case "linux":
		display := os.Getenv("DISPLAY")
		if display == "" {
			display = ":0.0"
		}
		return []string{
			"-f", "x11grab",
			"-framerate", rate,
			"-i", display,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-y", output,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
	}
}

// parseScreenDevice finds the index of "Capture screen 0" in the output of
// `ffmpeg -f avfoundation -list_devices true -i ""`.
func parseScreenDevice(output string) (string, error) {
	inVideoDevices := false
	index := 0
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "AVFoundation video devices:") {
			inVideoDevices = true
			continue
		}
		if strings.Contains(line, "AVFoundation audio devices:") {
			break
		}
		if !inVideoDevices {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "Capture screen 0") {
			return strconv.Itoa(index), nil
		}
		if strings.Contains(trimmed, "]") {
			index++
		}
	}
	return "", errors.New("could not find 'Capture screen 0' in ffmpeg device list")
}

func findScreenDevice(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-f", "avfoundation", "-list_devices", "true", "-i", "")
	// ffmpeg exits non-zero here even when it lists the devices.
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) == 0 {
		return "", fmt.Errorf("list avfoundation devices: %w", err)
	}
	return parseScreenDevice(string(out))
}

// Start launches ffmpeg writing to <OutputDir>/<name>.mp4. The capture keeps
// running until Stop is called or ctx is cancelled.
func (r *Recorder) Start(ctx context.Context, name string) (Capture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil {
		return Capture{}, ErrCapturing
	}

	device := ""
	if runtime.GOOS == "darwin" {
		d, err := findScreenDevice(ctx)
		if err != nil {
			return Capture{}, err
		}
		device = d
	}

	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return Capture{}, fmt.Errorf("create capture directory: %w", err)
	}
	path := filepath.Join(r.opts.OutputDir, name+".mp4")
	args, err := ffmpegArgs(runtime.GOOS, device, r.opts.FPS, path)
	if err != nil {
		return Capture{}, err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = r.opts.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Capture{}, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Capture{}, fmt.Errorf("start ffmpeg: %w", err)
	}

	r.cmd = cmd
	r.stdin = stdin
	r.current = Capture{Path: path, StartedAt: time.Now(), FPS: r.opts.FPS}
	r.done = make(chan error, 1)
	go func(done chan<- error) { done <- cmd.Wait() }(r.done)

	r.logger.Info("screen capture started", "path", path, "fps", r.opts.FPS)
	return r.current, nil
}

// Stop asks ffmpeg to finish the file and waits for it to exit.
func (r *Recorder) Stop() (Capture, error) {
	r.mu.Lock()
	if r.cmd == nil {
		r.mu.Unlock()
		return Capture{}, ErrNotCapturing
	}
	stdin, done, capture := r.stdin, r.done, r.current
	r.cmd, r.stdin, r.done = nil, nil, nil
	r.mu.Unlock()

	// "q" makes ffmpeg flush and close the container cleanly.
	if _, err := stdin.Write([]byte("q\n")); err != nil {
		r.logger.Warn("signal ffmpeg", "error", err)
	}
	stdin.Close()

	err := <-done
	if err != nil && !expectedExit(err) {
		return capture, fmt.Errorf("ffmpeg: %w", err)
	}
	r.logger.Info("screen capture stopped", "path", capture.Path, "duration", time.Since(capture.StartedAt))
	return capture, nil
}

// Capturing reports whether ffmpeg is running.
func (r *Recorder) Capturing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}

// expectedExit reports exit statuses ffmpeg uses when told to quit.
func expectedExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	return exitErr.ExitCode() == 255 || strings.Contains(err.Error(), "signal: interrupt")
}
