// Package config loads the recorder's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vedantwpatil/AutoReplay/internal/logging"
	"github.com/vedantwpatil/AutoReplay/internal/recording"
)

const (
	DefaultFileName = "config.yaml"
	EnvPath         = "AUTOREPLAY_CONFIG"
)

type Config struct {
	Record  RecordConfig  `yaml:"record"`
	Hotkeys HotkeyConfig  `yaml:"hotkeys"`
	Library LibraryConfig `yaml:"library"`
	Capture CaptureConfig `yaml:"capture"`
	Target  TargetConfig  `yaml:"target"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`

	// Source is the file the configuration was read from, or "<defaults>".
	Source string `yaml:"-"`
}

type RecordConfig struct {
	MouseMove     bool   `yaml:"mouse_move"`
	StartPosition bool   `yaml:"start_position"`
	Relative      bool   `yaml:"relative"`
	ExcludeKeys   []int  `yaml:"exclude_keys"`
	Policy        string `yaml:"policy"`
	SpinWindowMs  int    `yaml:"spin_window_ms"`
}

// HotkeyConfig holds chords such as "ctrl+f9". An empty chord disables the binding.
type HotkeyConfig struct {
	Record string `yaml:"record"`
	Play   string `yaml:"play"`
	Stop   string `yaml:"stop"`
}

type LibraryConfig struct {
	Dir string `yaml:"dir"`
}

type CaptureConfig struct {
	VideoEnabled bool   `yaml:"video_enabled"`
	OutputDir    string `yaml:"output_dir"`
	FPS          int    `yaml:"fps"`
	Preview      bool   `yaml:"preview"`
}

// TargetConfig names a process that must be running before playback starts.
type TargetConfig struct {
	Process string `yaml:"process"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Record: RecordConfig{
			MouseMove:     true,
			StartPosition: true,
			Policy:        recording.PolicyReject.String(),
			SpinWindowMs:  int(recording.DefaultSpinWindow / time.Millisecond),
		},
		Hotkeys: HotkeyConfig{
			Record: "ctrl+f9",
			Play:   "ctrl+f10",
			Stop:   "ctrl+f11",
		},
		Library: LibraryConfig{Dir: "library"},
		Capture: CaptureConfig{
			OutputDir: "output",
			FPS:       60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from path. An empty path falls back to
// $AUTOREPLAY_CONFIG and then ./config.yaml; a missing fallback file yields
// the defaults, a missing explicit file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		if env := strings.TrimSpace(os.Getenv(EnvPath)); env != "" {
			candidate, explicit = env, true
		} else {
			candidate = DefaultFileName
		}
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", candidate, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", candidate, err)
	}
	cfg.Source = candidate

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", candidate, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := recording.ParsePolicy(c.Record.Policy); err != nil {
		return fmt.Errorf("record.policy: %w", err)
	}
	if c.Record.SpinWindowMs < 0 {
		return errors.New("record.spin_window_ms must not be negative")
	}
	if strings.TrimSpace(c.Library.Dir) == "" {
		return errors.New("library.dir must not be empty")
	}
	if c.Capture.VideoEnabled {
		if c.Capture.FPS <= 0 {
			return errors.New("capture.fps must be positive")
		}
		if strings.TrimSpace(c.Capture.OutputDir) == "" {
			return errors.New("capture.output_dir must not be empty")
		}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported %q", c.Logging.Format)
	}
	return nil
}

// SessionOptions converts the record section into recording options.
func (r RecordConfig) SessionOptions() (recording.Options, error) {
	policy, err := recording.ParsePolicy(r.Policy)
	if err != nil {
		return recording.Options{}, err
	}
	opts := recording.DefaultOptions()
	opts.MouseMoveRecordable = r.MouseMove
	opts.CaptureStartPosition = r.StartPosition
	opts.Policy = policy
	opts.SpinWindow = time.Duration(r.SpinWindowMs) * time.Millisecond
	opts.ExcludeKeys = append([]int(nil), r.ExcludeKeys...)
	return opts, nil
}
