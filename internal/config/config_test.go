package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedantwpatil/AutoReplay/internal/recording"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Record.MouseMove)
	assert.Equal(t, "reject", cfg.Record.Policy)
	assert.Equal(t, "<defaults>", cfg.Source)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
record:
  mouse_move: false
  policy: queue
  exclude_keys: [120, 121]
library:
  dir: /tmp/macros
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.False(t, cfg.Record.MouseMove)
	assert.True(t, cfg.Record.StartPosition, "unset keys keep defaults")
	assert.Equal(t, []int{120, 121}, cfg.Record.ExcludeKeys)
	assert.Equal(t, "/tmp/macros", cfg.Library.Dir)
	assert.Equal(t, "ctrl+f9", cfg.Hotkeys.Record)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "target:\n  process: notepad.exe\n")
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "notepad.exe", cfg.Target.Process)
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Setenv(EnvPath, "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"policy":      func(c *Config) { c.Record.Policy = "sometimes" },
		"spin window": func(c *Config) { c.Record.SpinWindowMs = -1 },
		"library":     func(c *Config) { c.Library.Dir = " " },
		"fps": func(c *Config) {
			c.Capture.VideoEnabled = true
			c.Capture.FPS = 0
		},
		"level":  func(c *Config) { c.Logging.Level = "loud" },
		"format": func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeConfig(t, "record:\n  policy: sometimes\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "record.policy")
}

func TestSessionOptions(t *testing.T) {
	rc := Default().Record
	rc.Policy = "concurrent"
	rc.SpinWindowMs = 5
	rc.ExcludeKeys = []int{7}

	opts, err := rc.SessionOptions()
	require.NoError(t, err)
	assert.Equal(t, recording.PolicyConcurrent, opts.Policy)
	assert.Equal(t, 5*time.Millisecond, opts.SpinWindow)
	assert.Equal(t, []int{7}, opts.ExcludeKeys)
	assert.True(t, opts.MouseMoveRecordable)
}
