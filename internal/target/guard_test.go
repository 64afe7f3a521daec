package target

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLister(names ...string) Lister {
	return func(context.Context) ([]string, error) { return names, nil }
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	g := NewGuard("Notepad.exe").WithLister(staticLister("systemd", "notepad"))
	assert.NoError(t, g.Check(ctx))

	g = NewGuard("firefox").WithLister(staticLister("systemd", "bash"))
	assert.ErrorIs(t, g.Check(ctx), ErrNotRunning)
}

func TestEmptyGuardAlwaysPasses(t *testing.T) {
	g := NewGuard("").WithLister(func(context.Context) ([]string, error) {
		return nil, errors.New("should not be called")
	})
	assert.NoError(t, g.Check(context.Background()))

	var nilGuard *Guard
	assert.NoError(t, nilGuard.Check(context.Background()))
}

func TestCheckListerError(t *testing.T) {
	boom := errors.New("boom")
	g := NewGuard("x").WithLister(func(context.Context) ([]string, error) { return nil, boom })
	assert.ErrorIs(t, g.Check(context.Background()), boom)
}

func TestMatches(t *testing.T) {
	assert.True(t, matches("code", "/usr/share/code/Code"))
	assert.True(t, matches("GAME.EXE", "game"))
	assert.False(t, matches("game", "gamebar"))
}

func TestRunningProcessesIncludesSelf(t *testing.T) {
	names, err := runningProcesses(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, names)
}
