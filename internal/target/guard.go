// Package target checks that the application a macro drives is running
// before the macro is replayed.
package target

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

var ErrNotRunning = errors.New("target process not running")

// Lister returns the names of running processes.
type Lister func(ctx context.Context) ([]string, error)

// Guard verifies a named process is alive.
type Guard struct {
	name string
	list Lister
}

// NewGuard returns a guard for name. An empty name makes Check a no-op.
func NewGuard(name string) *Guard {
	return &Guard{name: name, list: runningProcesses}
}

// WithLister swaps the process source.
func (g *Guard) WithLister(l Lister) *Guard {
	g.list = l
	return g
}

// Name is the process the guard looks for.
func (g *Guard) Name() string { return g.name }

// Check returns ErrNotRunning unless a process matching the guard's name
// exists.
func (g *Guard) Check(ctx context.Context) error {
	if g == nil || strings.TrimSpace(g.name) == "" {
		return nil
	}
	names, err := g.list(ctx)
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}
	for _, n := range names {
		if matches(g.name, n) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotRunning, g.name)
}

// matches compares process names case-insensitively, ignoring any directory
// and a trailing ".exe" on either side.
func matches(want, got string) bool {
	norm := func(s string) string {
		s = strings.ToLower(filepath.Base(strings.TrimSpace(s)))
		return strings.TrimSuffix(s, ".exe")
	}
	return norm(want) == norm(got)
}

func runningProcesses(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		// processes can exit between listing and lookup
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
