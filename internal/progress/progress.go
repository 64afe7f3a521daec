// Package progress renders playback progress on a terminal line.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Bar draws a single-line progress bar that is redrawn in place.
type Bar struct {
	description string
	out         io.Writer
	interval    time.Duration
	now         func() time.Time

	mu         sync.Mutex
	startTime  time.Time
	lastUpdate time.Time
	drawn      bool
}

func NewBar(description string, out io.Writer) *Bar {
	if out == nil {
		out = os.Stdout
	}
	b := &Bar{
		description: description,
		out:         out,
		interval:    100 * time.Millisecond,
		now:         time.Now,
	}
	b.startTime = b.now()
	return b
}

// Report redraws the bar for done out of total steps. Calls closer together
// than the refresh interval are skipped.
func (b *Bar) Report(done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if b.drawn && now.Sub(b.lastUpdate) < b.interval {
		return
	}
	b.render(done, total, now)
}

// Complete draws the final state and ends the line.
func (b *Bar) Complete(done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.render(done, total, b.now())
	fmt.Fprintln(b.out)
}

func (b *Bar) render(done, total int, now time.Time) {
	b.lastUpdate = now
	b.drawn = true

	fraction := 1.0
	if total > 0 {
		fraction = float64(done) / float64(total)
	}
	fraction = min(max(fraction, 0), 1)
	completed := int(float64(barWidth) * fraction)
	bar := strings.Repeat("=", completed) + strings.Repeat("-", barWidth-completed)

	fmt.Fprintf(b.out, "\r%s [%s] %d/%d %.1f%% Elapsed: %v",
		b.description,
		bar,
		done, total,
		fraction*100,
		now.Sub(b.startTime).Round(time.Second),
	)
}

// Watch polls source every interval and reports it to bar until ctx ends or
// source reports done >= total with total > 0.
func Watch(ctx context.Context, bar *Bar, interval time.Duration, source func() (done, total int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		done, total := source()
		bar.Report(done, total)
		if total > 0 && done >= total {
			bar.Complete(done, total)
			return
		}
		select {
		case <-ctx.Done():
			bar.Complete(source())
			return
		case <-ticker.C:
		}
	}
}
