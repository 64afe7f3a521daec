package recording

import (
	"fmt"
	"time"

	"github.com/vedantwpatil/AutoReplay/internal/input"
)

// Entry is one captured event. Sequence is the insertion index and Offset
// is the time elapsed since the recording epoch.
type Entry struct {
	Sequence int
	Offset   time.Duration
	Event    input.Event
}

// IsMouseEvent reports whether the entry wraps a mouse event.
func (e Entry) IsMouseEvent() bool { return e.Event.IsMouse() }

// RelativeMs is Offset in fractional milliseconds.
func (e Entry) RelativeMs() float64 {
	return float64(e.Offset) / float64(time.Millisecond)
}

func (e Entry) String() string {
	return fmt.Sprintf("#%d +%.3fms %s", e.Sequence, e.RelativeMs(), e.Event)
}

// cloneEntries returns a copy that shares no backing array with src.
func cloneEntries(src []Entry) []Entry {
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// normalizeEntries renumbers entries by position and clamps offsets so they
// never decrease. It is used for recordings that come from outside the
// session, such as the library.
func normalizeEntries(src []Entry) []Entry {
	out := cloneEntries(src)
	var last time.Duration
	for i := range out {
		out[i].Sequence = i
		if out[i].Offset < last {
			out[i].Offset = last
		}
		last = out[i].Offset
	}
	return out
}
