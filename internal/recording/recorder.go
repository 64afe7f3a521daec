// Package recording captures timestamped keyboard and mouse events into an
// in-memory buffer and replays them with their original relative timing.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vedantwpatil/AutoReplay/internal/input"
)

// OverlapPolicy decides what happens when recording and playback overlap.
type OverlapPolicy int

const (
	// PolicyReject refuses the second operation with ErrBusy.
	PolicyReject OverlapPolicy = iota
	// PolicyQueue defers the second operation until the first one ends.
	PolicyQueue
	// PolicyConcurrent lets both run independently.
	PolicyConcurrent
)

// ParsePolicy maps "reject", "queue" and "concurrent" to a policy.
func ParsePolicy(s string) (OverlapPolicy, error) {
	switch s {
	case "", "reject":
		return PolicyReject, nil
	case "queue":
		return PolicyQueue, nil
	case "concurrent":
		return PolicyConcurrent, nil
	default:
		return PolicyReject, fmt.Errorf("unknown overlap policy %q", s)
	}
}

func (p OverlapPolicy) String() string {
	switch p {
	case PolicyQueue:
		return "queue"
	case PolicyConcurrent:
		return "concurrent"
	default:
		return "reject"
	}
}

// DefaultSpinWindow is how long before a deadline the player stops sleeping
// and starts polling.
const DefaultSpinWindow = 2 * time.Millisecond

// Options configures a Session.
type Options struct {
	MouseMoveRecordable  bool
	CaptureStartPosition bool
	Policy               OverlapPolicy
	// SpinWindow <= 0 selects DefaultSpinWindow.
	SpinWindow  time.Duration
	ExcludeKeys []int
	// GuardKeys are keys that take part in control hotkeys, typically the
	// modifiers of a chord. A release with no recorded press and a press
	// still held when recording stops are dropped for these keys.
	GuardKeys []int
	Clock     func() time.Time
	Metrics   *Metrics
}

// DefaultOptions records mouse moves and the starting cursor position.
func DefaultOptions() Options {
	return Options{
		MouseMoveRecordable:  true,
		CaptureStartPosition: true,
		Policy:               PolicyReject,
		SpinWindow:           DefaultSpinWindow,
	}
}

// Session owns one recording buffer together with the recording state
// machine and the player. All methods are safe for concurrent use.
type Session struct {
	src        input.Source
	inj        input.Injector
	logger     *slog.Logger
	clock      func() time.Time
	metrics    *Metrics
	policy     OverlapPolicy
	spinWindow time.Duration

	mu                  sync.Mutex
	id                  uuid.UUID
	recording           bool
	entries             []Entry
	recordEpoch         time.Time
	startTime           time.Time
	endTime             time.Time
	mouseMoveRecordable bool
	captureStartPos     bool
	exclude             map[int]struct{}
	guard               map[int]struct{}
	guardHeld           map[int]bool
	unsubscribe         func()

	run           *playback
	pendingPlay   *queuedPlay
	pendingRecord bool
}

type queuedPlay struct {
	onFinished FinishFunc
}

// NewSession builds an idle session. src may be nil when events are fed
// through OnKeyEvent and OnMouseEvent directly.
func NewSession(src input.Source, inj input.Injector, opts Options, logger *slog.Logger) (*Session, error) {
	if inj == nil {
		return nil, errors.New("injector must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	spin := opts.SpinWindow
	if spin <= 0 {
		spin = DefaultSpinWindow
	}
	exclude := make(map[int]struct{}, len(opts.ExcludeKeys))
	for _, code := range opts.ExcludeKeys {
		exclude[code] = struct{}{}
	}
	guard := make(map[int]struct{}, len(opts.GuardKeys))
	for _, code := range opts.GuardKeys {
		guard[code] = struct{}{}
	}
	return &Session{
		src:                 src,
		inj:                 inj,
		logger:              logger.With("component", "recorder"),
		clock:               clock,
		metrics:             opts.Metrics,
		policy:              opts.Policy,
		spinWindow:          spin,
		mouseMoveRecordable: opts.MouseMoveRecordable,
		captureStartPos:     opts.CaptureStartPosition,
		exclude:             exclude,
		guard:               guard,
		guardHeld:           make(map[int]bool),
	}, nil
}

// Attach subscribes the session to its source.
func (s *Session) Attach() error {
	if s.src == nil {
		return errors.New("session has no input source")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return nil
	}
	s.unsubscribe = s.src.Subscribe(s.OnKeyEvent, s.OnMouseEvent)
	return nil
}

// Detach removes the source subscription.
func (s *Session) Detach() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// SetMouseMoveRecordable toggles capture of move-only mouse events.
func (s *Session) SetMouseMoveRecordable(v bool) {
	s.mu.Lock()
	s.mouseMoveRecordable = v
	s.mu.Unlock()
}

// SetCaptureStartPosition toggles the synthetic initial cursor entry.
func (s *Session) SetCaptureStartPosition(v bool) {
	s.mu.Lock()
	s.captureStartPos = v
	s.mu.Unlock()
}

// StartRecord discards the buffer and begins a new recording. It is a no-op
// while already recording.
func (s *Session) StartRecord() error {
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		s.logger.Debug("already recording")
		return nil
	}
	if s.playingLocked() {
		switch s.policy {
		case PolicyReject:
			s.mu.Unlock()
			return fmt.Errorf("start record: %w", ErrBusy)
		case PolicyQueue:
			s.pendingRecord = true
			s.mu.Unlock()
			s.logger.Info("record queued until playback ends")
			return nil
		}
	}
	s.beginRecordLocked()
	s.mu.Unlock()
	return nil
}

func (s *Session) beginRecordLocked() {
	now := s.clock()
	s.id = uuid.New()
	s.entries = nil
	s.recording = true
	s.recordEpoch = now
	s.startTime = now
	s.endTime = time.Time{}
	clear(s.guardHeld)

	if s.captureStartPos {
		x, y := s.inj.CursorPosition()
		s.entries = append(s.entries, Entry{
			Sequence: 0,
			Offset:   0,
			Event:    input.MoveTo(input.ControllerSoftware, x, y),
		})
	}
	s.logger.Info("start record", "recording_id", s.id, "start_position", s.captureStartPos)
}

// StopRecord ends the current recording. It is a no-op when not recording.
func (s *Session) StopRecord() {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		s.logger.Debug("not recording")
		return
	}
	s.recording = false
	s.endTime = s.clock()
	s.entries = dropHeldGuardKeys(s.entries, s.guard)
	count := len(s.entries)
	pending := s.pendingPlay
	s.pendingPlay = nil
	var err error
	if pending != nil {
		err = s.startPlayLocked(pending.onFinished)
	}
	s.mu.Unlock()

	s.logger.Info("stop record", "recording_id", s.id, "entries", count)
	if err != nil {
		s.logger.Error("queued playback failed to start", "error", err)
	}
}

// IsRecording reports whether events are currently being captured.
func (s *Session) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// ID identifies the current or most recent recording.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// OnKeyEvent appends a keyboard event while recording.
func (s *Session) OnKeyEvent(e input.KeyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	if _, skip := s.exclude[e.Code]; skip {
		return
	}
	if _, guarded := s.guard[e.Code]; guarded {
		if e.State == input.KeyUp && !s.guardHeld[e.Code] {
			return
		}
		s.guardHeld[e.Code] = e.State == input.KeyDown
	}
	s.appendLocked(input.Key(e.Code, e.State))
}

// OnMouseEvent appends a mouse event while recording. Move-only events are
// dropped when mouse move recording is disabled.
func (s *Session) OnMouseEvent(e input.MouseEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	if !s.mouseMoveRecordable && e.IsMove() && !e.HasButton() {
		return
	}
	s.appendLocked(input.Mouse(e))
}

func (s *Session) appendLocked(ev input.Event) {
	offset := s.clock().Sub(s.recordEpoch)
	if n := len(s.entries); n > 0 && offset < s.entries[n-1].Offset {
		offset = s.entries[n-1].Offset
	}
	if offset < 0 {
		offset = 0
	}
	s.entries = append(s.entries, Entry{
		Sequence: len(s.entries),
		Offset:   offset,
		Event:    ev,
	})
	s.metrics.observeRecorded(ev.IsMouse())
}

// dropHeldGuardKeys removes presses of guard keys that are never released
// later in entries, and renumbers what remains.
func dropHeldGuardKeys(entries []Entry, guard map[int]struct{}) []Entry {
	if len(guard) == 0 {
		return entries
	}
	unmatched := make(map[int]int)
	for i, e := range entries {
		if e.Event.Kind != input.KindKey {
			continue
		}
		if _, ok := guard[e.Event.Key.Code]; !ok {
			continue
		}
		if e.Event.Key.State == input.KeyDown {
			unmatched[e.Event.Key.Code] = i
		} else {
			delete(unmatched, e.Event.Key.Code)
		}
	}
	if len(unmatched) == 0 {
		return entries
	}
	drop := make(map[int]bool, len(unmatched))
	for _, i := range unmatched {
		drop[i] = true
	}
	out := entries[:0]
	for i, e := range entries {
		if drop[i] {
			continue
		}
		e.Sequence = len(out)
		out = append(out, e)
	}
	return out
}

// Entries returns a copy of the recording buffer in capture order.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.entries)
}

// Load replaces the buffer with entries from elsewhere, such as a saved
// recording. It fails while recording or playing.
func (s *Session) Load(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording || s.playingLocked() {
		return fmt.Errorf("load recording: %w", ErrBusy)
	}
	s.entries = normalizeEntries(entries)
	s.id = uuid.New()
	s.logger.Info("load record", "recording_id", s.id, "entries", len(s.entries))
	return nil
}

// StartAndEndTime returns the session timestamps. A zero time means unset.
func (s *Session) StartAndEndTime() (time.Time, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime, s.endTime
}

// playback is the state of one Play call.
type playback struct {
	id     uuid.UUID
	cancel context.CancelFunc
	total  int
	done   atomic.Int64
	ended  bool
}
