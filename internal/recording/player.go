package recording

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Report summarises one playback.
type Report struct {
	ID         uuid.UUID
	Dispatched int
	Total      int
	Elapsed    time.Duration
	// MaxLag is the largest delay between an entry's due time and its
	// injection.
	MaxLag time.Duration
	Err    error
}

// FinishFunc is called on the player goroutine when a playback runs to the
// end of its buffer or aborts on an error. It is not called after Stop.
type FinishFunc func(Report)

// Play replays a snapshot of the buffer on a new goroutine and returns
// immediately.
func (s *Session) Play(onFinished FinishFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playingLocked() {
		return ErrAlreadyPlaying
	}
	if s.recording {
		switch s.policy {
		case PolicyReject:
			return fmt.Errorf("play: %w", ErrBusy)
		case PolicyQueue:
			if s.pendingPlay != nil {
				return ErrAlreadyPlaying
			}
			s.pendingPlay = &queuedPlay{onFinished: onFinished}
			s.logger.Info("playback queued until recording stops")
			return nil
		}
	}
	return s.startPlayLocked(onFinished)
}

func (s *Session) startPlayLocked(onFinished FinishFunc) error {
	entries := cloneEntries(s.entries)
	s.startTime = time.Time{}
	s.endTime = time.Time{}

	ctx, cancel := context.WithCancel(context.Background())
	run := &playback{
		id:     uuid.New(),
		cancel: cancel,
		total:  len(entries),
	}
	s.run = run
	s.metrics.playbackStarted()
	s.logger.Info("play record", "playback_id", run.id, "entries", len(entries))

	go s.runPlayback(ctx, run, entries, onFinished)
	return nil
}

// Stop cancels the active playback, or a playback queued behind the current
// recording, and runs callback. When there is neither it only logs.
func (s *Session) Stop(callback func()) {
	s.mu.Lock()
	run := s.run
	if run == nil || run.ended {
		queued := s.pendingPlay != nil
		s.pendingPlay = nil
		s.mu.Unlock()
		if !queued {
			s.logger.Info("already stopped")
			return
		}
		s.logger.Info("queued playback cancelled")
		if callback != nil {
			callback()
		}
		return
	}
	run.cancel()
	s.endPlaybackLocked(run)
	s.mu.Unlock()

	s.logger.Info("stop playback", "playback_id", run.id, "dispatched", run.done.Load(), "total", run.total)
	s.metrics.playbackEnded("stopped")
	if callback != nil {
		callback()
	}
}

// IsPlaying reports whether a playback is running.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playingLocked()
}

// Progress returns how many entries of the current or last playback have
// been dispatched.
func (s *Session) Progress() (done, total int) {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run == nil {
		return 0, 0
	}
	return int(run.done.Load()), run.total
}

func (s *Session) playingLocked() bool {
	return s.run != nil && !s.run.ended
}

// endPlaybackLocked marks run as ended and starts a queued recording.
func (s *Session) endPlaybackLocked(run *playback) {
	run.ended = true
	if s.pendingRecord {
		s.pendingRecord = false
		if !s.recording {
			s.beginRecordLocked()
		}
	}
}

func (s *Session) runPlayback(ctx context.Context, run *playback, entries []Entry, onFinished FinishFunc) {
	epoch := s.clock()
	s.mu.Lock()
	if s.startTime.IsZero() {
		s.startTime = epoch
	}
	s.mu.Unlock()

	report := Report{ID: run.id, Total: len(entries)}
	err := s.replay(ctx, run, epoch, entries, &report)
	report.Elapsed = s.clock().Sub(epoch)
	report.Err = err

	if errors.Is(err, context.Canceled) {
		return
	}

	s.mu.Lock()
	if run.ended {
		s.mu.Unlock()
		return
	}
	run.cancel()
	s.endPlaybackLocked(run)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("playback aborted", "playback_id", run.id, "dispatched", report.Dispatched, "error", err)
		s.metrics.playbackEnded("failed")
	} else {
		s.logger.Info("playback finished", "playback_id", run.id, "dispatched", report.Dispatched,
			"elapsed", report.Elapsed, "max_lag", report.MaxLag)
		s.metrics.playbackEnded("finished")
	}
	if onFinished != nil {
		onFinished(report)
	}
}

// replay is the scheduling loop. Cancellation is checked on every
// iteration. Far deadlines are waited out on a timer; the last spinWindow
// before a deadline is busy-polled.
func (s *Session) replay(ctx context.Context, run *playback, epoch time.Time, entries []Entry, report *Report) error {
	for i := 0; i < len(entries); {
		if err := ctx.Err(); err != nil {
			return err
		}

		elapsed := s.clock().Sub(epoch)
		head := entries[i]
		if head.Offset <= elapsed {
			err := s.dispatch(head.Event)
			lag := elapsed - head.Offset
			if lag > report.MaxLag {
				report.MaxLag = lag
			}
			s.metrics.observeDispatch(head.IsMouseEvent(), lag, err)
			if err != nil {
				if errors.Is(err, ErrInvalidKeyState) || errors.Is(err, ErrInvalidEvent) {
					return fmt.Errorf("entry %d: %w", head.Sequence, err)
				}
				s.logger.Warn("dispatch failed", "entry", head.Sequence, "event", head.Event.String(), "error", err)
			}
			i++
			report.Dispatched = i
			run.done.Store(int64(i))
			continue
		}

		wait := head.Offset - elapsed
		if wait > s.spinWindow {
			timer := time.NewTimer(wait - s.spinWindow)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}
		runtime.Gosched()
	}
	return nil
}
