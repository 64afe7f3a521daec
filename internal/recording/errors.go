package recording

import "errors"

var (
	// ErrBusy is returned when the overlap policy rejects starting a
	// recording during playback or a playback during recording.
	ErrBusy = errors.New("recorder busy")
	// ErrAlreadyPlaying is returned by Play while a playback is active.
	ErrAlreadyPlaying = errors.New("playback already in progress")
	// ErrInvalidKeyState marks a key or button event whose state is neither
	// down nor up. Playback aborts when it meets one.
	ErrInvalidKeyState = errors.New("invalid key state")
	// ErrInvalidEvent marks an event with no valid kind.
	ErrInvalidEvent = errors.New("invalid event")
)
