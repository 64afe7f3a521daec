package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/vedantwpatil/AutoReplay/internal/input"
	"github.com/vedantwpatil/AutoReplay/internal/recording"
)

// ErrCorrupt is returned when a stored or imported recording cannot be decoded.
var ErrCorrupt = errors.New("corrupt recording data")

const currentVersion = 1

// persistedEntry is the JSON form of recording.Entry. Offsets are stored in
// microseconds.
type persistedEntry struct {
	Offset     int64  `json:"offset_us"`
	Kind       string `json:"kind"`
	Code       int    `json:"code,omitempty"`
	State      string `json:"state,omitempty"`
	Controller string `json:"controller,omitempty"`
	Move       string `json:"move,omitempty"`
	X          int    `json:"x,omitempty"`
	Y          int    `json:"y,omitempty"`
	Button     string `json:"button,omitempty"`
}

type persistedRecording struct {
	Version   int              `json:"version"`
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	Entries   []persistedEntry `json:"entries"`
	Preview   []byte           `json:"preview,omitempty"`
}

var (
	buttonNames = map[input.Button]string{
		input.ButtonLeft:   "left",
		input.ButtonRight:  "right",
		input.ButtonMiddle: "middle",
		input.ButtonX1:     "x1",
		input.ButtonX2:     "x2",
	}
	moveNames = map[input.MoveKind]string{
		input.MoveAbsolute: "absolute",
		input.MoveDelta:    "delta",
	}
)

func toPersistedEntry(e recording.Entry) persistedEntry {
	p := persistedEntry{Offset: e.Offset.Microseconds()}
	switch e.Event.Kind {
	case input.KindKey:
		p.Kind = "key"
		p.Code = e.Event.Key.Code
		p.State = e.Event.Key.State.String()
	case input.KindMouse:
		m := e.Event.Mouse
		p.Kind = "mouse"
		p.Controller = m.Controller.String()
		p.Move = moveNames[m.Move]
		p.X, p.Y = m.X, m.Y
		if m.HasButton() {
			p.Button = buttonNames[m.Button]
			p.State = m.State.String()
		}
	}
	return p
}

func parseState(s string) (input.KeyState, error) {
	switch s {
	case "down":
		return input.KeyDown, nil
	case "up":
		return input.KeyUp, nil
	default:
		return 0, fmt.Errorf("%w: key state %q", ErrCorrupt, s)
	}
}

func toEntry(i int, p persistedEntry) (recording.Entry, error) {
	entry := recording.Entry{Sequence: i, Offset: time.Duration(p.Offset) * time.Microsecond}

	switch p.Kind {
	case "key":
		state, err := parseState(p.State)
		if err != nil {
			return entry, err
		}
		entry.Event = input.Key(p.Code, state)
	case "mouse":
		m := input.MouseEvent{X: p.X, Y: p.Y}
		if p.Controller == input.ControllerSoftware.String() {
			m.Controller = input.ControllerSoftware
		}
		if p.Move != "" {
			for kind, name := range moveNames {
				if name == p.Move {
					m.Move = kind
				}
			}
			if m.Move == input.MoveNone {
				return entry, fmt.Errorf("%w: move %q", ErrCorrupt, p.Move)
			}
		}
		if p.Button != "" {
			for b, name := range buttonNames {
				if name == p.Button {
					m.Button = b
				}
			}
			if m.Button == input.ButtonNone {
				return entry, fmt.Errorf("%w: button %q", ErrCorrupt, p.Button)
			}
			state, err := parseState(p.State)
			if err != nil {
				return entry, err
			}
			m.State = state
		}
		if !m.IsMove() && !m.HasButton() {
			return entry, fmt.Errorf("%w: empty mouse event", ErrCorrupt)
		}
		entry.Event = input.Mouse(m)
	default:
		return entry, fmt.Errorf("%w: event kind %q", ErrCorrupt, p.Kind)
	}
	return entry, nil
}

// codec turns recordings into zstd-compressed JSON and back. Its encoder and
// decoder are safe for concurrent use.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) close() {
	c.enc.Close()
	c.dec.Close()
}

func (c *codec) encode(rec Recording) ([]byte, error) {
	data := persistedRecording{
		Version:   currentVersion,
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		Entries:   make([]persistedEntry, len(rec.Entries)),
		Preview:   rec.Preview,
	}
	for i, e := range rec.Entries {
		data.Entries[i] = toPersistedEntry(e)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal recording: %w", err)
	}
	return c.enc.EncodeAll(raw, nil), nil
}

func (c *codec) decode(blob []byte) (Recording, error) {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return Recording{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var data persistedRecording
	if err := json.Unmarshal(raw, &data); err != nil {
		return Recording{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if data.Version > currentVersion {
		return Recording{}, fmt.Errorf("unsupported recording version %d (max supported: %d)", data.Version, currentVersion)
	}

	rec := Recording{
		ID:        data.ID,
		Name:      data.Name,
		CreatedAt: data.CreatedAt,
		Entries:   make([]recording.Entry, len(data.Entries)),
		Preview:   data.Preview,
	}
	for i, p := range data.Entries {
		entry, err := toEntry(i, p)
		if err != nil {
			return Recording{}, fmt.Errorf("entry %d: %w", i, err)
		}
		rec.Entries[i] = entry
	}
	return rec, nil
}
