// Package library keeps named recordings in a badger database and moves
// them in and out as compressed export files.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"

	"github.com/vedantwpatil/AutoReplay/internal/recording"
)

var (
	ErrNotFound    = errors.New("recording not found")
	ErrInvalidName = errors.New("invalid recording name")
	ErrClosed      = errors.New("library closed")
)

const (
	recordPrefix  = "rec/"
	metaPrefix    = "meta/"
	previewPrefix = "preview/"
)

// Recording is a named, persisted recording. Preview is an optional PNG
// screenshot taken when recording started.
type Recording struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	Entries   []recording.Entry
	Preview   []byte
}

// Duration is the offset of the last entry.
func (r Recording) Duration() time.Duration {
	if len(r.Entries) == 0 {
		return 0
	}
	return r.Entries[len(r.Entries)-1].Offset
}

// Summary describes a stored recording without its entries.
type Summary struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	CreatedAt  time.Time     `json:"created_at"`
	Entries    int           `json:"entries"`
	Duration   time.Duration `json:"duration"`
	HasPreview bool          `json:"has_preview"`
}

// Store is a badger-backed recording library.
type Store struct {
	db     *badger.DB
	codec  *codec
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the library at dir. An empty dir opens an in-memory
// library.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open library %q: %w", dir, err)
	}
	c, err := newCodec()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, codec: c, logger: logger.With("component", "library")}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.codec.close()
	return s.db.Close()
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Save stores rec under rec.Name, replacing any recording with that name.
// A zero ID or CreatedAt is filled in. The stored copy is returned.
func (s *Store) Save(rec Recording) (Recording, error) {
	if err := validName(rec.Name); err != nil {
		return rec, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	// the preview lives under its own key
	stripped := rec
	stripped.Preview = nil
	blob, err := s.codec.encode(stripped)
	if err != nil {
		return rec, err
	}
	meta, err := json.Marshal(Summary{
		ID:         rec.ID,
		Name:       rec.Name,
		CreatedAt:  rec.CreatedAt,
		Entries:    len(rec.Entries),
		Duration:   rec.Duration(),
		HasPreview: len(rec.Preview) > 0,
	})
	if err != nil {
		return rec, fmt.Errorf("marshal summary: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return rec, ErrClosed
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(recordPrefix+rec.Name), blob); err != nil {
			return err
		}
		if err := txn.Set([]byte(metaPrefix+rec.Name), meta); err != nil {
			return err
		}
		if len(rec.Preview) > 0 {
			return txn.Set([]byte(previewPrefix+rec.Name), rec.Preview)
		}
		err := txn.Delete([]byte(previewPrefix + rec.Name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return rec, fmt.Errorf("save %q: %w", rec.Name, err)
	}

	s.logger.Info("recording saved", "name", rec.Name, "recording_id", rec.ID, "entries", len(rec.Entries))
	return rec, nil
}

// Load returns the recording stored under name.
func (s *Store) Load(name string) (Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Recording{}, ErrClosed
	}

	var blob, preview []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordPrefix + name))
		if err != nil {
			return err
		}
		if blob, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get([]byte(previewPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		preview, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Recording{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Recording{}, fmt.Errorf("load %q: %w", name, err)
	}

	rec, err := s.codec.decode(blob)
	if err != nil {
		return Recording{}, fmt.Errorf("load %q: %w", name, err)
	}
	rec.Preview = preview
	return rec, nil
}

// List returns summaries of all stored recordings sorted by name.
func (s *Store) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var out []Summary
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(metaPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sum Summary
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sum)
			})
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrCorrupt, it.Item().Key(), err)
			}
			out = append(out, sum)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the recording stored under name.
func (s *Store) Delete(name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(recordPrefix + name)); err != nil {
			return err
		}
		for _, prefix := range []string{recordPrefix, metaPrefix, previewPrefix} {
			if err := txn.Delete([]byte(prefix + name)); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	s.logger.Info("recording deleted", "name", name)
	return nil
}
