package library

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedantwpatil/AutoReplay/internal/input"
	"github.com/vedantwpatil/AutoReplay/internal/recording"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleEntries() []recording.Entry {
	return []recording.Entry{
		{Sequence: 0, Offset: 0, Event: input.MoveTo(input.ControllerSoftware, 10, 20)},
		{Sequence: 1, Offset: 15 * time.Millisecond, Event: input.Key(65, input.KeyDown)},
		{Sequence: 2, Offset: 40 * time.Millisecond, Event: input.Key(65, input.KeyUp)},
		{Sequence: 3, Offset: 55 * time.Millisecond, Event: input.MoveBy(input.ControllerDirect, -3, 4)},
		{Sequence: 4, Offset: 90 * time.Millisecond, Event: input.Press(input.ControllerDirect, input.ButtonX1, input.KeyDown, 7, 8)},
		{Sequence: 5, Offset: 91 * time.Millisecond, Event: input.Press(input.ControllerDirect, input.ButtonX1, input.KeyUp, 7, 8)},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := openTestStore(t, "")

	saved, err := s.Save(Recording{Name: "login", Entries: sampleEntries()})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.Load("login")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "login", got.Name)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, sampleEntries(), got.Entries)
	assert.Nil(t, got.Preview)
}

func TestSaveReplaces(t *testing.T) {
	s := openTestStore(t, "")

	_, err := s.Save(Recording{Name: "a", Entries: sampleEntries(), Preview: []byte("png")})
	require.NoError(t, err)
	_, err = s.Save(Recording{Name: "a", Entries: sampleEntries()[:1]})
	require.NoError(t, err)

	got, err := s.Load("a")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 1)
	assert.Nil(t, got.Preview, "old preview is dropped")
}

func TestPreviewRoundTrip(t *testing.T) {
	s := openTestStore(t, "")
	_, err := s.Save(Recording{Name: "p", Entries: sampleEntries(), Preview: []byte{0x89, 'P', 'N', 'G'}})
	require.NoError(t, err)

	got, err := s.Load("p")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got.Preview)
}

func TestListSorted(t *testing.T) {
	s := openTestStore(t, "")
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.Save(Recording{Name: name, Entries: sampleEntries()})
		require.NoError(t, err)
	}

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[2].Name)
	assert.Equal(t, 6, list[0].Entries)
	assert.Equal(t, 91*time.Millisecond, list[0].Duration)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t, "")
	_, err := s.Save(Recording{Name: "gone", Entries: sampleEntries(), Preview: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, s.Delete("gone"))
	_, err = s.Load("gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete("gone"), ErrNotFound)

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInvalidNames(t *testing.T) {
	s := openTestStore(t, "")
	for _, name := range []string{"", "  ", "a/b"} {
		_, err := s.Save(Recording{Name: name})
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t, "")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Load("x")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.List()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)
	_, err = s.Save(Recording{Name: "kept", Entries: sampleEntries()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openTestStore(t, dir)
	got, err := s.Load("kept")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 6)
}

func TestExportImport(t *testing.T) {
	src := openTestStore(t, "")
	saved, err := src.Save(Recording{Name: "macro", Entries: sampleEntries(), Preview: []byte("img")})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "macro.arz")
	require.NoError(t, src.Export("macro", path))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	dst := openTestStore(t, "")
	imported, err := dst.Import(path, "copy")
	require.NoError(t, err)
	assert.Equal(t, "copy", imported.Name)
	assert.Equal(t, saved.ID, imported.ID)

	got, err := dst.Load("copy")
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), got.Entries)
	assert.Equal(t, []byte("img"), got.Preview)
}

func TestExportMissing(t *testing.T) {
	s := openTestStore(t, "")
	err := s.Export("nope", filepath.Join(t.TempDir(), "x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportCorrupt(t *testing.T) {
	s := openTestStore(t, "")
	path := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o644))

	_, err := s.Import(path, "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRejectsBadEntries(t *testing.T) {
	cases := map[string]persistedEntry{
		"kind":   {Kind: "wheel"},
		"state":  {Kind: "key", Code: 1, State: "sideways"},
		"button": {Kind: "mouse", Button: "x9", State: "down"},
		"empty":  {Kind: "mouse"},
		"move":   {Kind: "mouse", Move: "teleport"},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := toEntry(0, p)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}
