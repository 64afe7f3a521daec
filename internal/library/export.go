package library

import (
	"fmt"
	"os"
	"path/filepath"
)

// Export writes the named recording, preview included, to path as a
// zstd-compressed JSON document. The file is replaced atomically.
func (s *Store) Export(name, path string) error {
	rec, err := s.Load(name)
	if err != nil {
		return err
	}
	blob, err := s.codec.encode(rec)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, blob, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("write export: %w", err)
	}

	s.logger.Info("recording exported", "name", name, "path", path)
	return nil
}

// Import reads an exported recording from path and saves it. A non-empty
// name overrides the name stored in the file.
func (s *Store) Import(path, name string) (Recording, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Recording{}, fmt.Errorf("read import: %w", err)
	}
	rec, err := s.codec.decode(blob)
	if err != nil {
		return Recording{}, fmt.Errorf("import %s: %w", path, err)
	}
	if name != "" {
		rec.Name = name
	}
	return s.Save(rec)
}
