package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stockroom-dev/stockroom/internal/models"
)

// Store persists the full product snapshot as a pretty-printed JSON array.
// The file on disk is the source of truth for reads; writes replace it
// atomically so readers and crashes never observe a partial snapshot.
type Store struct {
	path string
}

// NewStore creates a store backed by the given snapshot file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file is a normal first run and yields an
// empty snapshot. A malformed file is logged loudly and also yields an empty
// snapshot: availability is preferred over failing every caller, at the cost
// of silently dropping the corrupt data on the next save.
func (s *Store) Load() ([]models.Product, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		slog.Error("Snapshot file contains invalid JSON, treating as empty", "path", s.path, "error", err)
		return []models.Product{}, nil
	}
	return products, nil
}

// Save atomically replaces the snapshot: the serialized products are written
// to a temporary file in the snapshot's directory, then renamed over the
// target. On any failure the temporary file is removed and the original
// snapshot is left untouched.
func (s *Store) Save(products []models.Product) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, ".products-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	// Same-directory rename, so the replace is atomic on the filesystem.
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// NextID returns 1 for an empty snapshot, otherwise max(ids)+1. IDs are never
// reused after deletion within a process lifetime.
func NextID(products []models.Product) int {
	maxID := 0
	for _, p := range products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}
