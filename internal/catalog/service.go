package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/stockroom-dev/stockroom/internal/models"
)

// ErrNotFound is returned when a mutation targets a product id that is not
// in the snapshot.
var ErrNotFound = errors.New("product not found")

// defaultCategories are offered as suggestions while the catalog is empty.
var defaultCategories = []string{"pets", "sheckles", "bundles", "misc"}

// maxCategorySuggestions caps the Categories result.
const maxCategorySuggestions = 25

// Mirrorer pushes a local write to the remote backend. The concrete
// implementation is mirror.Client; the interface keeps the service testable
// without network I/O.
type Mirrorer interface {
	Mirror(ctx context.Context, path string, content []byte, message string) models.MirrorStatus
}

// Service owns catalog mutations. Local persistence is the authority: a
// failed save aborts the mutation, while a failed mirror only degrades the
// result. The load-mutate-save sequence is serialized behind a mutex so
// concurrent requests cannot overwrite each other's snapshot.
type Service struct {
	store  *Store
	mirror Mirrorer

	mu sync.Mutex
	// lastID is the highest id handed out in this process. Deleting the
	// highest record must not free its id for reuse within the same run.
	lastID int
}

// NewService creates a mutation service over the given store and mirror.
func NewService(store *Store, mirror Mirrorer) *Service {
	return &Service{store: store, mirror: mirror}
}

// AddInput carries the validated fields for a new product.
type AddInput struct {
	Name     string
	Price    string
	Category string
	Image    string
}

// MutationResult reports a committed local mutation plus the advisory outcome
// of mirroring it.
type MutationResult struct {
	Product models.Product      `json:"product"`
	Mirror  models.MirrorStatus `json:"mirror"`
}

// Add appends a new product with the next free id, saves the snapshot and
// mirrors it. A save failure returns an error and skips mirroring; a mirror
// failure is reported in the result, never as an error.
func (s *Service) Add(ctx context.Context, in AddInput) (*MutationResult, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("product name is required")
	}

	s.mu.Lock()
	products, err := s.store.Load()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	id := NextID(products)
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	product := models.Product{
		ID:       id,
		Name:     in.Name,
		Price:    in.Price,
		Category: in.Category,
		Image:    in.Image,
	}
	products = append(products, product)

	if err := s.store.Save(products); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	slog.Info("Product added", "id", product.ID, "name", product.Name, "category", product.Category)

	status := s.mirrorSnapshot(ctx, fmt.Sprintf("Add product %s via stockroom", product.Name))
	return &MutationResult{Product: product, Mirror: status}, nil
}

// Remove deletes the product with the given id, saves the snapshot and
// mirrors it. Returns ErrNotFound if the id is not present.
func (s *Service) Remove(ctx context.Context, id int) (*MutationResult, error) {
	s.mu.Lock()
	products, err := s.store.Load()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	idx := -1
	for i, p := range products {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	removed := products[idx]
	products = append(products[:idx], products[idx+1:]...)

	if err := s.store.Save(products); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	slog.Info("Product removed", "id", removed.ID, "name", removed.Name)

	status := s.mirrorSnapshot(ctx, fmt.Sprintf("Remove product %d via stockroom", id))
	return &MutationResult{Product: removed, Mirror: status}, nil
}

// List returns the full snapshot in stored order.
func (s *Service) List() ([]models.Product, error) {
	return s.store.Load()
}

// Categories returns distinct categories matching the given prefix filter
// (case-insensitive substring, like the original autocomplete), sorted and
// capped at 25. When the catalog has no categories a default set is offered.
func (s *Service) Categories(filter string) ([]string, error) {
	products, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var categories []string
	for _, p := range products {
		c := strings.TrimSpace(p.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	sort.Strings(categories)

	matched := filterFold(categories, filter)
	if len(matched) == 0 {
		matched = filterFold(defaultCategories, filter)
	}
	if len(matched) > maxCategorySuggestions {
		matched = matched[:maxCategorySuggestions]
	}
	return matched, nil
}

func filterFold(values []string, filter string) []string {
	filter = strings.ToLower(filter)
	var out []string
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), filter) {
			out = append(out, v)
		}
	}
	return out
}

// mirrorSnapshot pushes the on-disk snapshot bytes to the remote. It reads
// the file back rather than reserializing so the mirrored content is exactly
// what a reader of the local store would see.
func (s *Service) mirrorSnapshot(ctx context.Context, message string) models.MirrorStatus {
	data, err := os.ReadFile(s.store.Path())
	if err != nil {
		return models.MirrorStatus{State: models.MirrorFailed, Detail: fmt.Sprintf("failed to read snapshot for mirroring: %v", err)}
	}

	status := s.mirror.Mirror(ctx, filepath.Base(s.store.Path()), data, message)
	if status.State == models.MirrorFailed {
		slog.Warn("Snapshot mirror failed", "detail", status.Detail)
	}
	return status
}
