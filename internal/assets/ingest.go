package assets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/stockroom-dev/stockroom/internal/models"
)

// MaxAssetSize is the upload ceiling for a single attachment.
const MaxAssetSize = 5 * 1024 * 1024

// allowedExtensions is the raster image allow-list, keyed without the dot.
var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
}

// ValidationError rejects an upload before any persistence happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Mirrorer pushes asset bytes to the remote backend; satisfied by
// mirror.Client.
type Mirrorer interface {
	Mirror(ctx context.Context, path string, content []byte, message string) models.MirrorStatus
}

// Ingestor validates attachments, persists them locally and mirrors them
// best-effort to the remote backend.
type Ingestor struct {
	dir    string
	mirror Mirrorer
	rawURL func(path string) string

	// now is swappable for tests; asset filenames embed a timestamp.
	now func() time.Time
}

// NewIngestor creates an ingestor writing into dir. rawURL maps a
// remote-relative path to its public URL and may be nil when mirroring is
// disabled.
func NewIngestor(dir string, mirror Mirrorer, rawURL func(string) string) *Ingestor {
	return &Ingestor{
		dir:    dir,
		mirror: mirror,
		rawURL: rawURL,
		now:    time.Now,
	}
}

// Ingest validates and stores one attachment.
//
// Validation order, first failure wins: non-empty payload, size ceiling,
// extension allow-list. On success the bytes are written under a sanitized
// timestamped filename and mirrored to the same relative path; a mirror
// failure does not fail ingestion, it only downgrades the display URL.
// sourceURL is an optional transient location (e.g. an ephemeral upload URL)
// used as the display fallback when mirroring is unavailable.
func (ing *Ingestor) Ingest(ctx context.Context, data []byte, filename string, size int64, humanName, sourceURL string) (*models.AssetRef, error) {
	if len(data) == 0 {
		return nil, &ValidationError{Reason: "attachment is empty"}
	}
	if size > MaxAssetSize {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("attachment is %d bytes, limit is %d bytes", size, MaxAssetSize),
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("extension %q is not allowed (allowed: %s)", ext, strings.Join(allowedExtensionList(), ", ")),
		}
	}

	ts := ing.now().Unix()
	base := SanitizeName(humanName)
	if base == "" {
		base = "asset"
	}
	assetName := fmt.Sprintf("%s_%d.%s", base, ts, ext)

	if err := os.MkdirAll(ing.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}

	localPath := filepath.Join(ing.dir, assetName)
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save asset: %w", err)
	}

	slog.Info("Asset saved", "filename", assetName, "bytes", len(data))

	ref := &models.AssetRef{LocalPath: localPath}

	// Mirror under the directory's base name so an absolute local asset dir
	// still maps to a repo-relative path.
	remotePath := filepath.Base(ing.dir) + "/" + assetName
	status := ing.mirror.Mirror(ctx, remotePath, data, fmt.Sprintf("Add asset %s via stockroom", assetName))
	switch status.State {
	case models.MirrorOK:
		if ing.rawURL != nil {
			ref.RemoteURL = ing.rawURL(remotePath)
		}
	case models.MirrorFailed:
		slog.Warn("Asset mirror failed", "filename", assetName, "detail", status.Detail)
	}

	// Richest resolvable reference wins: a bare local path is not reachable
	// by external viewers.
	switch {
	case ref.RemoteURL != "":
		ref.DisplayURL = ref.RemoteURL
	case sourceURL != "":
		ref.DisplayURL = sourceURL
	default:
		ref.DisplayURL = ref.LocalPath
	}

	return ref, nil
}

// SanitizeName derives a filesystem-safe base name from a human-supplied
// one: trimmed, whitespace collapsed to single underscores, everything
// outside a conservative safe set stripped.
func SanitizeName(name string) string {
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._-")
}

func allowedExtensionList() []string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
