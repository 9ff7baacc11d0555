package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stockroom-dev/stockroom/internal/models"
)

type fakeMirror struct {
	status models.MirrorStatus
	paths  []string
}

func (f *fakeMirror) Mirror(ctx context.Context, path string, content []byte, message string) models.MirrorStatus {
	f.paths = append(f.paths, path)
	return f.status
}

func newTestIngestor(t *testing.T, status models.MirrorStatus, rawURL func(string) string) (*Ingestor, *fakeMirror) {
	t.Helper()
	fm := &fakeMirror{status: status}
	ing := NewIngestor(filepath.Join(t.TempDir(), "uploads"), fm, rawURL)
	ing.now = func() time.Time { return time.Unix(1700000000, 0) }
	return ing, fm
}

func TestIngestValidation(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
		size     int64
		wantErr  string
	}{
		{
			name:     "empty payload",
			data:     nil,
			filename: "a.png",
			size:     0,
			wantErr:  "empty",
		},
		{
			name:     "over the size ceiling",
			data:     []byte("x"),
			filename: "a.png",
			size:     6 * 1024 * 1024,
			wantErr:  "limit is 5242880 bytes",
		},
		{
			name:     "disallowed extension",
			data:     []byte("hello"),
			filename: "notes.txt",
			size:     5,
			wantErr:  "not allowed",
		},
		{
			name:     "no extension",
			data:     []byte("hello"),
			filename: "noext",
			size:     5,
			wantErr:  "not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing, fm := newTestIngestor(t, models.MirrorStatus{State: models.MirrorOK}, nil)

			_, err := ing.Ingest(context.Background(), tt.data, tt.filename, tt.size, "name", "")
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q in error, got %q", tt.wantErr, err.Error())
			}
			if len(fm.paths) != 0 {
				t.Error("Rejected upload must not reach the mirror")
			}
		})
	}
}

func TestIngestValidPNG(t *testing.T) {
	ing, fm := newTestIngestor(t, models.MirrorStatus{State: models.MirrorOK}, func(path string) string {
		return "https://raw.example.com/" + path
	})

	data := make([]byte, 10*1024)
	ref, err := ing.Ingest(context.Background(), data, "photo.PNG", int64(len(data)), "Cool Pet", "")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	wantName := "Cool_Pet_1700000000.png"
	if filepath.Base(ref.LocalPath) != wantName {
		t.Errorf("Expected filename %s, got %s", wantName, filepath.Base(ref.LocalPath))
	}

	saved, err := os.ReadFile(ref.LocalPath)
	if err != nil {
		t.Fatalf("Failed to read saved asset: %v", err)
	}
	if len(saved) != len(data) {
		t.Errorf("Expected %d bytes on disk, got %d", len(data), len(saved))
	}

	if len(fm.paths) != 1 || fm.paths[0] != "uploads/"+wantName {
		t.Errorf("Expected mirror of uploads/%s, got %v", wantName, fm.paths)
	}
	if ref.RemoteURL == "" || ref.DisplayURL != ref.RemoteURL {
		t.Errorf("Expected remote display URL, got %+v", ref)
	}
}

func TestIngestDisplayURLFallback(t *testing.T) {
	data := []byte("png-bytes")

	t.Run("mirror failure falls back to source URL", func(t *testing.T) {
		ing, _ := newTestIngestor(t, models.MirrorStatus{State: models.MirrorFailed, Detail: "boom"}, nil)

		ref, err := ing.Ingest(context.Background(), data, "a.png", int64(len(data)), "a", "https://cdn.example.com/tmp/a.png")
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
		if ref.RemoteURL != "" {
			t.Errorf("Expected no remote URL, got %s", ref.RemoteURL)
		}
		if ref.DisplayURL != "https://cdn.example.com/tmp/a.png" {
			t.Errorf("Expected source URL fallback, got %s", ref.DisplayURL)
		}
	})

	t.Run("no mirror and no source falls back to local path", func(t *testing.T) {
		ing, _ := newTestIngestor(t, models.MirrorStatus{State: models.MirrorDisabled}, nil)

		ref, err := ing.Ingest(context.Background(), data, "a.png", int64(len(data)), "a", "")
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
		if ref.DisplayURL != ref.LocalPath {
			t.Errorf("Expected local path fallback, got %s", ref.DisplayURL)
		}
	})
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain", "pet", "pet"},
		{"whitespace collapsed", "  Cool   Pet  ", "Cool_Pet"},
		{"unsafe chars stripped", "a/b\\c:d*e?f", "abcdef"},
		{"unicode stripped", "héllo wörld", "hllo_wrld"},
		{"emptied name", "///", ""},
		{"leading dots trimmed", "..hidden", "hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.in); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIngestEmptiedNameFallsBack(t *testing.T) {
	ing, _ := newTestIngestor(t, models.MirrorStatus{State: models.MirrorDisabled}, nil)

	data := []byte("x")
	ref, err := ing.Ingest(context.Background(), data, "a.png", 1, "///", "")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if filepath.Base(ref.LocalPath) != "asset_1700000000.png" {
		t.Errorf("Expected fallback name, got %s", filepath.Base(ref.LocalPath))
	}
}
