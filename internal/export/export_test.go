package export

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stockroom-dev/stockroom/internal/models"
	"gopkg.in/yaml.v3"
)

var sample = []models.Product{
	{ID: 1, Name: "Dragonfly", Price: "12.50", Category: "pets", Image: "dragonfly.png"},
	{ID: 2, Name: "Starter Bundle", Price: "3", Category: "bundles", Image: "https://example.com/b.png"},
}

func TestSnapshotUnsupportedFormat(t *testing.T) {
	err := Snapshot(sample, filepath.Join(t.TempDir(), "out.csv"))
	if err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
}

func TestSnapshotJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	if err := Snapshot(sample, path); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer file.Close()

	var got []models.Product
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var p models.Product
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			t.Fatalf("Invalid JSONL line: %v", err)
		}
		got = append(got, p)
	}

	if len(got) != len(sample) {
		t.Fatalf("Expected %d records, got %d", len(sample), len(got))
	}
	if got[0] != sample[0] || got[1] != sample[1] {
		t.Errorf("Round trip mismatch: %+v", got)
	}
}

func TestSnapshotYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Snapshot(sample, path); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	var doc yamlExport
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Invalid YAML: %v", err)
	}

	if doc.Config.Count != 2 {
		t.Errorf("Expected count 2 in header, got %d", doc.Config.Count)
	}
	if doc.Config.GeneratedAt == "" {
		t.Error("Expected generated-at timestamp in header")
	}
	if len(doc.Products) != 2 || doc.Products[0].Name != "Dragonfly" {
		t.Errorf("Unexpected products: %+v", doc.Products)
	}
}

func TestSnapshotParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	if err := Snapshot(sample, path); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		t.Fatalf("Failed to stat output: %v", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		t.Fatalf("Failed to open parquet: %v", err)
	}
	if pf.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", pf.NumRows())
	}

	reader := parquet.NewGenericReader[row](pf)
	defer reader.Close()

	rows := make([]row, 2)
	n, _ := reader.Read(rows)
	if n != 2 {
		t.Fatalf("Expected to read 2 rows, got %d", n)
	}
	if rows[0].Name != "Dragonfly" || rows[1].Category != "bundles" {
		t.Errorf("Unexpected rows: %+v", rows)
	}
}
