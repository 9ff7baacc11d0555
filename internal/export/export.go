package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stockroom-dev/stockroom/internal/models"
	"gopkg.in/yaml.v3"
)

// row is the flat parquet schema for a product.
type row struct {
	ID       int64  `parquet:"id"`
	Name     string `parquet:"name"`
	Price    string `parquet:"price"`
	Category string `parquet:"category"`
	Image    string `parquet:"image"`
}

// yamlProduct mirrors models.Product with yaml tags.
type yamlProduct struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Price    string `yaml:"price"`
	Category string `yaml:"category"`
	Image    string `yaml:"image"`
}

// yamlExport is the document layout for YAML exports: a small config header
// followed by the records.
type yamlExport struct {
	Config struct {
		Count       int    `yaml:"count"`
		GeneratedAt string `yaml:"generatedat"`
	} `yaml:"config"`
	Products []yamlProduct `yaml:"products"`
}

// Snapshot writes the products to outputPath in the format implied by its
// extension (.parquet, .yaml/.yml or .jsonl).
func Snapshot(products []models.Product, outputPath string) error {
	ext := strings.ToLower(filepath.Ext(outputPath))

	switch ext {
	case ".parquet":
		return writeParquet(products, outputPath)
	case ".yaml", ".yml":
		return writeYAML(products, outputPath)
	case ".jsonl":
		return writeJSONL(products, outputPath)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: .parquet, .yaml, .jsonl)", ext)
	}
}

func writeParquet(products []models.Product, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[row](file)

	rows := make([]row, len(products))
	for i, p := range products {
		rows[i] = row{
			ID:       int64(p.ID),
			Name:     p.Name,
			Price:    p.Price,
			Category: p.Category,
			Image:    p.Image,
		}
	}

	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	slog.Debug("Wrote parquet export", "path", outputPath, "rows", len(rows))
	return nil
}

func writeYAML(products []models.Product, outputPath string) error {
	var doc yamlExport
	doc.Config.Count = len(products)
	doc.Config.GeneratedAt = time.Now().Format("2006-01-02_15-04-05")
	doc.Products = make([]yamlProduct, len(products))
	for i, p := range products {
		doc.Products[i] = yamlProduct(p)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	slog.Debug("Wrote YAML export", "path", outputPath, "products", len(products))
	return nil
}

func writeJSONL(products []models.Product, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSONL file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, p := range products {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to encode product %d: %w", p.ID, err)
		}
	}

	slog.Debug("Wrote JSONL export", "path", outputPath, "products", len(products))
	return nil
}
