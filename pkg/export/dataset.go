package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dataset is a titled table with optional free-text notes printed above it.
type Dataset struct {
	Title   string
	Notes   []string
	Headers []string
	Rows    [][]string
}

// Renderer turns a dataset into a document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// ForPath picks a renderer from the file extension: .csv or .pdf.
func ForPath(path string) (Renderer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVExporter(), nil
	case ".pdf":
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q (want .csv or .pdf)", filepath.Ext(path))
	}
}

// WriteFile renders data with the renderer matching path and writes it there,
// creating parent directories as needed.
func WriteFile(path string, data Dataset) error {
	renderer, err := ForPath(path)
	if err != nil {
		return err
	}
	payload, err := renderer.Render(data)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("prepare report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

func validate(data Dataset) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("report requires at least one header")
	}
	for i, row := range data.Rows {
		if len(row) != len(data.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(data.Headers))
		}
	}
	return nil
}
