// internal/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/promptharvest/promptharvest/internal/scan"
)

// JSONWriter renders the summary as one indented JSON document.
type JSONWriter struct {
	path string
}

// NewJSONWriter creates a JSON report writer.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

// Write implements Writer.
func (w *JSONWriter) Write(summary *scan.Summary) error {
	if err := ensureDir(w.path); err != nil {
		return err
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create JSON report: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}
