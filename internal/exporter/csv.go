package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Separator is the field separator of exported CSV files
const Separator = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a writer that resolves relative file names under dir
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Comma     rune
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// DefaultWriteOptions are semicolon separated with a BOM
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Comma: Separator, BOMPrefix: true}
}

// Write writes the table to w
func (cw *CSVWriter) Write(w io.Writer, t *Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if options.Comma != 0 {
		writer.Comma = options.Comma
	}

	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range t.Records() {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the table to a file and returns its full path
func (cw *CSVWriter) WriteFile(filePath string, t *Table) (string, error) {
	fullPath := resolvePath(cw.dir, filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(t.Rows)))

	err := writeFile(fullPath, func(w io.Writer) error {
		return cw.Write(w, t, DefaultWriteOptions())
	})
	return fullPath, err
}

// resolvePath places relative paths under the export directory
func resolvePath(dir, filePath string) string {
	if filepath.IsAbs(filePath) || dir == "" {
		return filePath
	}
	return filepath.Join(dir, filePath)
}

// writeFile creates the parent directory and the file, then runs write
func writeFile(fullPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
