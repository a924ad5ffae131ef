package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mortgagepulse/internal/config"
	apperrors "mortgagepulse/internal/errors"
)

// utf8BOM is written ahead of CSV output so Excel detects UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance. Relative file paths are
// resolved against the reports directory of paths; a nil paths leaves them as given.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file, replacing any existing content.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := resolveReportPath(w.paths, filePath)

	slog.Debug("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", fullPath)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return apperrors.NewStorageError("failed to create file", err).WithContext("path", fullPath)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err).WithContext("path", fullPath)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return apperrors.NewStorageError("failed to write headers", err).WithContext("path", fullPath)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err).WithContext("path", fullPath)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush csv", err).WithContext("path", fullPath)
	}
	return file.Close()
}

// WriteTable writes a Table with a BOM prefix.
func (w *CSVWriter) WriteTable(filePath string, table Table) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   table.Headers,
		Records:   table.Rows,
		BOMPrefix: true,
	})
}

// resolveReportPath places relative paths in the reports directory.
func resolveReportPath(paths *config.Paths, filePath string) string {
	if filepath.IsAbs(filePath) || paths == nil {
		return filePath
	}
	return paths.GetReportPath(filePath)
}
