package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "mortgagepulse/internal/errors"
)

// FileValidator checks the paths a report run reads from and writes to.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateInputDirectory checks that dir exists and is a directory.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist", slog.String("directory", dir))
		return apperrors.NewNotFoundError(fmt.Sprintf("input directory %s", dir))
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat input directory", err).WithContext("path", dir)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory", slog.String("path", dir))
		return apperrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir), nil)
	}
	return nil
}

// ValidateOutputDirectory ensures dir exists, creating it if needed, and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("path", dir)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory is not writable", err).WithContext("path", dir)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateFile checks that path is an existing, readable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat file", err).WithContext("path", path)
	}
	if info.IsDir() {
		return apperrors.NewValidationError(fmt.Sprintf("%s is a directory, not a file", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError("file is not readable", err).WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSourceFile checks that path is a readable XLSX or CSV export.
// Legacy .xls workbooks and Office lock files are rejected.
func (v *FileValidator) ValidateSourceFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file", slog.String("file", path))
		return apperrors.NewValidationError(fmt.Sprintf("%s is a temporary Excel file", path), nil)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".csv":
		return nil
	default:
		return apperrors.NewValidationError(fmt.Sprintf("%s is not an xlsx or csv file (extension: %s)", path, ext), nil)
	}
}

// ValidateOutputPath checks that path ends in one of exts and that its
// directory is writable. An empty exts accepts any extension.
func (v *FileValidator) ValidateOutputPath(path string, exts ...string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.NewValidationError("output path is empty", nil)
	}
	if len(exts) > 0 {
		ext := strings.ToLower(filepath.Ext(path))
		ok := false
		for _, want := range exts {
			if ext == want {
				ok = true
				break
			}
		}
		if !ok {
			return apperrors.NewValidationError(fmt.Sprintf("output %s must end in one of %s", path, strings.Join(exts, ", ")), nil)
		}
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewValidationError(fmt.Sprintf("output %s is a directory", path), nil)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}
