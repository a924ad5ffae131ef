package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "mortgagepulse/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Kind reports the source format from the file extension: "xlsx", "csv" or "".
func (f FileInfo) Kind() string {
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".xlsx":
		return "xlsx"
	case ".csv":
		return "csv"
	default:
		return ""
	}
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindSources lists the XLSX and CSV pricing exports directly inside dir,
// ordered by name. Office lock files (~$name.xlsx) and hidden files are skipped.
func (d *Discovery) FindSources(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("source directory %s", fullPath))
		}
		return nil, apperrors.NewStorageError("failed to read directory", err).WithContext("path", fullPath)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fi := FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if fi.Kind() == "" {
			continue
		}
		files = append(files, fi)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindFilesByPattern finds pricing sources in dir whose name matches a glob pattern.
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid pattern %s", pattern), err)
	}
	all, err := d.FindSources(dir)
	if err != nil {
		return nil, err
	}

	matched := make([]FileInfo, 0, len(all))
	for _, f := range all {
		if ok, _ := filepath.Match(pattern, f.Name); ok {
			matched = append(matched, f)
		}
	}
	return matched, nil
}
