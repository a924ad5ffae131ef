package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the resolved, absolute locations a run reads from and writes to.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string

	AggregateCSV string
	CrossTabCSV  string
	Workbook     string
	MetricsFile  string
}

// ResolvePaths makes the configured directories absolute. Relative entries are
// joined to base; an empty base means the current working directory.
func (c *Config) ResolvePaths(base string) (*Paths, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	reports := abs(c.Paths.ReportsDir)
	paths := &Paths{
		BaseDir:      base,
		DataDir:      abs(c.Paths.DataDir),
		ReportsDir:   reports,
		LogsDir:      abs(c.Paths.LogsDir),
		AggregateCSV: filepath.Join(reports, AggregateCSVName),
		CrossTabCSV:  filepath.Join(reports, CrossTabCSVName),
		Workbook:     filepath.Join(reports, WorkbookName),
	}
	if c.Telemetry.MetricsFile != "" {
		paths.MetricsFile = abs(c.Telemetry.MetricsFile)
	}
	return paths, nil
}

// EnsureDirectories creates the output directories if they don't exist. The
// data directory is an input and is left alone.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetReportPath returns filename inside the reports directory.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns filename inside the logs directory.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("report_files",
			slog.String("aggregate_csv", p.AggregateCSV),
			slog.String("cross_tab_csv", p.CrossTabCSV),
			slog.String("workbook", p.Workbook),
			slog.String("metrics", p.MetricsFile),
		))
}
