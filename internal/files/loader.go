package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"mortgagepulse/internal/dataprocessing"
	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/pkg/contracts/domain"
)

// ErrNoSources is returned when there is nothing to load.
var ErrNoSources = errors.New("no pricing sources found")

// Loader reads discovered files into raw datasets.
type Loader struct {
	logger      *slog.Logger
	concurrency int
}

// NewLoader creates a Loader reading at most concurrency files at once.
// concurrency < 1 means one at a time.
func NewLoader(logger *slog.Logger, concurrency int) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		logger:      logger.With(slog.String("component", "files")),
		concurrency: concurrency,
	}
}

// Load reads every file concurrently and returns the datasets in the order of
// files. The first read failure cancels the remaining reads and is returned.
func (l *Loader) Load(ctx context.Context, files []FileInfo) ([]domain.Dataset, error) {
	if len(files) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound, "nothing to load", ErrNoSources)
	}

	started := time.Now()
	datasets := make([]domain.Dataset, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := readSource(f)
			if err != nil {
				return err
			}
			l.logger.DebugContext(gctx, "source loaded",
				slog.String("path", f.Path),
				slog.Int("rows", len(ds.Rows)),
				slog.Int("columns", len(ds.Headers)))
			datasets[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := 0
	for _, ds := range datasets {
		rows += len(ds.Rows)
	}
	l.logger.InfoContext(ctx, "sources loaded",
		slog.Int("files", len(files)),
		slog.Int("rows", rows),
		slog.Duration("duration", time.Since(started)))

	return datasets, nil
}

// LoadDir discovers the sources in dir and loads them.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]domain.Dataset, error) {
	files, err := NewDiscovery("").FindSources(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound, "no xlsx or csv files in directory", ErrNoSources).WithContext("path", dir)
	}
	return l.Load(ctx, files)
}

func readSource(f FileInfo) (domain.Dataset, error) {
	switch f.Kind() {
	case "xlsx":
		return dataprocessing.ReadWorkbook(f.Path)
	case "csv":
		return dataprocessing.ReadCSVFile(f.Path)
	default:
		return domain.Dataset{Source: f.Path}, apperrors.NewValidationError(fmt.Sprintf("unsupported source %s", f.Name), nil)
	}
}
