// Command mortgage-report loads mortgage pricing exports, applies a filter and
// writes band by month aggregates, weighted averages and a lender market-share
// cross-tab as CSV and XLSX reports.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mortgagepulse/internal/aggregation"
	"mortgagepulse/internal/config"
	"mortgagepulse/internal/dataprocessing"
	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/internal/exporter"
	"mortgagepulse/internal/files"
	"mortgagepulse/internal/filter"
	"mortgagepulse/internal/infrastructure"
	"mortgagepulse/internal/marketshare"
	"mortgagepulse/internal/validation"
	"mortgagepulse/pkg/contracts"
	"mortgagepulse/pkg/contracts/domain"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "mortgage-report: ignoring .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the parsed command line.
type options struct {
	dir           string
	from, to      string
	lenders       string
	ltv           string
	purchaseTypes string
	bands         string
	monthsFrom    string
	monthsTo      string
	sample        int
	dedupe        bool
	out           string
	metrics       string
	listOptions   bool
	version       bool
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	var o options
	fset := flag.NewFlagSet("mortgage-report", flag.ContinueOnError)
	fset.SetOutput(stderr)

	fset.StringVar(&o.dir, "dir", "", "directory of .xlsx/.csv pricing exports (default: paths.data_dir)")
	fset.StringVar(&o.from, "from", "", "first document date to include")
	fset.StringVar(&o.to, "to", "", "last document date to include")
	fset.StringVar(&o.lenders, "lenders", "", "comma separated lenders (default: all)")
	fset.StringVar(&o.ltv, "ltv", string(domain.LTVAll), "LTV bucket: all, below-80, above-80, above-85, above-90")
	fset.StringVar(&o.purchaseTypes, "purchase-types", "", "comma separated purchase types (default: all)")
	fset.StringVar(&o.bands, "bands", "", "comma separated premium bands for the cross-tab (default: all present)")
	fset.StringVar(&o.monthsFrom, "months-from", "", "first aggregate month, YYYY-MM")
	fset.StringVar(&o.monthsTo, "months-to", "", "last aggregate month, YYYY-MM")
	fset.IntVar(&o.sample, "sample", cfg.Aggregation.SampleSize, "aggregate at most this many records, head and tail (0: all)")
	fset.BoolVar(&o.dedupe, "dedupe", cfg.Ingestion.Deduplicate, "drop duplicate provider/product/rate/date rows")
	fset.StringVar(&o.out, "out", "", "reports directory (default: paths.reports_dir)")
	fset.StringVar(&o.metrics, "metrics", strings.Join(cfg.Aggregation.WeightedMetrics, ","), "comma separated weighted average metrics")
	fset.BoolVar(&o.listOptions, "options", false, "print the available filter options as JSON and exit")
	fset.BoolVar(&o.version, "version", false, "print version information and exit")

	if err := fset.Parse(args); err != nil {
		return o, apperrors.NewValidationError("invalid arguments", err)
	}
	if fset.NArg() > 0 {
		return o, apperrors.NewValidationError(fmt.Sprintf("unexpected arguments: %s", strings.Join(fset.Args(), " ")), nil)
	}
	if (o.monthsFrom == "") != (o.monthsTo == "") {
		return o, apperrors.NewValidationError("-months-from and -months-to must be given together", nil)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		return fail(stderr, err)
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitOK
		}
		return fail(stderr, err)
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return apperrors.ExitOK
	}

	logger, logFile, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fail(stderr, apperrors.NewConfigError("failed to initialize logger", err))
	}
	if logFile != nil {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	ctx = infrastructure.EnsureTraceID(ctx)

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, stderr, logger)
	if err != nil {
		return fail(stderr, apperrors.NewConfigError("failed to initialize telemetry", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	r := &runner{cfg: cfg, opts: opts, logger: logger, telemetry: telemetry, stdout: stdout}
	if err := r.execute(ctx); err != nil {
		logger.ErrorContext(ctx, "report run failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))))
		return fail(stderr, err)
	}
	return apperrors.ExitOK
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "mortgage-report: %v\n", err)
	return apperrors.ExitCode(err)
}

type runner struct {
	cfg       *config.Config
	opts      options
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	stdout    io.Writer
}

// stage runs fn inside a telemetry span named name.
func (r *runner) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, done := r.telemetry.StartStage(ctx, name)
	err := fn(ctx)
	done(err)
	return err
}

func (r *runner) execute(ctx context.Context) error {
	if r.opts.dir != "" {
		r.cfg.Paths.DataDir = r.opts.dir
	}
	if r.opts.out != "" {
		r.cfg.Paths.ReportsDir = r.opts.out
	}
	paths, err := r.cfg.ResolvePaths("")
	if err != nil {
		return apperrors.NewConfigError("failed to resolve paths", err)
	}
	paths.LogPathResolution(r.logger)

	validator := validation.NewFileValidator(r.logger)
	if err := validator.ValidateInputDirectory(paths.DataDir); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "report run started",
		slog.String("data_dir", paths.DataDir),
		slog.String("reports_dir", paths.ReportsDir),
		slog.String("version", config.AppVersion))

	var datasets []domain.Dataset
	err = r.stage(ctx, "load", func(ctx context.Context) error {
		loader := files.NewLoader(r.logger, r.cfg.Ingestion.MaxConcurrentFiles)
		datasets, err = loader.LoadDir(ctx, paths.DataDir)
		return err
	})
	if err != nil {
		return err
	}

	var records []domain.MortgageRecord
	err = r.stage(ctx, "ingest", func(ctx context.Context) error {
		ing := dataprocessing.NewIngestor(r.logger, dataprocessing.IngestorConfig{Deduplicate: r.opts.dedupe})
		var stats domain.IngestStats
		records, stats = ing.CombineAndSort(ctx, datasets)
		r.telemetry.RecordIngest(ctx, stats)
		if len(records) == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("usable records in %s", paths.DataDir))
		}
		return nil
	})
	if err != nil {
		return err
	}

	engine := filter.NewEngine(r.logger, filter.EngineConfig{OptionsSampleLimit: r.cfg.Ingestion.OptionsSampleLimit}, records)
	if r.opts.listOptions {
		return r.printOptions(ctx, engine)
	}

	var filtered []domain.MortgageRecord
	err = r.stage(ctx, "filter", func(ctx context.Context) error {
		if err := r.checkDates(); err != nil {
			return err
		}
		if err := engine.Update(r.applyFlags); err != nil {
			return err
		}
		filtered, err = engine.Filtered(ctx)
		return err
	})
	if err != nil {
		return err
	}
	r.telemetry.RecordFilter(ctx, len(records), len(filtered))

	report, err := r.analyse(ctx, filtered)
	if err != nil {
		return err
	}

	err = r.stage(ctx, "export", func(ctx context.Context) error {
		return r.export(ctx, validator, paths, report)
	})
	if err != nil {
		return err
	}

	r.telemetry.RecordRuntime(ctx)
	if err := r.telemetry.WriteMetricsFile(paths.MetricsFile); err != nil {
		r.logger.WarnContext(ctx, "metrics file not written", slog.String("error", err.Error()))
	}

	r.logger.InfoContext(ctx, "report run complete",
		slog.Int("records", len(records)),
		slog.Int("filtered", len(filtered)),
		slog.Int("bands", len(report.Aggregate.PremiumBands)),
		slog.Int("months", len(report.Aggregate.Months)),
		slog.Int("lenders", len(report.CrossTabRows)-1))
	return nil
}

// applyFlags copies the filter flags onto the engine's specification.
func (r *runner) applyFlags(spec *domain.FilterSpec) {
	start, end := spec.DateRange.Start, spec.DateRange.End
	if r.opts.from != "" {
		start = parseDay(r.opts.from)
	}
	if r.opts.to != "" {
		end = parseDay(r.opts.to)
	}
	spec.SetDateRange(start, end)
	if lenders := splitList(r.opts.lenders); len(lenders) > 0 {
		spec.SelectLenders(lenders...)
	}
	if types := splitList(r.opts.purchaseTypes); len(types) > 0 {
		spec.SelectPurchaseTypes(types...)
	}
	spec.SetLTVBucket(domain.LTVBucket(r.opts.ltv))
}

// checkDates rejects -from or -to values that did not parse.
func (r *runner) checkDates() error {
	for _, f := range []struct{ name, raw string }{{"-from", r.opts.from}, {"-to", r.opts.to}} {
		if f.raw != "" && parseDay(f.raw) == nil {
			return apperrors.NewValidationError(fmt.Sprintf("%s: unreadable date %q", f.name, f.raw), nil)
		}
	}
	return nil
}

func parseDay(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t := dataprocessing.ParseDate(raw)
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *runner) printOptions(ctx context.Context, engine *filter.Engine) error {
	opts, err := engine.AvailableOptions(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(r.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(opts); err != nil {
		return apperrors.NewStorageError("failed to write options", err)
	}
	return nil
}

func (r *runner) analyse(ctx context.Context, records []domain.MortgageRecord) (exporter.Report, error) {
	var report exporter.Report

	metrics, err := parseMetrics(r.opts.metrics)
	if err != nil {
		return report, err
	}
	aggOpts := aggregation.Options{SampleSize: r.opts.sample}
	if r.opts.monthsFrom != "" {
		aggOpts.MonthRange = &aggregation.MonthRange{Start: r.opts.monthsFrom, End: r.opts.monthsTo}
	}

	agg := aggregation.New(r.logger)
	err = r.stage(ctx, "aggregate", func(ctx context.Context) error {
		if report.Aggregate, err = agg.Aggregate(ctx, records, aggOpts); err != nil {
			return err
		}
		r.telemetry.RecordSkipped(ctx, "aggregate", report.Aggregate.Skipped)
		if len(metrics) == 0 {
			return nil
		}
		report.Weighted, err = agg.WeightedAverages(ctx, records, metrics, r.cfg.Aggregation.IncludeMonthly, aggOpts)
		return err
	})
	if err != nil {
		return report, err
	}

	err = r.stage(ctx, "cross_tab", func(ctx context.Context) error {
		tab := marketshare.New(r.logger)
		result, err := tab.CrossTab(ctx, records, splitList(r.opts.bands), marketshare.Options{
			UnknownLTVPolicy: marketshare.UnknownLTVPolicy(r.cfg.CrossTab.UnknownLTVPolicy),
		})
		if err != nil {
			return err
		}
		r.telemetry.RecordSkipped(ctx, "cross_tab", result.Skipped)
		report.CrossTabBands = result.PremiumBands
		report.CrossTabRows, err = marketshare.Rows(result, marketshare.SortKey(r.cfg.CrossTab.SortKey))
		return err
	})
	return report, err
}

func (r *runner) export(ctx context.Context, validator *validation.FileValidator, paths *config.Paths, report exporter.Report) error {
	if err := validator.ValidateOutputDirectory(paths.ReportsDir); err != nil {
		return err
	}

	csvw := exporter.NewCSVWriter(paths)
	if err := csvw.WriteTable(paths.AggregateCSV, exporter.AggregateTable(report.Aggregate)); err != nil {
		return err
	}
	if err := csvw.WriteTable(paths.CrossTabCSV, exporter.CrossTabTable(report.CrossTabRows, report.CrossTabBands)); err != nil {
		return err
	}
	if err := exporter.NewWorkbookWriter(paths, r.logger).WriteReport(paths.Workbook, report); err != nil {
		return err
	}

	for _, p := range []string{paths.AggregateCSV, paths.CrossTabCSV, paths.Workbook} {
		fmt.Fprintln(r.stdout, p)
	}
	r.logger.DebugContext(ctx, "reports written", slog.String("dir", paths.ReportsDir))
	return nil
}

func parseMetrics(raw string) ([]domain.Metric, error) {
	names := splitList(raw)
	metrics := make([]domain.Metric, 0, len(names))
	for _, name := range names {
		m := domain.Metric(strings.ToLower(name))
		known := false
		for _, k := range domain.Metrics {
			if m == k {
				known = true
				break
			}
		}
		if !known {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown metric %q", name), nil)
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
