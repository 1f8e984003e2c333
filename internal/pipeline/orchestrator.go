package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/featmerge/configs"
	"github.com/RyanBlaney/featmerge/internal/reconcile"
	"github.com/RyanBlaney/featmerge/pkg/arff"
	"github.com/RyanBlaney/featmerge/pkg/features"
	"github.com/RyanBlaney/featmerge/pkg/praat"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// Orchestrator coordinates parsing, building, filtering and merging
type Orchestrator struct {
	config  *configs.Config
	tier    features.Tier
	parser  *praat.Parser
	builder *reconcile.Builder
	filter  *reconcile.Filter
	aligner *reconcile.Aligner
	logger  logging.Logger
	metrics *MetricsCalculator
}

// Result is a produced table and the report of the run that produced it
type Result struct {
	Table  *features.Table
	Report *RunReport
}

// NewOrchestrator creates an orchestrator from a validated configuration
func NewOrchestrator(cfg *configs.Config, logger logging.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	tier, err := cfg.Tier()
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, "", "invalid tier", err)
	}

	participants, err := reconcile.NewParticipantResolver(cfg.Participants)
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, "", "invalid participant rules", err)
	}

	builder := reconcile.NewBuilder(reconcile.BuilderConfig{
		Tier:               tier,
		MeanOnly:           cfg.Organize.MeanOnly,
		Class:              cfg.Organize.Class,
		IdentifierSuffixes: cfg.Combine.IdentifierSuffixes,
		TextGridDir:        cfg.Input.TextGridDir,
		TextGridExtensions: cfg.Input.TextGridExtensions,
		TierIndices:        cfg.Organize.TierIndices,
	}, participants, logger)

	filter := reconcile.NewFilter(reconcile.FilterConfig{
		PlaceholderLabels: cfg.Combine.PlaceholderLabels,
		RemoveOutliers:    cfg.Combine.RemoveOutliers,
	}, logger)

	aligner := reconcile.NewAligner(reconcile.AlignerConfig{
		StrictAlignment: cfg.Combine.StrictAlignment,
		MaxLengthGap:    cfg.Combine.MaxLengthGap,
		DuplicateSuffix: cfg.Combine.DuplicateSuffix,
	}, logger)

	return &Orchestrator{
		config:  cfg,
		tier:    tier,
		parser:  praat.NewParser(logger),
		builder: builder,
		filter:  filter,
		aligner: aligner,
		logger:  logger,
		metrics: NewMetricsCalculator(logger),
	}, nil
}

// Organize builds the source A table from the configured report directory
func (o *Orchestrator) Organize(ctx context.Context) (*Result, error) {
	report := newRunReport(StageOrganize)

	table, err := o.organize(ctx, report)
	if err != nil {
		return nil, err
	}

	return o.finish(table, report), nil
}

// Gemaps builds the source B table from the configured ARFF directory
func (o *Orchestrator) Gemaps(ctx context.Context) (*Result, error) {
	report := newRunReport(StageGemaps)

	table, err := o.gemaps(ctx, report)
	if err != nil {
		return nil, err
	}

	return o.finish(table, report), nil
}

// Combine merges two previously built tables
func (o *Orchestrator) Combine(ctx context.Context, a, b *features.Table) (*Result, error) {
	report := newRunReport(StageCombine)

	table, err := o.combine(ctx, a, b, report)
	if err != nil {
		return nil, err
	}

	return o.finish(table, report), nil
}

// Run builds both source tables and merges them
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	report := newRunReport(StageRun)

	a, err := o.organize(ctx, report)
	if err != nil {
		return nil, err
	}

	b, err := o.gemaps(ctx, report)
	if err != nil {
		return nil, err
	}

	table, err := o.combine(ctx, a, b, report)
	if err != nil {
		return nil, err
	}

	return o.finish(table, report), nil
}

func (o *Orchestrator) organize(ctx context.Context, report *RunReport) (*features.Table, error) {
	paths, err := o.listInputs(o.config.Input.ReportsDir, o.config.Input.ReportGlob)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("Organizing reports", logging.Fields{
		"reports_dir": o.config.Input.ReportsDir,
		"files":       len(paths),
		"tier":        o.tier,
		"aggregated":  o.builder.Aggregated(),
	})

	tables, errs, err := parallelMap(ctx, o.workers(), paths, func(path string) (*features.Table, error) {
		recordings, err := o.parser.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return o.builder.PraatTable(path, recordings), nil
	})
	if err != nil {
		return nil, err
	}

	out := features.NewTable(o.builder.PraatColumns())
	for i, t := range tables {
		if errs[i] != nil {
			o.skip(report, paths[i], errs[i])
			continue
		}
		if err := out.Concat(t); err != nil {
			return nil, fmt.Errorf("failed to concatenate %s: %w", paths[i], err)
		}
		report.FilesA++
	}
	report.RowsA = out.Len()

	o.logger.Info("Organized reports", logging.Fields{
		"files":   report.FilesA,
		"skipped": len(report.SkippedFiles),
		"rows":    out.Len(),
	})

	return out, nil
}

func (o *Orchestrator) gemaps(ctx context.Context, report *RunReport) (*features.Table, error) {
	paths, err := o.listInputs(o.config.Input.ArffDir, o.config.Input.ArffGlob)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("Collecting openSMILE features", logging.Fields{
		"arff_dir":     o.config.Input.ArffDir,
		"textgrid_dir": o.config.Input.TextGridDir,
		"files":        len(paths),
		"tier":         o.tier,
	})

	type built struct {
		table *features.Table
		stats reconcile.BuildStats
	}

	results, errs, err := parallelMap(ctx, o.workers(), paths, func(path string) (built, error) {
		ds, err := arff.DecodeFile(path)
		if err != nil {
			return built{}, features.NewPipelineError(features.ErrCodeMalformedReport, path, "failed to decode arff", err)
		}
		t, stats, err := o.builder.ArffTable(path, ds)
		return built{table: t, stats: stats}, err
	})
	if err != nil {
		return nil, err
	}

	out := &features.Table{}
	for i, r := range results {
		if errs[i] != nil {
			o.skip(report, paths[i], errs[i])
			continue
		}
		if err := out.Concat(r.table); err != nil {
			o.skip(report, paths[i], features.NewPipelineError(features.ErrCodeMalformedReport, paths[i],
				"attribute layout differs from earlier files", err))
			continue
		}
		report.FilesB++
		report.LabelsTruncated += r.stats.LabelsTruncated
	}
	report.RowsB = out.Len()

	o.logger.Info("Collected openSMILE features", logging.Fields{
		"files":            report.FilesB,
		"skipped":          len(report.SkippedFiles),
		"rows":             out.Len(),
		"labels_truncated": report.LabelsTruncated,
	})

	return out, nil
}

func (o *Orchestrator) combine(ctx context.Context, a, b *features.Table, report *RunReport) (*features.Table, error) {
	var err error
	if a, err = o.normalize(a); err != nil {
		return nil, err
	}
	if b, err = o.normalize(b); err != nil {
		return nil, err
	}
	if report.RowsA == 0 {
		report.RowsA = a.Len()
	}
	if report.RowsB == 0 {
		report.RowsB = b.Len()
	}

	var fr reconcile.FilterReport
	a, fr = o.filter.DropPlaceholders(a)
	report.PlaceholdersA = fr
	b, fr = o.filter.DropPlaceholders(b)
	report.PlaceholdersB = fr

	aligned, err := o.aligner.Align(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to align feature tables: %w", err)
	}
	report.Alignment = &aligned.Report
	report.Truncation = o.metrics.CalculateTruncationStats(aligned.Report.Gaps)

	merged, outliers := o.filter.DropInvalid(aligned.Table)
	report.Outliers = &outliers

	return merged, nil
}

// normalize maps the identifier column of an empty or populated table to
// file_name. Tables without any columns pass through.
func (o *Orchestrator) normalize(t *features.Table) (*features.Table, error) {
	if t == nil {
		return &features.Table{}, nil
	}
	if len(t.Columns) == 0 {
		return t, nil
	}
	return reconcile.NormalizeIdentifiers(t, o.config.Combine.IdentifierSuffixes)
}

func (o *Orchestrator) finish(table *features.Table, report *RunReport) *Result {
	report.RowsOut = table.Len()
	report.Columns = len(table.Columns)
	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)
	report.Retention = o.metrics.CalculateRetention(report)

	if table.Len() == 0 {
		o.logger.Warn("No usable recordings, output is empty", logging.Fields{
			"stage":   report.Stage,
			"skipped": len(report.SkippedFiles),
			"columns": len(table.Columns),
		})
	}

	o.logger.Debug("Stage completed", logging.Fields{
		"stage":       report.Stage,
		"rows":        report.RowsOut,
		"duration_ms": report.TotalDuration.Milliseconds(),
	})

	return &Result{Table: table, Report: report}
}

func (o *Orchestrator) skip(report *RunReport, path string, err error) {
	report.Skipped = multierr.Append(report.Skipped, err)
	report.SkippedFiles = append(report.SkippedFiles, newSkippedFile(path, err))

	o.logger.Warn("Skipping input file", logging.Fields{
		"path":  path,
		"error": err.Error(),
	})
}

// listInputs returns the sorted files in dir matching pattern
func (o *Orchestrator) listInputs(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, dir, "input directory is not readable", err)
	}
	if !info.IsDir() {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, dir, "input path is not a directory", nil)
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, dir,
			fmt.Sprintf("invalid glob %q", pattern), err)
	}

	var files []string
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (o *Orchestrator) workers() int {
	if o.config.Organize.Workers > 0 {
		return o.config.Organize.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// parallelMap applies fn to every path with at most workers in flight.
// Per-item errors are returned by index; only cancellation aborts the map.
func parallelMap[T any](ctx context.Context, workers int, paths []string, fn func(path string) (T, error)) ([]T, []error, error) {
	results := make([]T, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = fn(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, errs, nil
}
