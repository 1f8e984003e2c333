package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/RyanBlaney/featmerge/configs"
	"github.com/RyanBlaney/featmerge/internal/pipeline"
	"github.com/RyanBlaney/featmerge/pkg/features"
	"github.com/RyanBlaney/featmerge/pkg/tableio"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"
	"github.com/tunein/go-logging/v7/pkg/logger"
	"github.com/tunein/go-logging/v7/pkg/logger/logtypes"
	"github.com/tunein/go-logging/v7/pkg/rootcollector"
	"github.com/tunein/go-logging/v7/pkg/rootlogger"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile   string // Application configuration file (optional)
	RulesFile    string // Participant rules file (optional)
	Command      pipeline.Stage
	InputA       string // Source A table, combine only
	InputB       string // Source B table, combine only
	OutputFile   string
	ReportFile   string
	OutputFormat string
	Verbose      bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// App runs one pipeline stage and writes its outputs
type App struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger
}

// NewApp creates a new application for the stage named in ctx
func NewApp(ctx *Context) (*App, error) {
	logger := setupLogging(ctx)
	ctx.Logger = logger

	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	logger.Debug("Application initialized", logging.Fields{
		"command":       ctx.Command,
		"config_file":   ctx.ConfigFile,
		"rules_file":    ctx.RulesFile,
		"output_file":   config.Output.File,
		"output_format": config.OutputFormat,
		"tier":          config.Organize.Tier,
	})

	return &App{
		ctx:    ctx,
		config: config,
		logger: logger,
	}, nil
}

// Run executes the stage and writes the table and the run report
func (app *App) Run(ctx context.Context) error {
	orchestrator, err := pipeline.NewOrchestrator(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	var result *pipeline.Result
	switch app.ctx.Command {
	case pipeline.StageOrganize:
		result, err = orchestrator.Organize(ctx)
	case pipeline.StageGemaps:
		result, err = orchestrator.Gemaps(ctx)
	case pipeline.StageCombine:
		result, err = app.combine(ctx, orchestrator)
	case pipeline.StageRun:
		result, err = orchestrator.Run(ctx)
	default:
		return fmt.Errorf("unknown command %q", app.ctx.Command)
	}
	if err != nil {
		logging.Error(err, "Pipeline stage failed")
		return fmt.Errorf("%s failed: %w", app.ctx.Command, err)
	}

	outputFile := app.outputFile()
	if err := tableio.WriteFile(outputFile, result.Table); err != nil {
		return features.NewPipelineError(features.ErrCodeConfiguration, outputFile, "failed to write output table", err)
	}

	app.logger.Info("Table written", logging.Fields{
		"output_file": outputFile,
		"rows":        result.Table.Len(),
		"columns":     len(result.Table.Columns),
	})

	if err := app.outputReport(result.Report, outputFile); err != nil {
		return fmt.Errorf("failed to output report: %w", err)
	}

	if app.config.Metrics.Enabled {
		app.collectRunMetrics(result.Report)
	}

	return nil
}

func (app *App) combine(ctx context.Context, orchestrator *pipeline.Orchestrator) (*pipeline.Result, error) {
	a, err := tableio.ReadFile(app.ctx.InputA)
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, app.ctx.InputA, "failed to read left table", err)
	}
	b, err := tableio.ReadFile(app.ctx.InputB)
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, app.ctx.InputB, "failed to read right table", err)
	}
	return orchestrator.Combine(ctx, a, b)
}

// outputFile returns the configured table path or a name derived from the
// stage and tier
func (app *App) outputFile() string {
	if app.config.Output.File != "" {
		return app.config.Output.File
	}

	mode := app.config.Organize.Tier
	if app.config.Organize.MeanOnly {
		mode += "_mean"
	}
	return fmt.Sprintf("featmerge_%s_%s.tsv", app.ctx.Command, mode)
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	return logging.NewDefaultLogger()
}

// loadAndMergeConfig loads configuration and applies the rules file and CLI
// overrides
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load base configuration: %w", err)
	}

	if ctx.RulesFile != "" {
		rules, err := loadRulesFromFile(ctx.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load participant rules: %w", err)
		}
		config.Participants = rules.Participants
	}

	mergeContext(config, ctx)

	if err := configs.ValidateConfig(config); err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, ctx.ConfigFile, "invalid configuration", err)
	}

	return config, nil
}

// mergeContext overrides config with values set on the command line
func mergeContext(config *configs.Config, ctx *Context) {
	if ctx.OutputFile != "" {
		config.Output.File = ctx.OutputFile
	}
	if ctx.ReportFile != "" {
		config.Output.ReportFile = ctx.ReportFile
	}
	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
	}
	if ctx.Verbose {
		config.Verbose = true
	}
}

// outputReport formats the run report and writes it to stdout or the report
// file
func (app *App) outputReport(report *pipeline.RunReport, outputFile string) error {
	outputData := map[string]any{
		"run_report": cleanRunReport(report, app.config.Verbose),
		"timestamp":  time.Now(),
		"output": map[string]any{
			"file":    outputFile,
			"rows":    report.RowsOut,
			"columns": report.Columns,
		},
		"configuration": map[string]any{
			"tier":             app.config.Organize.Tier,
			"mean_only":        app.config.Organize.MeanOnly,
			"class":            app.config.Organize.Class,
			"remove_outliers":  app.config.Combine.RemoveOutliers,
			"strict_alignment": app.config.Combine.StrictAlignment,
		},
	}

	var formatter output.Formatter
	switch app.config.OutputFormat {
	case "json":
		formatter = &output.JSONFormatter{}
	case "yaml":
		formatter = &output.YAMLFormatter{}
	case "csv":
		formatter = &output.CSVFormatter{}
	case "table":
		formatter = &output.TableFormatter{}
	default:
		formatter = &output.JSONFormatter{}
	}

	formattedData, err := formatter.Format(outputData, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	if app.config.Output.ReportFile != "" {
		return app.writeToFile(app.config.Output.ReportFile, formattedData)
	}

	_, err = os.Stdout.Write(formattedData)
	return err
}

// collectRunMetrics sends row counts of the run to rootcollector
func (app *App) collectRunMetrics(report *pipeline.RunReport) {
	if report == nil {
		return
	}

	err := rootlogger.Configure(logger.LogOptions{
		Out:          app.config.Metrics.LogFile,
		ReopenSignal: syscall.SIGHUP,
		Level:        logtypes.InfoLevel,
	})
	if err != nil {
		logging.Error(err, "Failed configuring log writer")
	}

	tags := []string{
		"stage:" + string(report.Stage),
		"tier:" + app.config.Organize.Tier,
	}

	rootcollector.Metric("featmerge.rows.source_a", int64(report.RowsA), tags)
	rootcollector.Metric("featmerge.rows.source_b", int64(report.RowsB), tags)
	rootcollector.Metric("featmerge.rows.output", int64(report.RowsOut), tags)
	rootcollector.Metric("featmerge.files.skipped", int64(len(report.SkippedFiles)), tags)
	rootcollector.Metric("featmerge.duration.milliseconds", report.TotalDuration.Milliseconds(), tags)

	if report.Alignment != nil {
		rootcollector.Metric("featmerge.rows.truncated", int64(report.Alignment.TruncatedA+report.Alignment.TruncatedB), tags)
		rootcollector.Metric("featmerge.labels.mismatched", int64(report.Alignment.LabelMismatches), tags)
	}
	if report.Outliers != nil {
		rootcollector.Metric("featmerge.rows.outliers", int64(report.Outliers.ZeroDropped+report.Outliers.MissingDropped), tags)
	}
}

// cleanRunReport flattens the report, leaving per-file detail to verbose runs
func cleanRunReport(report *pipeline.RunReport, verbose bool) map[string]any {
	clean := map[string]any{
		"stage":            report.Stage,
		"start_time":       report.StartTime,
		"end_time":         report.EndTime,
		"total_duration":   report.TotalDuration.Seconds(),
		"files_a":          report.FilesA,
		"files_b":          report.FilesB,
		"rows_a":           report.RowsA,
		"rows_b":           report.RowsB,
		"rows_out":         report.RowsOut,
		"labels_truncated": report.LabelsTruncated,
		"skipped_files":    len(report.SkippedFiles),
		"retention":        report.Retention,
	}

	if report.Alignment != nil {
		clean["alignment"] = report.Alignment
	}
	if report.Outliers != nil {
		clean["outliers"] = report.Outliers
	}
	if report.Truncation != nil {
		clean["truncation"] = report.Truncation
	}

	if verbose {
		clean["placeholders_a"] = report.PlaceholdersA
		clean["placeholders_b"] = report.PlaceholdersB
		clean["skipped"] = report.SkippedFiles
	}

	return clean
}

// writeToFile writes data to path, creating parent directories
func (app *App) writeToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Report written to file", logging.Fields{
		"report_file": path,
		"size_bytes":  len(data),
	})

	return nil
}
