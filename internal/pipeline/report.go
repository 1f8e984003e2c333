package pipeline

import (
	"errors"
	"time"

	"github.com/RyanBlaney/featmerge/internal/reconcile"
	"github.com/RyanBlaney/featmerge/pkg/features"
)

// Stage names the pipeline entry point that produced a report
type Stage string

const (
	StageOrganize Stage = "organize"
	StageGemaps   Stage = "gemaps"
	StageCombine  Stage = "combine"
	StageRun      Stage = "run"
)

// SkippedFile describes an input file that did not contribute rows
type SkippedFile struct {
	Path    string `json:"path" yaml:"path"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// RunReport summarizes one pipeline invocation
type RunReport struct {
	Stage         Stage         `json:"stage" yaml:"stage"`
	StartTime     time.Time     `json:"start_time" yaml:"start_time"`
	EndTime       time.Time     `json:"end_time" yaml:"end_time"`
	TotalDuration time.Duration `json:"total_duration" yaml:"total_duration"`

	FilesA          int `json:"files_a" yaml:"files_a"`
	FilesB          int `json:"files_b" yaml:"files_b"`
	RowsA           int `json:"rows_a" yaml:"rows_a"`
	RowsB           int `json:"rows_b" yaml:"rows_b"`
	RowsOut         int `json:"rows_out" yaml:"rows_out"`
	Columns         int `json:"columns" yaml:"columns"`
	LabelsTruncated int `json:"labels_truncated" yaml:"labels_truncated"`

	SkippedFiles []SkippedFile `json:"skipped_files,omitempty" yaml:"skipped_files,omitempty"`

	PlaceholdersA reconcile.FilterReport  `json:"placeholders_a" yaml:"placeholders_a"`
	PlaceholdersB reconcile.FilterReport  `json:"placeholders_b" yaml:"placeholders_b"`
	Alignment     *reconcile.AlignReport  `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	Outliers      *reconcile.FilterReport `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	Truncation    *TruncationStats        `json:"truncation,omitempty" yaml:"truncation,omitempty"`
	Retention     float64                 `json:"retention" yaml:"retention"`

	// Skipped joins every per-file error, in input order
	Skipped error `json:"-" yaml:"-"`
}

func newRunReport(stage Stage) *RunReport {
	return &RunReport{
		Stage:     stage,
		StartTime: time.Now(),
	}
}

func newSkippedFile(path string, err error) SkippedFile {
	sf := SkippedFile{Path: path, Code: features.ErrCodeMalformedReport, Message: err.Error()}

	var pe *features.PipelineError
	if errors.As(err, &pe) {
		sf.Code = pe.Code
	}
	return sf
}
