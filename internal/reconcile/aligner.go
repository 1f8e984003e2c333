package reconcile

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/RyanBlaney/featmerge/pkg/features"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// DefaultMaxLengthGap is the largest per-recording row count difference
// accepted without a warning
const DefaultMaxLengthGap = 2

// DefaultDuplicateSuffix is appended to source B columns whose names clash
// with source A columns
const DefaultDuplicateSuffix = "_b"

// AlignerConfig controls the cross-source merge
type AlignerConfig struct {
	StrictAlignment bool
	MaxLengthGap    int
	DuplicateSuffix string
}

// AlignedRow is one merged row with the source rows it was built from
type AlignedRow struct {
	FileName string       `json:"file_name"`
	IndexA   int          `json:"index_a"`
	IndexB   int          `json:"index_b"`
	Row      features.Row `json:"-"`
}

// AlignReport counts what the merge kept, truncated and dropped
type AlignReport struct {
	Recordings       int `json:"recordings"`
	OnlyInA          int `json:"only_in_a"`
	OnlyInB          int `json:"only_in_b"`
	TruncatedA       int `json:"truncated_a"`
	TruncatedB       int `json:"truncated_b"`
	LengthMismatches int `json:"length_mismatches"`
	LabelMismatches  int `json:"label_mismatches"`
	// Gaps holds the row count difference of every merged recording
	Gaps []int `json:"-"`
}

// AlignResult is the merged table and its provenance
type AlignResult struct {
	Table  *features.Table
	Rows   []AlignedRow
	Report AlignReport
}

// LabelComparer decides whether two segment labels name the same unit
type LabelComparer struct {
	caser cases.Caser
}

// NewLabelComparer creates a case-insensitive label comparer
func NewLabelComparer() *LabelComparer {
	return &LabelComparer{caser: cases.Fold()}
}

// Normalize folds case and strips bracket decoration and surrounding space
func (lc *LabelComparer) Normalize(label string) string {
	label = strings.Trim(strings.TrimSpace(label), "<>[]")
	return lc.caser.String(strings.TrimSpace(label))
}

// Equal reports whether a and b are the same label
func (lc *LabelComparer) Equal(a, b string) bool {
	return lc.Normalize(a) == lc.Normalize(b)
}

// Aligner merges two feature tables recording by recording
type Aligner struct {
	config   AlignerConfig
	comparer *LabelComparer
	logger   logging.Logger
}

// NewAligner creates an aligner
func NewAligner(cfg AlignerConfig, logger logging.Logger) *Aligner {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if cfg.MaxLengthGap < 0 {
		cfg.MaxLengthGap = DefaultMaxLengthGap
	}
	if cfg.DuplicateSuffix == "" {
		cfg.DuplicateSuffix = DefaultDuplicateSuffix
	}

	return &Aligner{
		config:   cfg,
		comparer: NewLabelComparer(),
		logger:   logger,
	}
}

// mergePlan records which B columns survive and under which name
type mergePlan struct {
	columns []features.Column
	keepB   []int
}

// Align merges a and b. Recordings are visited in the order they first
// appear in a; a recording missing from either side is dropped. Within a
// recording the longer block is truncated at its tail and rows are paired
// by position.
func (al *Aligner) Align(ctx context.Context, a, b *features.Table) (*AlignResult, error) {
	plan := al.plan(a, b)
	result := &AlignResult{Table: features.NewTable(plan.columns)}
	report := &result.Report

	if a.Len() == 0 || b.Len() == 0 {
		report.OnlyInA = countGroups(a)
		report.OnlyInB = countGroups(b)
		al.logger.Warn("Nothing to align, one side is empty", logging.Fields{
			"rows_a": a.Len(),
			"rows_b": b.Len(),
		})
		return result, nil
	}

	groupsA, err := a.GroupBy(features.ColFileName)
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, "", "left table", err)
	}
	groupsB, err := b.GroupBy(features.ColFileName)
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, "", "right table", err)
	}

	byKey := make(map[string]features.Group, len(groupsB))
	for _, g := range groupsB {
		byKey[g.Key] = g
	}

	labelA, labelB := labelIndex(a), labelIndex(b)
	seen := make(map[string]bool, len(groupsA))

	for _, ga := range groupsA {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seen[ga.Key] = true
		gb, ok := byKey[ga.Key]
		if !ok {
			report.OnlyInA++
			al.logger.Debug("Recording missing from right table", logging.Fields{"file_name": ga.Key})
			continue
		}

		n := min(len(ga.Rows), len(gb.Rows))
		gap := len(ga.Rows) - len(gb.Rows)
		report.Recordings++
		report.Gaps = append(report.Gaps, abs(gap))

		if gap != 0 {
			report.LengthMismatches++
			if gap > 0 {
				report.TruncatedA += gap
			} else {
				report.TruncatedB += -gap
			}
			if abs(gap) > al.config.MaxLengthGap {
				al.logger.Warn("Recording lengths differ", logging.Fields{
					"code":      features.ErrCodeAlignmentLengthMismatch,
					"file_name": ga.Key,
					"rows_a":    len(ga.Rows),
					"rows_b":    len(gb.Rows),
				})
			}
		}

		mismatches := 0
		for i := range n {
			ra, rb := a.Rows[ga.Rows[i]], b.Rows[gb.Rows[i]]

			if labelA >= 0 && labelB >= 0 && !al.comparer.Equal(ra[labelA].String(), rb[labelB].String()) {
				if al.config.StrictAlignment {
					return nil, features.NewPipelineError(features.ErrCodeAlignmentMismatch, ga.Key,
						fmt.Sprintf("row %d: label %q does not match %q", i, ra[labelA].String(), rb[labelB].String()), nil)
				}
				mismatches++
			}

			row := make(features.Row, 0, len(plan.columns))
			row = append(row, ra...)
			for _, c := range plan.keepB {
				row = append(row, rb[c])
			}

			result.Table.Rows = append(result.Table.Rows, row)
			result.Rows = append(result.Rows, AlignedRow{
				FileName: ga.Key,
				IndexA:   ga.Rows[i],
				IndexB:   gb.Rows[i],
				Row:      row,
			})
		}

		if mismatches > 0 {
			report.LabelMismatches += mismatches
			al.logger.Warn("Aligned labels disagree", logging.Fields{
				"code":       features.ErrCodeAlignmentMismatch,
				"file_name":  ga.Key,
				"mismatches": mismatches,
				"rows":       n,
			})
		}
	}

	for _, gb := range groupsB {
		if !seen[gb.Key] {
			report.OnlyInB++
			al.logger.Debug("Recording missing from left table", logging.Fields{"file_name": gb.Key})
		}
	}

	al.logger.Info("Aligned feature tables", logging.Fields{
		"recordings":        report.Recordings,
		"rows":              result.Table.Len(),
		"only_in_a":         report.OnlyInA,
		"only_in_b":         report.OnlyInB,
		"truncated_a":       report.TruncatedA,
		"truncated_b":       report.TruncatedB,
		"label_mismatches":  report.LabelMismatches,
		"length_mismatches": report.LengthMismatches,
	})

	return result, nil
}

// plan builds the merged column list: all of a, then the columns of b that
// are not shared identity columns, renamed on clash
func (al *Aligner) plan(a, b *features.Table) mergePlan {
	shared := map[string]bool{
		features.ColFileName:    true,
		features.ColParticipant: true,
		features.ColClass:       true,
	}
	if col, ok := features.ResolveSchema(a).Column(features.RoleLabel); ok {
		shared[col] = true
	}

	p := mergePlan{columns: append([]features.Column(nil), a.Columns...)}
	taken := make(map[string]bool, len(a.Columns)+len(b.Columns))
	for _, c := range a.Columns {
		taken[c.Name] = true
	}

	for i, c := range b.Columns {
		if taken[c.Name] && shared[c.Name] {
			continue
		}
		name := c.Name
		for taken[name] {
			name += al.config.DuplicateSuffix
		}
		taken[name] = true
		p.columns = append(p.columns, features.Column{Name: name, Kind: c.Kind})
		p.keepB = append(p.keepB, i)
	}
	return p
}

func labelIndex(t *features.Table) int {
	col, ok := features.ResolveSchema(t).Column(features.RoleLabel)
	if !ok {
		return -1
	}
	return t.ColumnIndex(col)
}

func countGroups(t *features.Table) int {
	groups, err := t.GroupBy(features.ColFileName)
	if err != nil {
		return 0
	}
	return len(groups)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
