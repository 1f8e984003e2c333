package reconcile

import (
	"github.com/RyanBlaney/featmerge/pkg/features"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// DefaultPlaceholderLabels are the non-lexical segment labels emitted by the
// aligners and annotators in use
func DefaultPlaceholderLabels() []string {
	return []string{"<SIL>", "SIL", "<SPN>", "SPN", "<UNK>", "UNK", "<SPK>", "sil", "spn", "[SPN]"}
}

// FilterConfig controls both filter passes
type FilterConfig struct {
	PlaceholderLabels []string
	RemoveOutliers    bool
}

// FilterReport counts the rows removed by one filter pass
type FilterReport struct {
	Before             int `json:"before"`
	PlaceholderDropped int `json:"placeholder_dropped"`
	ZeroDropped        int `json:"zero_dropped"`
	MissingDropped     int `json:"missing_dropped"`
	Final              int `json:"final"`
}

// Filter removes placeholder segments before the merge and invalid rows
// after it
type Filter struct {
	removeOutliers bool
	placeholders   map[string]struct{}
	logger         logging.Logger
}

// NewFilter creates a filter
func NewFilter(cfg FilterConfig, logger logging.Logger) *Filter {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	labels := cfg.PlaceholderLabels
	if labels == nil {
		labels = DefaultPlaceholderLabels()
	}

	placeholders := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		placeholders[l] = struct{}{}
	}

	return &Filter{
		removeOutliers: cfg.RemoveOutliers,
		placeholders:   placeholders,
		logger:         logger,
	}
}

// DropPlaceholders removes rows whose label equals a placeholder exactly.
// Tables without a label column are returned unchanged.
func (f *Filter) DropPlaceholders(t *features.Table) (*features.Table, FilterReport) {
	report := FilterReport{Before: t.Len()}

	col, ok := features.ResolveSchema(t).Column(features.RoleLabel)
	if !ok {
		report.Final = t.Len()
		return t, report
	}
	idx := t.ColumnIndex(col)

	out := t.Filter(func(row features.Row) bool {
		_, drop := f.placeholders[row[idx].Text]
		return !drop
	})

	report.PlaceholderDropped = report.Before - out.Len()
	report.Final = out.Len()

	f.logger.Debug("Dropped placeholder segments", logging.Fields{
		"label_column": col,
		"before":       report.Before,
		"dropped":      report.PlaceholderDropped,
	})

	return out, report
}

// DropInvalid removes rows where a zero-checked measurement is exactly zero,
// then rows with any missing cell. It is a no-op unless outlier removal is
// enabled.
func (f *Filter) DropInvalid(t *features.Table) (*features.Table, FilterReport) {
	report := FilterReport{Before: t.Len()}
	if !f.removeOutliers {
		report.Final = t.Len()
		return t, report
	}

	schema := features.ResolveSchema(t)
	var zeroCols []int
	for _, role := range features.ZeroCheckRoles {
		if col, ok := schema.Column(role); ok {
			zeroCols = append(zeroCols, t.ColumnIndex(col))
		}
	}

	nonZero := t.Filter(func(row features.Row) bool {
		for _, idx := range zeroCols {
			if c := row[idx]; c.Numeric && c.Num.IsZero() {
				return false
			}
		}
		return true
	})
	report.ZeroDropped = report.Before - nonZero.Len()

	complete := nonZero.Filter(func(row features.Row) bool {
		for _, c := range row {
			if c.IsMissing() {
				return false
			}
		}
		return true
	})
	report.MissingDropped = nonZero.Len() - complete.Len()
	report.Final = complete.Len()

	f.logger.Info("Removed outliers", logging.Fields{
		"before":          report.Before,
		"zero_dropped":    report.ZeroDropped,
		"missing_dropped": report.MissingDropped,
		"final":           report.Final,
	})

	return complete, report
}
