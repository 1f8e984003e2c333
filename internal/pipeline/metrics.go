package pipeline

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// MetricsCalculator derives summary statistics from run reports
type MetricsCalculator struct {
	logger logging.Logger
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(logger logging.Logger) *MetricsCalculator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &MetricsCalculator{
		logger: logger,
	}
}

// TruncationStats describes the per-recording row count gaps between sources
type TruncationStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P95    float64 `json:"p95" yaml:"p95"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Count  int     `json:"count" yaml:"count"`
}

// CalculateTruncationStats summarizes alignment gaps, nil when there are none
func (mc *MetricsCalculator) CalculateTruncationStats(gaps []int) *TruncationStats {
	if len(gaps) == 0 {
		return nil
	}

	values := make([]float64, len(gaps))
	for i, g := range gaps {
		values[i] = float64(g)
	}
	slices.Sort(values)

	stats := &TruncationStats{
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, values, nil),
		Min:    values[0],
		Max:    values[len(values)-1],
		Count:  len(values),
	}
	if len(values) > 1 {
		stats.StdDev = stat.StdDev(values, nil)
	}

	mc.logger.Debug("Calculated truncation stats", logging.Fields{
		"count": stats.Count,
		"mean":  stats.Mean,
		"max":   stats.Max,
	})

	return stats
}

// CalculateRetention returns the share of candidate rows kept in the output.
// The candidate count is the smaller source for merges and the source itself
// otherwise.
func (mc *MetricsCalculator) CalculateRetention(report *RunReport) float64 {
	var candidates int
	switch report.Stage {
	case StageOrganize:
		candidates = report.RowsA
	case StageGemaps:
		candidates = report.RowsB
	default:
		candidates = min(report.RowsA, report.RowsB)
	}

	if candidates == 0 {
		return 0
	}
	return math.Min(1, float64(report.RowsOut)/float64(candidates))
}
