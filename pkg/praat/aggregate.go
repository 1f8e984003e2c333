package praat

import (
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/featmerge/pkg/features"
)

// Aggregate collapses a recording into the mean of each measurement over its
// segments. Missing values are left out of the denominator; a measurement
// missing in every segment has a missing mean.
func Aggregate(rec Recording) Summary {
	summary := Summary{Meta: rec.Meta}

	present := make([]float64, 0, len(rec.Segments))
	for i := range NumMeasures {
		present = present[:0]
		for _, seg := range rec.Segments {
			if v := seg.Values[i]; v.Valid {
				present = append(present, v.V)
			}
		}
		if len(present) == 0 {
			summary.Means[i] = features.Missing()
			continue
		}
		summary.Means[i] = features.Float(stat.Mean(present, nil))
	}

	return summary
}
