package praat

import "github.com/RyanBlaney/featmerge/pkg/features"

// SegmentStride is the number of tokens one segment occupies in a report line
const SegmentStride = 21

// NumMeasures is the number of numeric measurements kept per segment
const NumMeasures = 15

// measureOffsets are the token offsets, relative to the segment label, of
// the kept measurements
var measureOffsets = [NumMeasures]int{1, 3, 4, 5, 6, 8, 10, 11, 12, 13, 15, 16, 17, 18, 20}

// MeasureNames are the column names of the kept measurements, in offset order
var MeasureNames = [NumMeasures]string{
	"dur",
	"pitch_min", "pitch_max", "pitch_mean", "pitch_std", "pitch_var",
	"intensity_min", "intensity_max", "intensity_mean", "intensity_std",
	"f0", "f1", "f2", "f3",
	"grav_center",
}

// SegmentRecord is one labeled interval of a recording
type SegmentRecord struct {
	Label  string
	Values [NumMeasures]features.Value
}

// Measure returns the named measurement
func (s SegmentRecord) Measure(name string) (features.Value, bool) {
	for i, n := range MeasureNames {
		if n == name {
			return s.Values[i], true
		}
	}
	return features.Missing(), false
}

// RecordingMeta holds the recording-level fields of one report line
type RecordingMeta struct {
	Name           string `json:"name"`
	TotalDuration  int    `json:"total_dur"`
	TotalIntervals int    `json:"total_intervals"`
}

// Recording is one report line: its metadata and its segments in temporal
// order
type Recording struct {
	Meta     RecordingMeta
	Segments []SegmentRecord
}

// Summary is the per-recording mean of every measurement
type Summary struct {
	Meta  RecordingMeta
	Means [NumMeasures]features.Value
}

// SummaryColumns returns the measurement column names of a Summary
func SummaryColumns() []string {
	cols := make([]string, 0, NumMeasures)
	for _, n := range MeasureNames {
		cols = append(cols, n+"_mean")
	}
	return cols
}
