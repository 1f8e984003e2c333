package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/featmerge/pkg/arff"
	"github.com/RyanBlaney/featmerge/pkg/features"
	"github.com/RyanBlaney/featmerge/pkg/praat"
	"github.com/RyanBlaney/featmerge/pkg/textgrid"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// openSmileMarker separates the recording id from the feature set suffix in
// openSMILE output names
const openSmileMarker = "_openSMILE_"

// DefaultIdentifierSuffixes are stripped from recording names so both
// sources agree on file_name
func DefaultIdentifierSuffixes() []string {
	return []string{"_tier2_results", "_tier3_results", "_tier4_results", "-16khz"}
}

// DefaultTextGridExtensions are tried in order when looking up the TextGrid
// of a recording
func DefaultTextGridExtensions() []string {
	return []string{"_annotated.tg", "_checked_annotated.tg", ".TextGrid"}
}

// DefaultTierIndices are the TextGrid tier positions of each segmentation
func DefaultTierIndices() map[string]int {
	return map[string]int{
		string(features.TierWord):    1,
		string(features.TierPhoneme): 2,
	}
}

// RecordingInfo is the provenance attached to every row of a recording
type RecordingInfo struct {
	FileName    string `json:"file_name"`
	Participant string `json:"participant"`
	Class       string `json:"class"`
}

// BuilderConfig controls how tables are assembled from parsed inputs
type BuilderConfig struct {
	Tier               features.Tier
	MeanOnly           bool
	Class              string
	IdentifierSuffixes []string
	TextGridDir        string
	TextGridExtensions []string
	TierIndices        map[string]int
}

// BuildStats counts adjustments made while building one table
type BuildStats struct {
	LabelsTruncated int `json:"labels_truncated"`
}

// Builder turns parsed reports and ARFF datasets into feature tables
type Builder struct {
	config       BuilderConfig
	participants *ParticipantResolver
	logger       logging.Logger
}

// NewBuilder creates a table builder
func NewBuilder(cfg BuilderConfig, participants *ParticipantResolver, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if participants == nil {
		participants, _ = NewParticipantResolver(DefaultParticipantRules())
	}
	if cfg.IdentifierSuffixes == nil {
		cfg.IdentifierSuffixes = DefaultIdentifierSuffixes()
	}
	if len(cfg.TextGridExtensions) == 0 {
		cfg.TextGridExtensions = DefaultTextGridExtensions()
	}
	if len(cfg.TierIndices) == 0 {
		cfg.TierIndices = DefaultTierIndices()
	}
	if cfg.Tier == "" {
		cfg.Tier = features.TierWord
	}

	return &Builder{
		config:       cfg,
		participants: participants,
		logger:       logger,
	}
}

// Aggregated reports whether source A rows are per-recording means
func (b *Builder) Aggregated() bool {
	return b.config.MeanOnly || !b.config.Tier.Segmented()
}

// Info derives the provenance of a recording from its base name without
// extension
func (b *Builder) Info(name string) RecordingInfo {
	return RecordingInfo{
		FileName:    StripSuffixes(name, b.config.IdentifierSuffixes),
		Participant: b.participants.Resolve(name),
		Class:       b.config.Class,
	}
}

// PraatColumns returns the source A column layout for this configuration
func (b *Builder) PraatColumns() []features.Column {
	var cols []features.Column
	if b.Aggregated() {
		cols = append(cols,
			features.Column{Name: "total_dur", Kind: features.KindNumeric},
			features.Column{Name: "total_intervals", Kind: features.KindNumeric})
		for _, name := range praat.SummaryColumns() {
			cols = append(cols, features.Column{Name: name, Kind: features.KindNumeric})
		}
	} else {
		cols = append(cols, features.Column{Name: b.config.Tier.LabelColumn(), Kind: features.KindText})
		for _, name := range praat.MeasureNames {
			cols = append(cols, features.Column{Name: name, Kind: features.KindNumeric})
		}
	}
	return append(cols, provenanceColumns()...)
}

// PraatTable builds the source A table for one report file. Every recording
// in the report shares the provenance of the report file.
func (b *Builder) PraatTable(path string, recordings []praat.Recording) *features.Table {
	info := b.Info(baseName(path))
	t := features.NewTable(b.PraatColumns())

	for _, rec := range recordings {
		if b.Aggregated() {
			s := praat.Aggregate(rec)
			row := make(features.Row, 0, len(t.Columns))
			row = append(row,
				features.NumCell(features.Float(float64(s.Meta.TotalDuration))),
				features.NumCell(features.Float(float64(s.Meta.TotalIntervals))))
			for _, v := range s.Means {
				row = append(row, features.NumCell(v))
			}
			t.Rows = append(t.Rows, append(row, info.cells()...))
			continue
		}

		for _, seg := range rec.Segments {
			row := make(features.Row, 0, len(t.Columns))
			row = append(row, features.TextCell(seg.Label))
			for _, v := range seg.Values {
				row = append(row, features.NumCell(v))
			}
			t.Rows = append(t.Rows, append(row, info.cells()...))
		}
	}

	b.logger.Debug("Built report table", logging.Fields{
		"path":       path,
		"file_name":  info.FileName,
		"recordings": len(recordings),
		"rows":       t.Len(),
		"aggregated": b.Aggregated(),
	})

	return t
}

// ArffTable builds the source B table for one openSMILE output file. For
// segmented tiers the labels come from the recording's TextGrid; surplus
// labels at the tail are dropped and counted.
func (b *Builder) ArffTable(path string, ds *arff.Dataset) (*features.Table, BuildStats, error) {
	var stats BuildStats

	id := RecordingID(path)
	info := b.Info(id)
	labelCol := b.config.Tier.LabelColumn()

	t := ds.Table()
	for _, name := range []string{features.ColName, labelCol, features.ColClass, features.ColParticipant, features.ColFileName} {
		if name != "" {
			t.DropColumn(name)
		}
	}

	if labelCol != "" {
		labels, err := b.Labels(id)
		if err != nil {
			return nil, stats, err
		}

		switch {
		case len(labels) > t.Len():
			stats.LabelsTruncated = len(labels) - t.Len()
			labels = labels[:t.Len()]
			b.logger.Debug("Dropped trailing labels without features", logging.Fields{
				"path":    path,
				"dropped": stats.LabelsTruncated,
			})
		case len(labels) < t.Len():
			return nil, stats, features.NewPipelineError(features.ErrCodeMalformedReport, path,
				fmt.Sprintf("%d labels for %d feature rows", len(labels), t.Len()), nil)
		}

		if err := t.SetTextColumn(labelCol, labels); err != nil {
			return nil, stats, err
		}
	}

	if err := info.attach(t); err != nil {
		return nil, stats, err
	}

	b.logger.Debug("Built feature table", logging.Fields{
		"path":      path,
		"file_name": info.FileName,
		"rows":      t.Len(),
		"columns":   len(t.Columns),
	})

	return t, stats, nil
}

// Labels reads the segment labels of recording id from its TextGrid
func (b *Builder) Labels(id string) ([]string, error) {
	path, err := b.findTextGrid(id)
	if err != nil {
		return nil, err
	}

	tg, err := textgrid.ReadFile(path)
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeMalformedReport, path, "failed to read textgrid", err)
	}

	index, ok := b.config.TierIndices[string(b.config.Tier)]
	if !ok {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, path,
			fmt.Sprintf("no textgrid tier index configured for %q", b.config.Tier), nil)
	}

	tier, err := tg.Tier(index)
	if err != nil {
		return nil, features.NewPipelineError(features.ErrCodeMalformedReport, path, "textgrid tier lookup failed", err)
	}
	return tier.Labels(), nil
}

func (b *Builder) findTextGrid(id string) (string, error) {
	for _, ext := range b.config.TextGridExtensions {
		candidate := filepath.Join(b.config.TextGridDir, id+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", features.NewPipelineError(features.ErrCodeMissingCompanionFile, id,
		fmt.Sprintf("no textgrid in %q with extensions %v", b.config.TextGridDir, b.config.TextGridExtensions), nil)
}

// NormalizeIdentifiers renames a name column to file_name and strips the
// identifier suffixes from every value
func NormalizeIdentifiers(t *features.Table, suffixes []string) (*features.Table, error) {
	src := features.ColFileName
	if !t.HasColumn(src) {
		src = features.ColName
	}
	idx := t.ColumnIndex(src)
	if idx < 0 {
		return nil, features.NewPipelineError(features.ErrCodeConfiguration, "",
			"table has neither a file_name nor a name column", nil)
	}

	values := make([]string, t.Len())
	for i, row := range t.Rows {
		values[i] = StripSuffixes(row[idx].String(), suffixes)
	}

	out := t.Select(allRows(t.Len()))
	if err := out.SetTextColumn(features.ColFileName, values); err != nil {
		return nil, err
	}
	out.DropColumn(features.ColName)
	return out, nil
}

// StripSuffixes removes every occurrence of each suffix from name
func StripSuffixes(name string, suffixes []string) string {
	for _, s := range suffixes {
		if s != "" {
			name = strings.ReplaceAll(name, s, "")
		}
	}
	return name
}

// RecordingID derives the recording id from an openSMILE output path
func RecordingID(path string) string {
	name := baseName(path)
	if i := strings.Index(name, openSmileMarker); i > 0 {
		name = name[:i]
	}
	return name
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func provenanceColumns() []features.Column {
	return []features.Column{
		{Name: features.ColClass, Kind: features.KindText},
		{Name: features.ColParticipant, Kind: features.KindText},
		{Name: features.ColFileName, Kind: features.KindText},
	}
}

func (i RecordingInfo) cells() []features.Cell {
	return []features.Cell{
		features.TextCell(i.Class),
		features.TextCell(i.Participant),
		features.TextCell(i.FileName),
	}
}

func (i RecordingInfo) attach(t *features.Table) error {
	for _, c := range []struct{ name, value string }{
		{features.ColClass, i.Class},
		{features.ColParticipant, i.Participant},
		{features.ColFileName, i.FileName},
	} {
		values := make([]string, t.Len())
		for r := range values {
			values[r] = c.value
		}
		if err := t.SetTextColumn(c.name, values); err != nil {
			return err
		}
	}
	return nil
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
