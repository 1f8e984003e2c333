package reconcile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/featmerge/pkg/arff"
	"github.com/RyanBlaney/featmerge/pkg/features"
	"github.com/RyanBlaney/featmerge/pkg/praat"
)

func praatRecording(name string, labels ...string) praat.Recording {
	rec := praat.Recording{Meta: praat.RecordingMeta{Name: name, TotalDuration: 3, TotalIntervals: len(labels)}}
	for i, l := range labels {
		seg := praat.SegmentRecord{Label: l}
		for m := range praat.NumMeasures {
			seg.Values[m] = features.Float(float64(10*(i+1) + m))
		}
		rec.Segments = append(rec.Segments, seg)
	}
	return rec
}

func TestPraatTableSegmented(t *testing.T) {
	b := NewBuilder(BuilderConfig{Tier: features.TierWord, Class: "Reference"}, nil, nil)

	table := b.PraatTable("/data/PP03_session1_tier2_results.txt", []praat.Recording{
		praatRecording("PP03_session1", "hello", "world"),
	})

	names := table.ColumnNames()
	require.Len(t, names, 19)
	assert.Equal(t, "word", names[0])
	assert.Equal(t, "dur", names[1])
	assert.Equal(t, []string{"class", "participant", "file_name"}, names[16:])

	require.Equal(t, 2, table.Len())
	assert.Equal(t, "world", table.Rows[1][0].Text)
	assert.Equal(t, 20.0, table.Rows[1][1].Num.V)

	fileName, _ := table.Cell(0, features.ColFileName)
	assert.Equal(t, "PP03_session1", fileName.Text)
	participant, _ := table.Cell(0, features.ColParticipant)
	assert.Equal(t, "PP03", participant.Text)
	class, _ := table.Cell(1, features.ColClass)
	assert.Equal(t, "Reference", class.Text)
}

func TestPraatTablePhonemeLabelColumn(t *testing.T) {
	b := NewBuilder(BuilderConfig{Tier: features.TierPhoneme}, nil, nil)
	table := b.PraatTable("rec.txt", []praat.Recording{praatRecording("rec", "a")})
	assert.Equal(t, "phoneme", table.Columns[0].Name)
}

func TestPraatTableAggregated(t *testing.T) {
	tests := []struct {
		name string
		cfg  BuilderConfig
	}{
		{"mean only", BuilderConfig{Tier: features.TierWord, MeanOnly: true}},
		{"full tier", BuilderConfig{Tier: features.TierFull}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.cfg, nil, nil)
			require.True(t, b.Aggregated())

			table := b.PraatTable("PP01_a_tier2_results.txt", []praat.Recording{
				praatRecording("PP01_a", "x", "y"),
				praatRecording("PP01_b", "z"),
			})

			assert.False(t, table.HasColumn("word"))
			assert.Equal(t, "total_dur", table.Columns[0].Name)
			assert.Equal(t, "dur_mean", table.Columns[2].Name)
			require.Equal(t, 2, table.Len())

			durMean, _ := table.Cell(0, "dur_mean")
			assert.InDelta(t, 15.0, durMean.Num.V, 1e-9)
			intervals, _ := table.Cell(1, "total_intervals")
			assert.Equal(t, 1.0, intervals.Num.V)
		})
	}
}

func TestArffTableAttachesLabels(t *testing.T) {
	dir := t.TempDir()
	writeTextGrid(t, filepath.Join(dir, "PP03_session1-16khz_annotated.tg"), []string{"a", "b", "c", "d"})

	ds, err := arff.Decode(strings.NewReader(arffText(3)))
	require.NoError(t, err)

	b := NewBuilder(BuilderConfig{Tier: features.TierWord, Class: "Reference", TextGridDir: dir}, nil, nil)
	table, stats, err := b.ArffTable(filepath.Join(dir, "PP03_session1-16khz_openSMILE_eGeMAPS_wordtier_results.arff"), ds)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.LabelsTruncated)
	assert.Equal(t, []string{
		"F0semitoneFrom27.5Hz_sma3nz_amean", "loudness_sma3_amean",
		"word", "class", "participant", "file_name",
	}, table.ColumnNames())

	require.Equal(t, 3, table.Len())
	word, _ := table.Cell(2, "word")
	assert.Equal(t, "c", word.Text)
	fileName, _ := table.Cell(0, features.ColFileName)
	assert.Equal(t, "PP03_session1", fileName.Text)
	class, _ := table.Cell(0, features.ColClass)
	assert.Equal(t, "Reference", class.Text)

	// the dataset keeps its own rows
	assert.Len(t, ds.Rows[0], 4)
}

func TestArffTableErrors(t *testing.T) {
	dir := t.TempDir()
	writeTextGrid(t, filepath.Join(dir, "short.TextGrid"), []string{"a"})

	ds, err := arff.Decode(strings.NewReader(arffText(2)))
	require.NoError(t, err)

	b := NewBuilder(BuilderConfig{Tier: features.TierWord, TextGridDir: dir}, nil, nil)

	_, _, err = b.ArffTable("missing_openSMILE_eGeMAPS.arff", ds)
	require.Error(t, err)
	assert.True(t, features.IsCode(err, features.ErrCodeMissingCompanionFile))

	_, _, err = b.ArffTable("short_openSMILE_eGeMAPS.arff", ds)
	require.Error(t, err)
	assert.True(t, features.IsCode(err, features.ErrCodeMalformedReport))
}

func TestArffTableFullTier(t *testing.T) {
	ds, err := arff.Decode(strings.NewReader(arffText(1)))
	require.NoError(t, err)

	b := NewBuilder(BuilderConfig{Tier: features.TierFull, TextGridDir: t.TempDir()}, nil, nil)
	table, _, err := b.ArffTable("rec_openSMILE_eGeMAPS_fulltier_results.arff", ds)
	require.NoError(t, err)

	assert.False(t, table.HasColumn("word"))
	assert.Equal(t, 1, table.Len())
}

func TestNormalizeIdentifiers(t *testing.T) {
	in := buildTable(t, []string{"name", "x"},
		[]any{"PP01_a_tier2_results", 1.0},
		[]any{"PP01_b-16khz", 2.0},
	)

	out, err := NormalizeIdentifiers(in, DefaultIdentifierSuffixes())
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "file_name"}, out.ColumnNames())
	assert.Equal(t, "PP01_a", out.Rows[0][1].Text)
	assert.Equal(t, "PP01_b", out.Rows[1][1].Text)
	assert.Equal(t, []string{"name", "x"}, in.ColumnNames())

	_, err = NormalizeIdentifiers(buildTable(t, []string{"x"}), nil)
	assert.True(t, features.IsCode(err, features.ErrCodeConfiguration))
}

func TestRecordingID(t *testing.T) {
	assert.Equal(t, "PP01_a", RecordingID("/out/PP01_a_openSMILE_eGeMAPS_wordtier_results.arff"))
	assert.Equal(t, "plain", RecordingID("plain.arff"))
}
