package tableio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/featmerge/pkg/features"
)

func sampleTable() *features.Table {
	t := features.NewTable([]features.Column{
		{Name: "word", Kind: features.KindText},
		{Name: "pitch_max", Kind: features.KindNumeric},
		{Name: "file_name", Kind: features.KindText},
	})
	t.Rows = []features.Row{
		{features.TextCell("hello"), features.NumCell(features.Float(210.5)), features.TextCell("rec1")},
		{features.TextCell("world"), features.NumCell(features.Missing()), features.TextCell("rec1")},
		{features.TextCell(""), features.NumCell(features.Float(0)), features.TextCell("rec2")},
	}
	return t
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out/a.tsv", FormatTSV, false},
		{"a.txt", FormatTSV, false},
		{"a.CSV", FormatCSV, false},
		{"a.xlsx", FormatXLSX, false},
		{"a.xls", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestWriteReadDelimited(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTable(), '\t'))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "word\tpitch_max\tfile_name", lines[0])
	assert.Equal(t, "world\t\trec1", lines[2])

	got, err := Read(&buf, '\t')
	require.NoError(t, err)
	assert.Equal(t, features.KindNumeric, got.Columns[1].Kind)
	assert.Equal(t, features.KindText, got.Columns[0].Kind)
	assert.True(t, got.Rows[1][1].IsMissing())
	assert.True(t, got.Rows[2][0].IsMissing())
	assert.True(t, got.Rows[2][1].Num.IsZero())
}

func TestFromRecordsPadsShortRecords(t *testing.T) {
	got, err := FromRecords([][]string{
		{"name", "x"},
		{"rec1"},
		{"rec2", "NaN"},
	})
	require.NoError(t, err)
	assert.Equal(t, features.KindNumeric, got.Columns[1].Kind)
	assert.True(t, got.Rows[0][1].IsMissing())
	assert.True(t, got.Rows[1][1].IsMissing())
}

func TestFromRecordsRejectsWideRecords(t *testing.T) {
	_, err := FromRecords([][]string{{"a"}, {"1", "2"}})
	assert.Error(t, err)
}

func TestFileRoundTrip(t *testing.T) {
	for _, ext := range []string{".tsv", ".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "table"+ext)
			require.NoError(t, WriteFile(path, sampleTable()))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"word", "pitch_max", "file_name"}, got.ColumnNames())
			require.Equal(t, 3, got.Len())
			assert.Equal(t, "hello", got.Rows[0][0].Text)
			assert.InDelta(t, 210.5, got.Rows[0][1].Num.V, 1e-9)
			assert.True(t, got.Rows[1][1].IsMissing())
			assert.Equal(t, "rec2", got.Rows[2][2].Text)
		})
	}
}

func TestFileRoundTripKeepsNumericLookingIdentifiers(t *testing.T) {
	table := features.NewTable([]features.Column{
		{Name: "word", Kind: features.KindText},
		{Name: "dur", Kind: features.KindNumeric},
		{Name: "item", Kind: features.KindText},
		{Name: features.ColClass, Kind: features.KindText},
		{Name: features.ColParticipant, Kind: features.KindText},
		{Name: features.ColFileName, Kind: features.KindText},
	})
	table.Rows = []features.Row{
		{features.TextCell("1"), features.NumCell(features.Float(0.25)), features.TextCell("007"),
			features.TextCell("2"), features.TextCell("007"), features.TextCell("0042")},
		{features.TextCell("2"), features.NumCell(features.Float(12)), features.TextCell("12"),
			features.TextCell("2"), features.TextCell("007"), features.TextCell("0042")},
	}

	for _, ext := range []string{".tsv", ".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "table"+ext)
			require.NoError(t, WriteFile(path, table))

			got, err := ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, 2, got.Len())

			for _, name := range []string{"word", "item", features.ColClass, features.ColParticipant, features.ColFileName} {
				assert.Equal(t, features.KindText, got.Columns[got.ColumnIndex(name)].Kind, name)
			}
			assert.Equal(t, features.KindNumeric, got.Columns[1].Kind)

			assert.Equal(t, "1", got.Rows[0][0].Text)
			assert.Equal(t, "007", got.Rows[0][2].Text)
			assert.Equal(t, "007", got.Rows[0][4].Text)
			assert.Equal(t, "0042", got.Rows[0][5].Text)
			assert.InDelta(t, 12, got.Rows[1][1].Num.V, 1e-9)
		})
	}
}

func TestFromRecordsInfersKinds(t *testing.T) {
	got, err := FromRecords([][]string{
		{"count", "code", "signed", "name"},
		{"3", "01", "-2", "11"},
		{"10", "12", "4", "12"},
	})
	require.NoError(t, err)

	assert.Equal(t, features.KindNumeric, got.Columns[0].Kind)
	assert.Equal(t, features.KindText, got.Columns[1].Kind)
	assert.Equal(t, features.KindNumeric, got.Columns[2].Kind)
	assert.Equal(t, features.KindText, got.Columns[3].Kind)
	assert.Equal(t, "01", got.Rows[0][1].Text)
}
