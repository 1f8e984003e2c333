package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropPlaceholders(t *testing.T) {
	table := buildTable(t, []string{"word", "dur", "file_name"},
		[]any{"hello", 1.0, "r"},
		[]any{"<SIL>", 1.0, "r"},
		[]any{"sil", 1.0, "r"},
		[]any{"SIL", 1.0, "r"},
		[]any{"world", 1.0, "r"},
		[]any{"[SPN]", 1.0, "r"},
		[]any{"Sil", 1.0, "r"},
		[]any{"<UNK>", 1.0, "r"},
	)

	f := NewFilter(FilterConfig{}, nil)
	out, report := f.DropPlaceholders(table)

	var words []string
	for _, row := range out.Rows {
		words = append(words, row[0].Text)
	}
	assert.Equal(t, []string{"hello", "world", "Sil"}, words)
	assert.Equal(t, FilterReport{Before: 8, PlaceholderDropped: 5, Final: 3}, report)
	assert.Equal(t, 8, table.Len())
}

func TestDropPlaceholdersCustomSet(t *testing.T) {
	table := buildTable(t, []string{"phoneme", "file_name"},
		[]any{"sp", "r"},
		[]any{"<SIL>", "r"},
	)

	out, report := NewFilter(FilterConfig{PlaceholderLabels: []string{"sp"}}, nil).DropPlaceholders(table)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "<SIL>", out.Rows[0][0].Text)
	assert.Equal(t, 1, report.PlaceholderDropped)
}

func TestDropPlaceholdersWithoutLabelColumn(t *testing.T) {
	table := buildTable(t, []string{"dur_mean", "file_name"}, []any{1.0, "r"})

	out, report := NewFilter(FilterConfig{}, nil).DropPlaceholders(table)
	assert.Same(t, table, out)
	assert.Equal(t, 1, report.Final)
}

func TestDropInvalid(t *testing.T) {
	header := []string{"word", "dur", "pitch_max", "intensity_max", "f1", "file_name"}
	rows := [][]any{
		{"a", 0.2, 180.0, 70.0, 500.0, "r"},
		{"b", 0.0, 180.0, 70.0, 500.0, "r"}, // zero duration
		{"c", 0.2, 0.0, 70.0, 500.0, "r"},   // zero pitch
		{"d", 0.2, nil, 70.0, 500.0, "r"},   // missing is not zero
		{"e", 0.2, 180.0, 70.0, 0.0, "r"},   // zero outside the checked set
		{"", 0.2, 180.0, 70.0, 500.0, "r"},  // empty text
		{"g", 0.2, 180.0, 0.0, nil, "r"},    // zero intensity
	}

	tests := []struct {
		name   string
		remove bool
		want   FilterReport
		words  []string
	}{
		{
			name:   "enabled",
			remove: true,
			want:   FilterReport{Before: 7, ZeroDropped: 3, MissingDropped: 2, Final: 2},
			words:  []string{"a", "e"},
		},
		{
			name:   "disabled",
			remove: false,
			want:   FilterReport{Before: 7, Final: 7},
			words:  []string{"a", "b", "c", "d", "e", "", "g"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := buildTable(t, header, rows...)
			out, report := NewFilter(FilterConfig{RemoveOutliers: tt.remove}, nil).DropInvalid(table)

			assert.Equal(t, tt.want, report)
			var words []string
			for _, row := range out.Rows {
				words = append(words, row[0].Text)
			}
			assert.Equal(t, tt.words, words)
		})
	}
}

func TestDropInvalidMeanColumns(t *testing.T) {
	table := buildTable(t, []string{"dur_mean", "pitch_max_mean", "intensity_max_mean", "file_name"},
		[]any{0.3, 150.0, 65.0, "r1"},
		[]any{0.3, 0.0, 65.0, "r2"},
	)

	out, report := NewFilter(FilterConfig{RemoveOutliers: true}, nil).DropInvalid(table)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "r1", out.Rows[0][3].Text)
	assert.Equal(t, 1, report.ZeroDropped)
}
