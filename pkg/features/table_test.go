package features

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()

	table := NewTable([]Column{
		{Name: "word", Kind: KindText},
		{Name: "dur", Kind: KindNumeric},
		{Name: ColFileName, Kind: KindText},
	})
	for _, r := range []struct {
		word string
		dur  Value
		file string
	}{
		{"a", Float(0.1), "r1"},
		{"b", Float(0.2), "r2"},
		{"c", Missing(), "r1"},
		{"d", Float(0), "r3"},
		{"e", Float(0.5), "r2"},
	} {
		require.NoError(t, table.Append(Row{TextCell(r.word), NumCell(r.dur), TextCell(r.file)}))
	}
	return table
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		token string
		want  Value
	}{
		{"1.5", Float(1.5)},
		{" 0 ", Float(0)},
		{"-3e2", Float(-300)},
		{"", Missing()},
		{"?", Missing()},
		{"--undefined--", Missing()},
		{"NaN", Missing()},
		{"nan", Missing()},
		{"inf", Missing()},
		{"abc", Missing()},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.token))
		})
	}
}

func TestValueZeroAndString(t *testing.T) {
	assert.True(t, Float(0).IsZero())
	assert.False(t, Missing().IsZero())
	assert.False(t, Float(0.1).IsZero())

	assert.Equal(t, "", Missing().String())
	assert.Equal(t, "0.25", Float(0.25).String())
}

func TestCellIsMissing(t *testing.T) {
	assert.True(t, TextCell("").IsMissing())
	assert.False(t, TextCell("x").IsMissing())
	assert.True(t, NumCell(Missing()).IsMissing())
	assert.False(t, NumCell(Float(0)).IsMissing())
}

func TestTableAppendChecksWidth(t *testing.T) {
	table := sampleTable(t)
	assert.Error(t, table.Append(Row{TextCell("x")}))
	assert.Equal(t, 5, table.Len())
}

func TestTableGroupBy(t *testing.T) {
	table := sampleTable(t)

	groups, err := table.GroupBy(ColFileName)
	require.NoError(t, err)
	assert.Equal(t, []Group{
		{Key: "r1", Rows: []int{0, 2}},
		{Key: "r2", Rows: []int{1, 4}},
		{Key: "r3", Rows: []int{3}},
	}, groups)

	_, err = table.GroupBy("missing")
	assert.Error(t, err)
}

func TestTableConcat(t *testing.T) {
	var empty Table
	require.NoError(t, empty.Concat(sampleTable(t)))
	assert.Equal(t, 5, empty.Len())
	assert.Equal(t, []string{"word", "dur", ColFileName}, empty.ColumnNames())

	other := NewTable([]Column{{Name: "word"}, {Name: "dur"}})
	assert.Error(t, empty.Concat(other))
	assert.NoError(t, empty.Concat(nil))
}

func TestTableSelectFilterDoNotAlias(t *testing.T) {
	table := sampleTable(t)

	sel := table.Select([]int{4, 0})
	require.Equal(t, 2, sel.Len())
	assert.Equal(t, "e", sel.Rows[0][0].Text)

	require.NoError(t, sel.SetTextColumn(ColFileName, []string{"x", "y"}))
	assert.Equal(t, "r2", table.Rows[4][2].Text)

	kept := table.Filter(func(r Row) bool { return !r[1].IsMissing() })
	assert.Equal(t, 4, kept.Len())
	assert.Equal(t, 5, table.Len())
}

func TestTableDropAndSetColumns(t *testing.T) {
	table := sampleTable(t)

	table.DropColumn("dur")
	table.DropColumn("absent")
	assert.Equal(t, []string{"word", ColFileName}, table.ColumnNames())
	for _, row := range table.Rows {
		assert.Len(t, row, 2)
	}

	values := make([]string, table.Len())
	for i := range values {
		values[i] = fmt.Sprint(i)
	}
	require.NoError(t, table.SetTextColumn(ColClass, values))
	cell, ok := table.Cell(3, ColClass)
	require.True(t, ok)
	assert.Equal(t, "3", cell.Text)

	assert.Error(t, table.SetTextColumn(ColClass, []string{"short"}))
}

func TestResolveSchema(t *testing.T) {
	table := NewTable([]Column{
		{Name: "phoneme"}, {Name: "dur_mean"}, {Name: "pitch_max"}, {Name: ColName},
	})
	s := ResolveSchema(table)

	label, ok := s.Column(RoleLabel)
	require.True(t, ok)
	assert.Equal(t, "phoneme", label)

	dur, _ := s.Column(RoleDuration)
	assert.Equal(t, "dur_mean", dur)

	fileName, _ := s.Column(RoleFileName)
	assert.Equal(t, ColName, fileName)

	_, ok = s.Column(RoleIntensityMax)
	assert.False(t, ok)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("")
	require.NoError(t, err)
	assert.Equal(t, TierWord, tier)

	tier, err = ParseTier("full")
	require.NoError(t, err)
	assert.False(t, tier.Segmented())
	assert.Equal(t, "", tier.LabelColumn())

	assert.Equal(t, "phoneme", TierPhoneme.LabelColumn())

	_, err = ParseTier("syllable")
	assert.Error(t, err)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewPipelineError(ErrCodeMissingCompanionFile, "rec", "no textgrid", nil))

	assert.True(t, IsCode(err, ErrCodeMissingCompanionFile))
	assert.False(t, IsCode(err, ErrCodeConfiguration))
	assert.Equal(t, "wrapped: rec: no textgrid", err.Error())
}
