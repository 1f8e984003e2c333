package arff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/featmerge/pkg/features"
)

const smileOutput = `@relation 'openSMILE_features'

% generated by SMILExtract
@attribute name string
@attribute frameTime numeric
@attribute F0semitoneFrom27.5Hz_sma3nz_amean numeric
@attribute 'loudness sma3 amean' real
@attribute class {a,b,'c d'}

@data

'unknown',0.000000,21.5,0.73,a
'unknown',0.250000,?,0.81,'c d'
"it's",0.5,19.25,0.0,?
`

func TestDecode(t *testing.T) {
	ds, err := Decode(strings.NewReader(smileOutput))
	require.NoError(t, err)

	assert.Equal(t, "openSMILE_features", ds.Relation)
	require.Len(t, ds.Attributes, 5)
	assert.Equal(t, "name", ds.Attributes[0].Name)
	assert.Equal(t, TypeString, ds.Attributes[0].Type)
	assert.Equal(t, TypeNumeric, ds.Attributes[1].Type)
	assert.Equal(t, "loudness sma3 amean", ds.Attributes[3].Name)
	assert.Equal(t, TypeNominal, ds.Attributes[4].Type)
	assert.Equal(t, []string{"a", "b", "c d"}, ds.Attributes[4].Nominal)

	require.Len(t, ds.Rows, 3)
	assert.Equal(t, "unknown", ds.Rows[0][0].Text)
	assert.InDelta(t, 21.5, ds.Rows[0][2].Num.V, 1e-12)
	assert.False(t, ds.Rows[1][2].Num.Valid, "? must decode as missing")
	assert.Equal(t, "c d", ds.Rows[1][4].Text)
	assert.Equal(t, "it's", ds.Rows[2][0].Text)
	assert.True(t, ds.Rows[2][3].Num.IsZero())
	assert.True(t, ds.Rows[2][4].IsMissing())
}

func TestDatasetTable(t *testing.T) {
	ds, err := Decode(strings.NewReader(smileOutput))
	require.NoError(t, err)

	table := ds.Table()
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, features.KindNumeric, table.Columns[2].Kind)
	assert.Equal(t, features.KindText, table.Columns[4].Kind)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no data section", "@relation r\n@attribute a numeric\n"},
		{"data before attributes", "@relation r\n@data\n1\n"},
		{"width mismatch", "@relation r\n@attribute a numeric\n@attribute b numeric\n@data\n1\n"},
		{"sparse", "@relation r\n@attribute a numeric\n@data\n{0 1}\n"},
		{"unterminated quote", "@relation r\n@attribute a string\n@data\n'abc\n"},
		{"unknown type", "@relation r\n@attribute a blob\n@data\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
