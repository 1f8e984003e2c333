package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/featmerge/pkg/features"
)

// buildTable creates a table from a header and loosely typed rows. Strings
// become text cells, float64 numeric cells and nil a missing numeric cell.
// Column kinds follow the first row.
func buildTable(t *testing.T, header []string, rows ...[]any) *features.Table {
	t.Helper()

	cols := make([]features.Column, len(header))
	for i, name := range header {
		cols[i] = features.Column{Name: name, Kind: features.KindNumeric}
		if len(rows) > 0 {
			if _, ok := rows[0][i].(string); ok {
				cols[i].Kind = features.KindText
			}
		}
	}

	table := features.NewTable(cols)
	for _, r := range rows {
		require.Len(t, r, len(header))
		row := make(features.Row, len(r))
		for i, v := range r {
			switch v := v.(type) {
			case string:
				row[i] = features.TextCell(v)
			case float64:
				row[i] = features.NumCell(features.Float(v))
			case int:
				row[i] = features.NumCell(features.Float(float64(v)))
			case nil:
				row[i] = features.NumCell(features.Missing())
			default:
				t.Fatalf("unsupported cell %T", v)
			}
		}
		require.NoError(t, table.Append(row))
	}
	return table
}

// recordingRows returns n rows of a recording with labels w0..wn-1
func recordingRows(fileName string, n int, offset float64) [][]any {
	rows := make([][]any, n)
	for i := range n {
		rows[i] = []any{fmt.Sprintf("w%d", i), offset + float64(i+1), "Reference", "PP01", fileName}
	}
	return rows
}

// writeTextGrid writes a short-format TextGrid whose second tier carries
// labels and whose first tier is a single empty interval
func writeTextGrid(t *testing.T, path string, labels []string) {
	t.Helper()

	end := float64(len(labels) + 1)
	var b strings.Builder
	fmt.Fprintf(&b, "File type = \"ooTextFile\"\nObject class = \"TextGrid\"\n\n0\n%g\n<exists>\n2\n", end)
	fmt.Fprintf(&b, "\"IntervalTier\"\n\"phones\"\n0\n%g\n1\n0\n%g\n\"\"\n", end, end)
	fmt.Fprintf(&b, "\"IntervalTier\"\n\"words\"\n0\n%g\n%d\n", end, len(labels)+1)
	fmt.Fprintf(&b, "0\n1\n\"\"\n")
	for i, l := range labels {
		fmt.Fprintf(&b, "%d\n%d\n\"%s\"\n", i+1, i+2, l)
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

// arffText renders an openSMILE style ARFF document with n instances
func arffText(n int) string {
	var b strings.Builder
	b.WriteString("@relation 'openSMILE_features'\n\n")
	b.WriteString("@attribute name string\n")
	b.WriteString("@attribute F0semitoneFrom27.5Hz_sma3nz_amean numeric\n")
	b.WriteString("@attribute loudness_sma3_amean numeric\n")
	b.WriteString("@attribute class numeric\n\n@data\n\n")
	for i := range n {
		fmt.Fprintf(&b, "'unknown',%d.5,0.%d,?\n", 20+i, i+1)
	}
	return b.String()
}
