// Package tableio reads and writes feature tables as delimited text or xlsx.
package tableio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/RyanBlaney/featmerge/pkg/features"
)

// Format is a table file format
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt", ".tab":
		return FormatTSV, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported table format %q", filepath.Ext(path))
	}
}

// ReadFile reads a table, choosing the format from the extension
func ReadFile(path string) (*features.Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		return readXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	t, err := Read(f, delimiter(format))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile writes a table, choosing the format from the extension. The
// parent directory is created when missing.
func WriteFile(path string, t *features.Table) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if format == FormatXLSX {
		return writeXLSX(path, t)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}

	if err := Write(f, t, delimiter(format)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses delimited text whose first record is the header
func Read(r io.Reader, comma rune) (*features.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return FromRecords(records)
}

// Write emits the header and rows as delimited text. Missing values are
// written as empty fields.
func Write(w io.Writer, t *features.Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if err := cw.WriteAll(ToRecords(t)); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// FromRecords builds a table from a header record and data records. A
// column is numeric when every non-empty field parses as a number, except
// identifier and label columns, which are always text.
func FromRecords(records [][]string) (*features.Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("table has no header")
	}

	header := records[0]
	data := records[1:]
	width := len(header)

	for i, rec := range data {
		if len(rec) > width {
			return nil, fmt.Errorf("record %d has %d fields, header has %d", i+2, len(rec), width)
		}
	}

	cols := make([]features.Column, width)
	for c, name := range header {
		name = strings.TrimSpace(name)
		kind := features.KindText
		if !textColumns[name] {
			kind = inferKind(data, c)
		}
		cols[c] = features.Column{Name: name, Kind: kind}
	}

	t := features.NewTable(cols)
	t.Rows = make([]features.Row, 0, len(data))
	for _, rec := range data {
		row := make(features.Row, width)
		for c := range width {
			field := ""
			if c < len(rec) {
				field = rec[c]
			}
			if cols[c].Kind == features.KindNumeric {
				row[c] = features.NumCell(features.ParseValue(field))
			} else {
				row[c] = features.TextCell(field)
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// ToRecords renders the header and rows as strings
func ToRecords(t *features.Table) [][]string {
	records := make([][]string, 0, t.Len()+1)
	records = append(records, t.ColumnNames())
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, cell := range row {
			rec[i] = cell.String()
		}
		records = append(records, rec)
	}
	return records
}

// textColumns never hold measurements. Recording ids such as "0042" must
// survive a write and read unchanged to align.
var textColumns = func() map[string]bool {
	names := []string{features.ColFileName, features.ColName, features.ColParticipant, features.ColClass}
	names = append(names, features.Variants(features.RoleLabel)...)

	m := make(map[string]bool, len(names))
	for _, name := range names {
		m[name] = true
	}
	return m
}()

func inferKind(data [][]string, col int) features.ColumnKind {
	seen := false
	for _, rec := range data {
		if col >= len(rec) {
			continue
		}
		field := strings.TrimSpace(rec[col])
		if field == "" {
			continue
		}
		v := features.ParseValue(field)
		if !v.Valid && !isNaNSpelling(field) {
			return features.KindText
		}
		if v.Valid && isIntegerLiteral(field) && v.String() != field {
			return features.KindText
		}
		seen = true
	}
	if !seen {
		return features.KindText
	}
	return features.KindNumeric
}

func isNaNSpelling(s string) bool {
	switch strings.ToLower(s) {
	case "nan", "?", "--undefined--":
		return true
	}
	return false
}

// isIntegerLiteral reports whether s is an optionally signed run of digits.
// Such a field that does not format back to itself, like "007", is a code.
func isIntegerLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func delimiter(format Format) rune {
	if format == FormatCSV {
		return ','
	}
	return '\t'
}

func readXLSX(path string) (*features.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read sheet %q: %w", path, sheet, err)
	}

	t, err := FromRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func writeXLSX(path string, t *features.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]any, len(t.Columns))
	for i, name := range t.ColumnNames() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, row := range t.Rows {
		values := make([]any, len(row))
		for i, cell := range row {
			switch {
			case cell.IsMissing():
				values[i] = ""
			case cell.Numeric:
				values[i] = cell.Num.V
			default:
				values[i] = cell.Text
			}
		}

		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
