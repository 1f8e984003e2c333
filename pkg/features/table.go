package features

import (
	"fmt"
	"strings"
)

// Provenance columns attached to every table
const (
	ColFileName    = "file_name"
	ColName        = "name"
	ColParticipant = "participant"
	ColClass       = "class"
)

// ColumnKind distinguishes text from numeric columns
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumeric
)

func (k ColumnKind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// Column describes one table column
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Cell holds either a text token or a numeric Value
type Cell struct {
	Text    string
	Num     Value
	Numeric bool
}

// TextCell creates a text cell
func TextCell(s string) Cell {
	return Cell{Text: s}
}

// NumCell creates a numeric cell
func NumCell(v Value) Cell {
	return Cell{Num: v, Numeric: true}
}

// IsMissing reports whether the cell carries no data. Empty text counts as
// missing, matching how delimited and spreadsheet inputs represent NaN.
func (c Cell) IsMissing() bool {
	if c.Numeric {
		return !c.Num.Valid
	}
	return c.Text == ""
}

func (c Cell) String() string {
	if c.Numeric {
		return c.Num.String()
	}
	return c.Text
}

// Row is one ordered record of a table
type Row []Cell

// Table is an ordered collection of rows sharing a fixed column set
type Table struct {
	Columns []Column
	Rows    []Row
}

// Group is the set of rows sharing one key, in source order
type Group struct {
	Key  string
	Rows []int
}

// NewTable creates an empty table with the given columns
func NewTable(columns []Column) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Append adds a row after checking its width
func (t *Table) Append(row Row) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Concat appends all rows of other, which must have identical column names
func (t *Table) Concat(other *Table) error {
	if other == nil {
		return nil
	}
	if len(t.Columns) == 0 && len(t.Rows) == 0 {
		t.Columns = append([]Column(nil), other.Columns...)
	}
	if strings.Join(t.ColumnNames(), "\x00") != strings.Join(other.ColumnNames(), "\x00") {
		return fmt.Errorf("column mismatch: %v vs %v", t.ColumnNames(), other.ColumnNames())
	}
	t.Rows = append(t.Rows, other.Rows...)
	return nil
}

// Cell returns the cell at row i of the named column
func (t *Table) Cell(i int, name string) (Cell, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Cell{}, false
	}
	return t.Rows[i][idx], true
}

// GroupBy partitions row indices by the text of the key column, ordered by
// first appearance. Rows keep their source order inside each group.
func (t *Table) GroupBy(name string) ([]Group, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}

	var groups []Group
	pos := make(map[string]int)
	for i, row := range t.Rows {
		key := row[idx].String()
		g, ok := pos[key]
		if !ok {
			g = len(groups)
			pos[key] = g
			groups = append(groups, Group{Key: key})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups, nil
}

// Select returns a new table with the given rows in the given order
func (t *Table) Select(rows []int) *Table {
	out := NewTable(t.Columns)
	out.Rows = make([]Row, 0, len(rows))
	for _, i := range rows {
		out.Rows = append(out.Rows, t.Rows[i])
	}
	return out
}

// Filter returns a new table holding the rows for which keep is true
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := NewTable(t.Columns)
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// DropColumn removes the named column if present
func (t *Table) DropColumn(name string) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return
	}
	t.Columns = append(t.Columns[:idx:idx], t.Columns[idx+1:]...)
	for i, row := range t.Rows {
		t.Rows[i] = append(row[:idx:idx], row[idx+1:]...)
	}
}

// SetTextColumn sets the named text column to values, appending the column
// when it does not exist yet
func (t *Table) SetTextColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.Rows))
	}
	// rows may be shared with the table this one was selected from
	idx := t.ColumnIndex(name)
	if idx < 0 {
		t.Columns = append(t.Columns, Column{Name: name, Kind: KindText})
		for i, row := range t.Rows {
			r := make(Row, len(row), len(row)+1)
			copy(r, row)
			t.Rows[i] = append(r, TextCell(values[i]))
		}
		return nil
	}
	t.Columns[idx].Kind = KindText
	for i, row := range t.Rows {
		r := append(Row(nil), row...)
		r[idx] = TextCell(values[i])
		t.Rows[i] = r
	}
	return nil
}
