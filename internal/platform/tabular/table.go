// Package tabular reads, holds, and writes delimited text tables. A
// Table is the in-memory currency the standardization pipeline passes
// between stages: ordered columns, rectangular string cells, no typing.
package tabular

import "strings"

// Table is an ordered, rectangular block of string cells. Columns
// preserves source order and every row holds exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Record is a single row keyed by column name.
type Record map[string]string

// New returns an empty table with the given column order.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// ColumnIndex returns the position of name in Columns, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// AppendRow adds one row, padding with empty cells or dropping extras so
// the table stays rectangular.
func (t *Table) AppendRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Column returns all cell values of the named column in row order, or
// nil when the column does not exist.
func (t *Table) Column(name string) []string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Distinct returns the distinct raw values of the named column in order
// of first appearance, excluding cells that are blank after trimming.
// Values are returned exactly as stored so callers can key substitutions
// on them.
func (t *Table) Distinct(name string) []string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(t.Rows))
	var out []string
	for _, row := range t.Rows {
		v := row[i]
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DistinctTrimmed returns the distinct non-empty values of the named
// column, each trimmed of surrounding whitespace, in order of first
// appearance.
func (t *Table) DistinctTrimmed(name string) []string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(t.Rows))
	var out []string
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[i])
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Records materializes every row as a column-name keyed map.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.Rows))
	for r, row := range t.Rows {
		rec := make(Record, len(t.Columns))
		for c, name := range t.Columns {
			rec[name] = row[c]
		}
		out[r] = rec
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{Columns: append([]string(nil), t.Columns...)}
	c.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// Dedupe removes duplicate rows in place, keeping the first occurrence
// of each. It returns the original indices of the removed rows, captured
// before the rows slice is rewritten so callers can report exactly which
// source rows were dropped.
func (t *Table) Dedupe() []int {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	var dropped []int
	for i, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			dropped = append(dropped, i)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
	return dropped
}
