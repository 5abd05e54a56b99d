package remap

import "github.com/remap/remap/internal/platform/tabular"

// Apply returns a copy of the table with every correction substituted:
// a cell whose exact value appears in its column's map is replaced by
// the mapped value, everything else is untouched. Applying the same
// corrections to the result again changes nothing, since no old values
// remain to match.
func Apply(tbl *tabular.Table, corrections CorrectionMap) *tabular.Table {
	out := tbl.Clone()
	for col, subs := range corrections {
		idx := out.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		for _, row := range out.Rows {
			if to, ok := subs[row[idx]]; ok {
				row[idx] = to
			}
		}
	}
	return out
}
