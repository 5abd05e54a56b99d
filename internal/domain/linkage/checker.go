// Package linkage verifies that split entity tables carry the columns
// that tie child entities to their parents, and fills the ones a
// collected singleton parent can satisfy.
package linkage

import (
	"strings"

	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

// MissingLink identifies a child entity table that lacks the column
// pointing at its parent entity.
type MissingLink struct {
	Entity       string
	TargetEntity string
	Property     string
}

// Check walks every relationship whose source entity appears in tables
// and reports the ones whose linkage column is absent. A singleton
// destination that has actually been collected (a table with at least
// one record) satisfies the link without a per-row column and is not
// reported. Advisory: the caller surfaces the list to a human for
// mapping fixes, nothing is rejected here.
func Check(tables map[string]*tabular.Table, model *mdf.Model) []MissingLink {
	var out []MissingLink
	for _, rel := range model.Relationships {
		tbl, ok := tables[rel.Source]
		if !ok {
			continue
		}
		dst, ok := model.Entity(rel.Destination)
		if !ok {
			continue
		}
		prop, ok := rel.LinkageProperty(dst)
		if !ok {
			continue
		}
		if tbl.HasColumn(prop) {
			continue
		}
		if model.IsSingleton(rel.Destination) {
			if parent, ok := tables[rel.Destination]; ok && len(parent.Rows) > 0 {
				continue
			}
		}
		out = append(out, MissingLink{
			Entity:       rel.Source,
			TargetEntity: rel.Destination,
			Property:     prop,
		})
	}
	return out
}

// Resolution describes one write-time linkage fill performed by
// ResolveSingletons.
type Resolution struct {
	Entity   string // child entity whose rows were filled
	Target   string // singleton parent entity
	Property string // linkage column
	Value    string // key value injected into each row
}

// ResolveSingletons fills child tables' linkage columns from collected
// singleton parents: for every relationship whose destination is a
// singleton with exactly one collected record, the child table gains
// the linkage column if absent and every empty cell in it receives the
// parent's key value. Cells already holding a value are respected.
// Tables are modified in place; the returned resolutions say what was
// filled, for audit logging.
func ResolveSingletons(tables map[string]*tabular.Table, model *mdf.Model) []Resolution {
	var out []Resolution
	for _, rel := range model.Relationships {
		if !model.IsSingleton(rel.Destination) {
			continue
		}
		tbl, ok := tables[rel.Source]
		if !ok {
			continue
		}
		parent, ok := tables[rel.Destination]
		if !ok || len(parent.Rows) != 1 {
			continue
		}
		dst, _ := model.Entity(rel.Destination)
		prop, ok := rel.LinkageProperty(dst)
		if !ok {
			continue
		}
		value := singletonKey(parent, dst, rel.Destination)
		if value == "" {
			continue
		}
		idx := tbl.ColumnIndex(prop)
		if idx < 0 {
			tbl.Columns = append(tbl.Columns, prop)
			for i, row := range tbl.Rows {
				tbl.Rows[i] = append(row, "")
			}
			idx = len(tbl.Columns) - 1
		}
		filled := false
		for _, row := range tbl.Rows {
			if strings.TrimSpace(row[idx]) == "" {
				row[idx] = value
				filled = true
			}
		}
		if filled {
			out = append(out, Resolution{
				Entity:   rel.Source,
				Target:   rel.Destination,
				Property: prop,
				Value:    value,
			})
		}
	}
	return out
}

// singletonKey picks the identifier a singleton record contributes to
// its children: the key property's value when the record carries one,
// otherwise the entity's short name, which stands in for the archive-
// assigned identifier at submission time.
func singletonKey(parent *tabular.Table, dst *mdf.EntitySchema, entity string) string {
	if key, ok := dst.KeyProperty(); ok {
		if v := cellValue(parent, key.Name); v != "" {
			return v
		}
	}
	return cellValue(parent, strings.ToLower(entity)+"_short_name")
}

func cellValue(tbl *tabular.Table, column string) string {
	idx := tbl.ColumnIndex(column)
	if idx < 0 || len(tbl.Rows) == 0 {
		return ""
	}
	return strings.TrimSpace(tbl.Rows[0][idx])
}
