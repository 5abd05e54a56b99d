// Package remap implements the schema-remapping core: splitting a flat
// source table into per-entity tables, validating cells against the
// schema vocabularies, applying corrections, and serializing the
// standardized entity tables.
package remap

import (
	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

// Mapping associates target properties with source column names. Keys
// may be bare property names ("race") or dotted entity-qualified names
// ("Subject.race"); the bare form takes precedence when both are
// present.
type Mapping map[string]string

// Split partitions a flat source table into one table per target
// entity. For each entity, every schema property with a mapped source
// column becomes a column named after the property, in schema order;
// rows are copied from the source and then deduplicated. Entities with
// no mapped property are omitted. Pure: the source table is never
// modified.
func Split(src *tabular.Table, mapping Mapping, model *mdf.Model) map[string]*tabular.Table {
	out := make(map[string]*tabular.Table)
	for _, entityName := range model.EntityNames() {
		ent, _ := model.Entity(entityName)
		var cols []string
		var srcIdx []int
		for _, p := range ent.Properties {
			srcCol, ok := lookupMapping(mapping, entityName, p.Name)
			if !ok {
				continue
			}
			idx := src.ColumnIndex(srcCol)
			if idx < 0 {
				continue
			}
			cols = append(cols, p.Name)
			srcIdx = append(srcIdx, idx)
		}
		if len(cols) == 0 {
			continue
		}
		sub := tabular.New(cols...)
		for _, row := range src.Rows {
			cells := make([]string, len(srcIdx))
			for i, idx := range srcIdx {
				cells[i] = row[idx]
			}
			sub.Rows = append(sub.Rows, cells)
		}
		sub.Dedupe()
		out[entityName] = sub
	}
	return out
}

func lookupMapping(mapping Mapping, entity, property string) (string, bool) {
	if col, ok := mapping[property]; ok {
		return col, true
	}
	col, ok := mapping[entity+"."+property]
	return col, ok
}
