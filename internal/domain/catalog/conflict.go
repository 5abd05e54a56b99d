package catalog

import (
	"strings"

	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

// Conflict reports a singleton metadata value that disagrees with what
// the mapped source data carries for the same property.
type Conflict struct {
	Entity       string
	Property     string
	InitialValue string // value collected in the metadata form
	NewValue     string // value observed in the mapped column
}

// CheckMetadataConflict compares each collected singleton record with
// its split table. When a mapped column holds exactly one distinct
// value and that value differs from the collected one, the pair is
// reported so the user can decide which wins; columns with zero or
// several distinct values are left for validation to sort out.
func CheckMetadataConflict(meta map[string]tabular.Record, tables map[string]*tabular.Table, model *mdf.Model) []Conflict {
	var out []Conflict
	for _, entity := range model.EntityNames() {
		if !model.IsSingleton(entity) {
			continue
		}
		rec, ok := meta[entity]
		if !ok {
			continue
		}
		tbl, ok := tables[entity]
		if !ok {
			continue
		}
		ent, _ := model.Entity(entity)
		for _, p := range ent.Properties {
			if !tbl.HasColumn(p.Name) {
				continue
			}
			distinct := tbl.DistinctTrimmed(p.Name)
			if len(distinct) != 1 {
				continue
			}
			metaVal := strings.TrimSpace(rec[p.Name])
			if distinct[0] == metaVal {
				continue
			}
			out = append(out, Conflict{
				Entity:       entity,
				Property:     p.Name,
				InitialValue: metaVal,
				NewValue:     distinct[0],
			})
		}
	}
	return out
}
