package remap

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

// WriteEntityTSV serializes one entity's records to
// {entity_lowercased}.tsv under dir. Columns follow the schema's
// declared property order exactly, whatever order or subset of
// properties the records carry; absent properties are written empty.
// Re-running for the same entity overwrites the prior file. An entity
// with no declared schema produces no file and no error: the returned
// path is empty.
func WriteEntityTSV(dir, entity string, records []tabular.Record, model *mdf.Model) (string, error) {
	ent, ok := model.Entity(entity)
	if !ok || len(ent.Properties) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	cols := ent.PropertyNames()
	out := tabular.New(cols...)
	for _, rec := range records {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = rec[c]
		}
		out.Rows = append(out.Rows, cells)
	}
	path := filepath.Join(dir, strings.ToLower(entity)+".tsv")
	if err := tabular.WriteTSVFile(path, out); err != nil {
		return "", err
	}
	return path, nil
}
