package catalog

import (
	"reflect"
	"testing"

	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

func conflictModel() *mdf.Model {
	dataset := &mdf.EntitySchema{Name: "Dataset", Properties: []mdf.SchemaProperty{
		{Name: "dataset_short_name", Required: true, IsKey: true},
		{Name: "dataset_long_name"},
	}}
	subject := &mdf.EntitySchema{Name: "Subject", Properties: []mdf.SchemaProperty{
		{Name: "subject_id", Required: true, IsKey: true},
		{Name: "race"},
	}}
	return mdf.NewModel([]*mdf.EntitySchema{dataset, subject})
}

func singleColumn(name string, values ...string) *tabular.Table {
	tbl := tabular.New(name)
	for _, v := range values {
		tbl.AppendRow(v)
	}
	return tbl
}

func TestCheckMetadataConflict(t *testing.T) {
	model := conflictModel()
	meta := map[string]tabular.Record{
		"Dataset": {"dataset_short_name": "LUNG-CT-2024", "dataset_long_name": "Lung CT Screening Cohort 2024"},
	}

	tables := map[string]*tabular.Table{
		"Dataset": singleColumn("dataset_short_name", "OTHER-DS", "OTHER-DS"),
	}
	got := CheckMetadataConflict(meta, tables, model)
	want := []Conflict{{
		Entity:       "Dataset",
		Property:     "dataset_short_name",
		InitialValue: "LUNG-CT-2024",
		NewValue:     "OTHER-DS",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("conflicts = %+v, want %+v", got, want)
	}
}

func TestCheckMetadataConflictAgreement(t *testing.T) {
	model := conflictModel()
	meta := map[string]tabular.Record{
		"Dataset": {"dataset_short_name": "LUNG-CT-2024"},
	}
	tables := map[string]*tabular.Table{
		"Dataset": singleColumn("dataset_short_name", " LUNG-CT-2024 ", "LUNG-CT-2024"),
	}
	if got := CheckMetadataConflict(meta, tables, model); len(got) != 0 {
		t.Errorf("agreeing values reported as conflicts: %+v", got)
	}
}

func TestCheckMetadataConflictAmbiguousColumnSkipped(t *testing.T) {
	model := conflictModel()
	meta := map[string]tabular.Record{
		"Dataset": {"dataset_short_name": "LUNG-CT-2024"},
	}
	tables := map[string]*tabular.Table{
		"Dataset": singleColumn("dataset_short_name", "DS-A", "DS-B"),
	}
	if got := CheckMetadataConflict(meta, tables, model); len(got) != 0 {
		t.Errorf("column with several distinct values reported: %+v", got)
	}
}

func TestCheckMetadataConflictEmptyCollectedValue(t *testing.T) {
	model := conflictModel()
	meta := map[string]tabular.Record{
		"Dataset": {"dataset_short_name": ""},
	}
	tables := map[string]*tabular.Table{
		"Dataset": singleColumn("dataset_short_name", "DS-A"),
	}
	got := CheckMetadataConflict(meta, tables, model)
	if len(got) != 1 || got[0].InitialValue != "" || got[0].NewValue != "DS-A" {
		t.Errorf("conflicts = %+v, want one with empty initial value", got)
	}
}

func TestCheckMetadataConflictIgnoresNonSingletons(t *testing.T) {
	model := conflictModel()
	meta := map[string]tabular.Record{
		"Subject": {"subject_id": "PT001"},
	}
	tables := map[string]*tabular.Table{
		"Subject": singleColumn("subject_id", "PT999"),
	}
	if got := CheckMetadataConflict(meta, tables, model); len(got) != 0 {
		t.Errorf("non-singleton entity reported: %+v", got)
	}
}

func TestCheckMetadataConflictNeedsBothSides(t *testing.T) {
	model := conflictModel()
	meta := map[string]tabular.Record{
		"Dataset": {"dataset_short_name": "LUNG-CT-2024"},
	}
	if got := CheckMetadataConflict(meta, nil, model); len(got) != 0 {
		t.Errorf("missing table reported: %+v", got)
	}
	tables := map[string]*tabular.Table{
		"Dataset": singleColumn("dataset_short_name", "DS-A"),
	}
	if got := CheckMetadataConflict(nil, tables, model); len(got) != 0 {
		t.Errorf("missing metadata record reported: %+v", got)
	}
}
