package remap

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/remap/remap/internal/platform/match"
	"github.com/remap/remap/internal/platform/tabular"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(testModel(t), match.New(), zerolog.Nop())
}

func TestServiceSplitGuards(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Split(nil, sampleMapping()); err == nil {
		t.Error("nil source must be rejected")
	}
	if _, err := svc.Split(sampleSource(), nil); err == nil {
		t.Error("empty mapping must be rejected")
	}
}

func TestServiceExportGuards(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Export("", nil); err == nil {
		t.Error("empty destination must be rejected")
	}
}

func TestServicePipeline(t *testing.T) {
	svc := newTestService(t)

	src := tabular.New("PatientID", "Gender", "DiagnosisName", "RaceInfo")
	src.AppendRow("PT001", "Male", "Glioblastma", "white")
	src.AppendRow("PT002", "Femle", "Glioblastoma", "Asian")

	tables, err := svc.Split(src, Mapping{
		"Subject.subject_id":          "PatientID",
		"Subject.sex_at_birth":        "Gender",
		"Subject.race":                "RaceInfo",
		"Diagnosis.primary_diagnosis": "DiagnosisName",
	})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	results := svc.ValidateAll(tables)

	// Typos draw suggestions, case variants draw silent fixes.
	if got := results["Subject"].Corrections["sex_at_birth"]["Femle"]; got != "Female" {
		t.Errorf("sex correction = %q, want Female", got)
	}
	if got := results["Subject"].CaseFixes["race"]["white"]; got != "White" {
		t.Errorf("race case fix = %q, want White", got)
	}
	if got := results["Diagnosis"].Corrections["primary_diagnosis"]["Glioblastma"]; got != "Glioblastoma" {
		t.Errorf("diagnosis correction = %q, want Glioblastoma", got)
	}

	corrected := svc.ApplyAll(tables, results)
	if got := corrected["Subject"].Column("sex_at_birth"); got[1] != "Female" {
		t.Errorf("corrected sex_at_birth = %v", got)
	}
	if got := corrected["Subject"].Column("race"); got[0] != "White" {
		t.Errorf("corrected race = %v", got)
	}
	// Originals stay as split.
	if got := tables["Subject"].Column("race"); got[0] != "white" {
		t.Errorf("ApplyAll mutated the input tables: %v", got)
	}

	dir := t.TempDir()
	paths, err := svc.Export(dir, corrected)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("exported %d files, want 2: %v", len(paths), paths)
	}
	// Files come out in schema entity order, skipping entities that
	// were never split.
	if filepath.Base(paths[0]) != "subject.tsv" || filepath.Base(paths[1]) != "diagnosis.tsv" {
		t.Errorf("export order/names = %v", paths)
	}

	out, _, err := tabular.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read exported subject.tsv: %v", err)
	}
	raceIdx := out.ColumnIndex("race")
	if out.Rows[0][raceIdx] != "White" {
		t.Errorf("exported race = %q, want corrected White", out.Rows[0][raceIdx])
	}
}

func TestServiceValidateEntity(t *testing.T) {
	svc := newTestService(t)
	tbl := tabular.New("primary_site")
	tbl.AppendRow("Lng")

	res := svc.ValidateEntity(tbl, "Diagnosis")
	if got := res.Corrections["primary_site"]["Lng"]; got != "Lung" {
		t.Errorf("correction = %q, want Lung", got)
	}
}
