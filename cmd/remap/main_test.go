package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/remap/remap/internal/config"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// ---------------------------------------------------------------------------
// readMapping tests
// ---------------------------------------------------------------------------

func TestReadMapping_ParsesPairs(t *testing.T) {
	path := writeTempFile(t, "mapping.yaml", "Subject.race: Race\nSubject.subject_name: Participant\n")

	mapping, err := readMapping(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mapping) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(mapping))
	}
	if mapping["Subject.race"] != "Race" {
		t.Errorf("Subject.race = %q, want %q", mapping["Subject.race"], "Race")
	}
	if mapping["Subject.subject_name"] != "Participant" {
		t.Errorf("Subject.subject_name = %q, want %q", mapping["Subject.subject_name"], "Participant")
	}
}

func TestReadMapping_EmptyDocument(t *testing.T) {
	path := writeTempFile(t, "mapping.yaml", "")
	if _, err := readMapping(path); err == nil {
		t.Fatal("expected error for empty mapping, got nil")
	}
}

func TestReadMapping_MissingPath(t *testing.T) {
	if _, err := readMapping(""); err == nil {
		t.Fatal("expected error for missing path, got nil")
	}
}

func TestReadMapping_NotAMapping(t *testing.T) {
	path := writeTempFile(t, "mapping.yaml", "- one\n- two\n")
	if _, err := readMapping(path); err == nil {
		t.Fatal("expected error for a YAML sequence, got nil")
	}
}

// ---------------------------------------------------------------------------
// readSubmission tests
// ---------------------------------------------------------------------------

func TestReadSubmission_ParsesJSON(t *testing.T) {
	path := writeTempFile(t, "submission.json", `{
  "program": {
    "program_name": "Community",
    "program_short_name": "Community",
    "program_short_description": "Community-contributed imaging collections"
  },
  "dataset": {
    "dataset_long_name": "Lung CT Screening 2024",
    "dataset_short_name": "LUNG-CT-2024"
  },
  "investigators": [
    {"first_name": "Ada", "last_name": "Byron"}
  ]
}`)

	sub, err := readSubmission(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Program.ShortName != "Community" {
		t.Errorf("program short name = %q, want %q", sub.Program.ShortName, "Community")
	}
	if sub.Dataset.ShortName != "LUNG-CT-2024" {
		t.Errorf("dataset short name = %q, want %q", sub.Dataset.ShortName, "LUNG-CT-2024")
	}
	if len(sub.Investigators) != 1 || sub.Investigators[0].LastName != "Byron" {
		t.Errorf("investigators = %+v, want one entry for Byron", sub.Investigators)
	}
}

func TestReadSubmission_MalformedJSON(t *testing.T) {
	path := writeTempFile(t, "submission.json", "{not json")
	if _, err := readSubmission(path); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestReadSubmission_MissingFile(t *testing.T) {
	if _, err := readSubmission(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for a missing file, got nil")
	}
}

// ---------------------------------------------------------------------------
// readSource tests
// ---------------------------------------------------------------------------

func TestReadSource_MissingPath(t *testing.T) {
	if _, err := readSource("", zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing path, got nil")
	}
}

func TestReadSource_ReadsTSV(t *testing.T) {
	path := writeTempFile(t, "data.tsv", "Participant\tRace\nSUBJ-01\tWhite\n")

	tbl, err := readSource(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Columns) != 2 {
		t.Errorf("expected 2 columns, got %d", len(tbl.Columns))
	}
	if len(tbl.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(tbl.Rows))
	}
}

// ---------------------------------------------------------------------------
// loadModel tests
// ---------------------------------------------------------------------------

func TestLoadModel_LegacyOnly(t *testing.T) {
	path := writeTempFile(t, "values.json", `{"race": ["White", "Asian"]}`)
	cfg := &config.Config{LegacyValuesFile: path}

	model, err := loadModel(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.EntityNames()) != 0 {
		t.Errorf("expected no entities in legacy mode, got %v", model.EntityNames())
	}
	if got := len(model.Vocabulary("race")); got != 2 {
		t.Errorf("expected 2 race values, got %d", got)
	}
}

func TestLoadModel_LegacyFileUnreadable(t *testing.T) {
	cfg := &config.Config{LegacyValuesFile: filepath.Join(t.TempDir(), "absent.json")}
	if _, err := loadModel(cfg); err == nil {
		t.Fatal("expected error for a missing legacy file, got nil")
	}
}

func TestLoadModel_CustomSingletons(t *testing.T) {
	path := writeTempFile(t, "values.json", `{}`)
	cfg := &config.Config{
		LegacyValuesFile:  path,
		SingletonEntities: []string{"Dataset"},
	}

	model, err := loadModel(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.IsSingleton("Program") {
		t.Error("Program should not be a singleton when the list is overridden")
	}
	if !model.IsSingleton("Dataset") {
		t.Error("Dataset should be a singleton")
	}
}
