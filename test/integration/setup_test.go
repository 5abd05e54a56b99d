package integration

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/remap/remap/internal/domain/catalog"
	"github.com/remap/remap/internal/domain/remap"
	"github.com/remap/remap/internal/platform/match"
	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

// ---------------------------------------------------------------------------
// Shared fixtures
// ---------------------------------------------------------------------------

// loadArchiveModel assembles the testdata schema the way the CLI does:
// the three primary documents with the legacy value set merged underneath.
func loadArchiveModel(t *testing.T) *mdf.Model {
	t.Helper()
	model, err := mdf.Load(
		filepath.Join("testdata", "model.yml"),
		filepath.Join("testdata", "props.yml"),
		filepath.Join("testdata", "terms.yml"),
	)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	legacy, err := mdf.LoadLegacyVocabularies(filepath.Join("testdata", "cde_values.json"))
	if err != nil {
		t.Fatalf("load legacy vocabularies: %v", err)
	}
	model.MergeVocabularies(legacy)
	return model
}

func newRemapService(t *testing.T) *remap.Service {
	t.Helper()
	return remap.NewService(loadArchiveModel(t), match.New(), zerolog.Nop())
}

func readSourceTable(t *testing.T, name string) *tabular.Table {
	t.Helper()
	tbl, warnings, err := tabular.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	if len(warnings) > 0 {
		t.Fatalf("read %s: unexpected warnings: %v", name, warnings)
	}
	return tbl
}

func readExportedTSV(t *testing.T, path string) *tabular.Table {
	t.Helper()
	tbl, warnings, err := tabular.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(warnings) > 0 {
		t.Fatalf("read %s: unexpected warnings: %v", path, warnings)
	}
	return tbl
}

func cellAt(t *testing.T, tbl *tabular.Table, column string, row int) string {
	t.Helper()
	idx := tbl.ColumnIndex(column)
	if idx < 0 {
		t.Fatalf("column %q not found in %v", column, tbl.Columns)
	}
	if row >= len(tbl.Rows) {
		t.Fatalf("row %d out of range, table has %d rows", row, len(tbl.Rows))
	}
	return tbl.Rows[row][idx]
}

// sourceMapping links the submitted lung cohort columns to schema
// properties. The Dataset mapping is deliberately present only here;
// the guided-session test drops it to exercise collected metadata.
func sourceMapping() remap.Mapping {
	return remap.Mapping{
		"subject_id":        "Case ID",
		"race":              "Race",
		"ethnicity":         "Ethnicity",
		"sex_at_birth":      "Sex",
		"primary_diagnosis": "Histology",
		"primary_site":      "Site",
		"age_at_diagnosis":  "Age",
		"Dataset.dataset_short_name": "Collection",
	}
}

func testSubmission() catalog.Submission {
	return catalog.Submission{
		Program: catalog.Program{
			Name:             "University Lung Imaging Consortium",
			ShortName:        "ULIC",
			InstitutionName:  "University Imaging Center",
			ShortDescription: "Multi-site lung imaging collections.",
			FullDescription:  "Longitudinal lung screening and diagnostic imaging collections contributed by consortium sites.",
			ExternalURL:      "https://ulic.example.org",
		},
		Dataset: catalog.Dataset{
			LongName:             "Lung CT Screening Cohort 2024",
			ShortName:            "LUNG-CT-2024",
			Description:          "Low-dose CT screening series with linked clinical annotations.",
			Abstract:             "A screening cohort of adults at elevated lung cancer risk.",
			NumberOfParticipants: 120,
			DeIdentified:         "Yes",
			AdultOrChildhood:     "Adult",
		},
		Investigators: []catalog.Investigator{
			{
				FirstName:        "Ada",
				LastName:         "Byron",
				Email:            "ada.byron@example.org",
				ORCID:            "0000-0002-1825-0097",
				OrganizationName: "University Imaging Center",
			},
		},
		RelatedWorks: []catalog.RelatedWork{
			{
				DOI:              "10.1234/ulic.2024.001",
				PublicationTitle: "Low-dose CT screening outcomes in a consortium cohort",
				Authorship:       "Byron A, et al.",
				PublicationType:  "Journal Article",
			},
		},
	}
}
