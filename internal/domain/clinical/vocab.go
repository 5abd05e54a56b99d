package clinical

import (
	"regexp"

	"github.com/remap/remap/internal/platform/mdf"
)

// Column names of the flat clinical CDE table.
const (
	ColumnProjectShortName = "Project Short Name"
	ColumnCaseID           = "Case ID"
	ColumnAgeUOM           = "Age UOM"
	ColumnAgeAtBaseline    = "Age at Baseline"
)

var (
	// RequiredColumns must be present (or supplied) before standardization.
	RequiredColumns = []string{ColumnProjectShortName, ColumnCaseID}

	// AllowableColumns is the closed set of recognized CDE headers.
	AllowableColumns = []string{
		ColumnProjectShortName, ColumnCaseID, "Race", "Ethnicity", "Sex at Birth",
		"Age at Diagnosis", "Age at Enrollment", "Age at Surgery",
		"Age at Earliest Imaging", ColumnAgeUOM, "Primary Diagnosis", "Primary Site",
	}

	// AgeColumns are the numeric columns converted to years.
	AgeColumns = []string{
		"Age at Diagnosis", "Age at Enrollment", "Age at Surgery",
		"Age at Earliest Imaging",
	}
)

// vocabColumns fixes the validation order of the categorical columns.
var vocabColumns = []string{"Race", "Ethnicity", "Sex at Birth", ColumnAgeUOM}

var vocabularies = map[string][]mdf.PermissibleValue{
	"Race": pvs(
		"American Indian or Alaska Native", "Asian", "Black or African American",
		"Native Hawaiian or Other Pacific Islander", "Not Allowed To Collect",
		"Not Reported", "Unknown", "White",
	),
	"Ethnicity": pvs(
		"Hispanic or Latino", "Not Allowed To Collect",
		"Not Hispanic or Latino", "Not Reported", "Unknown",
	),
	"Sex at Birth": pvs(
		"Don't know", "Female", "Intersex", "Male",
		"None of these describe me", "Prefer not to answer", "Unknown",
	),
	ColumnAgeUOM: pvs("Day", "Month", "Year"),
}

// ageUOMFactors converts each age unit of measure to years.
var ageUOMFactors = map[string]float64{
	"Day":   1.0 / 365,
	"Month": 1.0 / 12,
	"Year":  1,
}

var shortNameRe = regexp.MustCompile(`^[a-zA-Z0-9\s_-]{1,30}$`)

// Vocabulary returns the built-in permissible values for a column.
func Vocabulary(column string) ([]mdf.PermissibleValue, bool) {
	v, ok := vocabularies[column]
	return v, ok
}

func pvs(values ...string) []mdf.PermissibleValue {
	out := make([]mdf.PermissibleValue, len(values))
	for i, v := range values {
		out[i] = mdf.PermissibleValue{Value: v}
	}
	return out
}
