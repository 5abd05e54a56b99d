package remap

import (
	"fmt"

	"github.com/remap/remap/internal/platform/match"
	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

// Report is the ordered list of human-readable issues found in one
// entity's table, one line per distinct invalid value.
type Report []string

// CorrectionMap holds, per column, old-value to new-value substitutions.
type CorrectionMap map[string]map[string]string

// Add records one substitution.
func (c CorrectionMap) Add(column, from, to string) {
	m, ok := c[column]
	if !ok {
		m = make(map[string]string)
		c[column] = m
	}
	m[from] = to
}

// Empty reports whether the map holds no substitutions.
func (c CorrectionMap) Empty() bool {
	for _, m := range c {
		if len(m) > 0 {
			return false
		}
	}
	return true
}

// Result is the outcome of validating one entity's table. Corrections
// are proposals that need human review; CaseFixes are canonical-
// capitalization rewrites safe to apply silently, kept out of the
// report and logged for audit instead.
type Result struct {
	Entity      string
	Report      Report
	Corrections CorrectionMap
	CaseFixes   CorrectionMap
}

// Clean reports whether validation found nothing to report or fix.
func (r Result) Clean() bool {
	return len(r.Report) == 0 && r.Corrections.Empty() && r.CaseFixes.Empty()
}

// Validate checks every column of the table that is both a declared
// property of the entity and backed by a vocabulary; free-text and
// numeric columns are left alone. Each distinct value is checked once,
// however many rows it occurs in. The table is never modified:
// corrections come back as instructions, and applying them is the
// caller's explicit next step.
func Validate(tbl *tabular.Table, entity string, model *mdf.Model, m *match.Matcher) Result {
	res := Result{
		Entity:      entity,
		Corrections: CorrectionMap{},
		CaseFixes:   CorrectionMap{},
	}
	ent, ok := model.Entity(entity)
	if !ok {
		return res
	}
	for _, col := range tbl.Columns {
		if !ent.HasProperty(col) {
			continue
		}
		vocab := model.Vocabulary(col)
		if vocab == nil {
			continue
		}
		for _, val := range tbl.Distinct(col) {
			if m.IsValid(val, vocab) {
				if fixed, ok := m.CanonicalCase(val, vocab); ok {
					res.CaseFixes.Add(col, val, fixed)
				}
				continue
			}
			if pv, ok := m.ClosestMatch(val, vocab); ok {
				res.Corrections.Add(col, val, pv.Value)
				res.Report = append(res.Report, fmt.Sprintf("Column '%s': '%s' -> Suggested: '%s'", col, val, pv.Value))
			} else {
				res.Report = append(res.Report, fmt.Sprintf("Column '%s': '%s' -> No close match found.", col, val))
			}
		}
	}
	return res
}
