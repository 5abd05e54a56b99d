// Package clinical standardizes flat clinical tables against the fixed
// common-data-element set: recognized headers are canonicalized,
// categorical values validated against built-in vocabularies, ages
// converted to years, and an Age at Baseline column derived per row.
package clinical

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/remap/remap/internal/platform/match"
	"github.com/remap/remap/internal/platform/tabular"
)

// CorrectionMap records pending value substitutions per column.
type CorrectionMap map[string]map[string]string

// Add records one substitution for a column.
func (c CorrectionMap) Add(column, from, to string) {
	if c[column] == nil {
		c[column] = map[string]string{}
	}
	c[column][from] = to
}

// Result is the outcome of one standardization pass.
type Result struct {
	// Table is the standardized copy of the input.
	Table *tabular.Table
	// Report lists every condition needing user attention.
	Report []string
	// Corrections holds suggested substitutions for invalid values.
	Corrections CorrectionMap
	// CaseFixes audits the case-only normalizations already applied.
	CaseFixes CorrectionMap
	// RemovedRows are the input data-row indices dropped as duplicates.
	RemovedRows []int
	// Renamed maps original headers to their canonical spelling.
	Renamed map[string]string
	// Unexpected lists headers outside the recognized CDE set.
	Unexpected []string
}

// Clean reports whether the pass found nothing needing user attention.
func (r *Result) Clean() bool {
	return len(r.Report) == 0 && len(r.Corrections) == 0
}

type options struct {
	projectShortName string
	ageUOM           string
}

// Option adjusts one standardization pass.
type Option func(*options)

// WithProjectShortName supplies a value for a missing Project Short
// Name column; every row receives it.
func WithProjectShortName(name string) Option {
	return func(o *options) { o.projectShortName = name }
}

// WithAgeUOM supplies a unit for a missing Age UOM column when age
// columns are present.
func WithAgeUOM(uom string) Option {
	return func(o *options) { o.ageUOM = uom }
}

// Service runs the clinical standardization pipeline.
type Service struct {
	matcher *match.Matcher
	logger  zerolog.Logger
}

// NewService constructs a clinical standardization service.
func NewService(matcher *match.Matcher, logger zerolog.Logger) *Service {
	return &Service{matcher: matcher, logger: logger}
}

// Standardize runs the pipeline over a copy of tbl: cells are trimmed,
// recognized headers canonicalized, case-only value fixes applied,
// duplicate rows dropped, categorical and numeric values validated,
// ages converted to years, and Age at Baseline derived as the row
// minimum of the converted ages. The input table is never modified;
// invalid values are reported but left in place so the caller can
// collect corrections and run again.
func (s *Service) Standardize(tbl *tabular.Table, opts ...Option) (*Result, error) {
	if tbl == nil {
		return nil, fmt.Errorf("source table is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	out := tbl.Clone()
	trimCells(out)

	res := &Result{
		Table:       out,
		Corrections: CorrectionMap{},
		CaseFixes:   CorrectionMap{},
		Renamed:     map[string]string{},
	}
	s.renameColumns(out, res)

	if !out.HasColumn(ColumnCaseID) {
		return nil, fmt.Errorf("required column '%s' is missing", ColumnCaseID)
	}
	if err := s.ensureProjectShortName(out, o.projectShortName); err != nil {
		return nil, err
	}
	if err := s.ensureAgeUOM(out, o.ageUOM); err != nil {
		return nil, err
	}

	s.fixCategoricalCase(out, res)

	if removed := out.Dedupe(); len(removed) > 0 {
		res.RemovedRows = removed
		res.Report = append(res.Report, fmt.Sprintf("Removed %d duplicate rows: %s", len(removed), formatIndices(removed)))
		s.logger.Debug().Int("rows", len(removed)).Msg("dropped duplicate clinical rows")
	}

	s.validateCategoricals(out, res)
	s.validateShortNames(out, res)
	s.checkAgeColumns(out, res)
	s.deriveAgeAtBaseline(out)

	s.logger.Debug().
		Int("rows", len(out.Rows)).
		Int("issues", len(res.Report)).
		Msg("standardized clinical table")
	return res, nil
}

// Apply returns a copy of tbl with every correction applied as an
// exact-value substitution. Cells are trimmed and recognized headers
// canonicalized first, the same way Standardize starts, so corrections
// collected from a pass land on the raw source. Applying the same
// corrections twice is a no-op.
func Apply(tbl *tabular.Table, corrections CorrectionMap) *tabular.Table {
	out := tbl.Clone()
	trimCells(out)
	canonical := canonicalHeaders()
	for i, col := range out.Columns {
		if want, ok := canonical[strings.ToLower(col)]; ok {
			out.Columns[i] = want
		}
	}
	for column, subs := range corrections {
		idx := out.ColumnIndex(column)
		if idx < 0 {
			continue
		}
		for _, row := range out.Rows {
			if to, ok := subs[row[idx]]; ok {
				row[idx] = to
			}
		}
	}
	return out
}

// canonicalHeaders maps lowercased allowable column names to their
// canonical spelling.
func canonicalHeaders() map[string]string {
	m := make(map[string]string, len(AllowableColumns))
	for _, c := range AllowableColumns {
		m[strings.ToLower(c)] = c
	}
	return m
}

// renameColumns canonicalizes header spelling case-insensitively
// against the allowable set and collects the leftovers.
func (s *Service) renameColumns(tbl *tabular.Table, res *Result) {
	canonical := canonicalHeaders()
	for i, col := range tbl.Columns {
		want, ok := canonical[strings.ToLower(col)]
		if !ok {
			res.Unexpected = append(res.Unexpected, col)
			continue
		}
		if col != want {
			tbl.Columns[i] = want
			res.Renamed[col] = want
			s.logger.Info().Str("from", col).Str("to", want).Msg("renamed clinical column")
		}
	}
}

func (s *Service) ensureProjectShortName(tbl *tabular.Table, name string) error {
	if tbl.HasColumn(ColumnProjectShortName) {
		return nil
	}
	if name == "" {
		return fmt.Errorf("required column '%s' is missing", ColumnProjectShortName)
	}
	if !shortNameRe.MatchString(name) {
		return fmt.Errorf("invalid project short name %q", name)
	}
	fillColumn(tbl, ColumnProjectShortName, name)
	return nil
}

func (s *Service) ensureAgeUOM(tbl *tabular.Table, uom string) error {
	if tbl.HasColumn(ColumnAgeUOM) || !hasAgeColumns(tbl) {
		return nil
	}
	if uom == "" {
		return fmt.Errorf("column '%s' is required when age columns are present", ColumnAgeUOM)
	}
	if _, ok := ageUOMFactors[uom]; !ok {
		return fmt.Errorf("invalid age unit %q", uom)
	}
	fillColumn(tbl, ColumnAgeUOM, uom)
	return nil
}

// fixCategoricalCase rewrites cells whose value matches a vocabulary
// entry up to case and padding. Fixes are audited, never reported.
func (s *Service) fixCategoricalCase(tbl *tabular.Table, res *Result) {
	for _, col := range vocabColumns {
		idx := tbl.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		vocab := vocabularies[col]
		for _, row := range tbl.Rows {
			raw := row[idx]
			fixed, ok := s.matcher.CanonicalCase(raw, vocab)
			if !ok {
				continue
			}
			if _, seen := res.CaseFixes[col][raw]; !seen {
				s.logger.Info().
					Str("column", col).
					Str("from", raw).
					Str("to", fixed).
					Msg("case-normalized value")
			}
			res.CaseFixes.Add(col, raw, fixed)
			row[idx] = fixed
		}
	}
}

func (s *Service) validateCategoricals(tbl *tabular.Table, res *Result) {
	for _, col := range vocabColumns {
		if !tbl.HasColumn(col) {
			continue
		}
		vocab := vocabularies[col]
		for _, val := range tbl.Distinct(col) {
			if s.matcher.IsValid(val, vocab) {
				continue
			}
			if pv, ok := s.matcher.ClosestMatch(val, vocab); ok {
				res.Corrections.Add(col, val, pv.Value)
				res.Report = append(res.Report, fmt.Sprintf("Column '%s': '%s' -> Suggested: '%s'", col, val, pv.Value))
			} else {
				res.Report = append(res.Report, fmt.Sprintf("Column '%s': '%s' -> No close match found.", col, val))
			}
		}
	}
}

func (s *Service) validateShortNames(tbl *tabular.Table, res *Result) {
	if !tbl.HasColumn(ColumnProjectShortName) {
		return
	}
	for _, val := range tbl.Distinct(ColumnProjectShortName) {
		if shortNameRe.MatchString(val) {
			continue
		}
		res.Report = append(res.Report, fmt.Sprintf("Column '%s': '%s' -> Invalid short name.", ColumnProjectShortName, val))
	}
}

// checkAgeColumns reports non-numeric age values. The values stay in
// place; deriveAgeAtBaseline skips whatever does not parse.
func (s *Service) checkAgeColumns(tbl *tabular.Table, res *Result) {
	for _, col := range AgeColumns {
		if !tbl.HasColumn(col) {
			continue
		}
		for _, val := range tbl.Distinct(col) {
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				res.Report = append(res.Report, fmt.Sprintf("Column '%s': '%s' -> Not a number.", col, val))
			}
		}
	}
}

// deriveAgeAtBaseline converts every parseable age to years using the
// row's Age UOM and writes the row minimum into Age at Baseline. Rows
// whose unit is unrecognized keep their ages untouched and get no
// baseline.
func (s *Service) deriveAgeAtBaseline(tbl *tabular.Table) {
	baseIdx := tbl.ColumnIndex(ColumnAgeAtBaseline)
	if baseIdx < 0 {
		fillColumn(tbl, ColumnAgeAtBaseline, "")
		baseIdx = len(tbl.Columns) - 1
	} else {
		for _, row := range tbl.Rows {
			row[baseIdx] = ""
		}
	}

	uomIdx := tbl.ColumnIndex(ColumnAgeUOM)
	if uomIdx < 0 {
		return
	}
	var ageIdx []int
	for _, col := range AgeColumns {
		if i := tbl.ColumnIndex(col); i >= 0 {
			ageIdx = append(ageIdx, i)
		}
	}
	if len(ageIdx) == 0 {
		return
	}

	for _, row := range tbl.Rows {
		factor, ok := ageUOMFactors[row[uomIdx]]
		if !ok {
			continue
		}
		min := math.NaN()
		for _, i := range ageIdx {
			if row[i] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				continue
			}
			years := v * factor
			row[i] = formatYears(years)
			if math.IsNaN(min) || years < min {
				min = years
			}
		}
		if !math.IsNaN(min) {
			row[baseIdx] = formatYears(min)
		}
	}
}

func hasAgeColumns(tbl *tabular.Table) bool {
	for _, col := range AgeColumns {
		if tbl.HasColumn(col) {
			return true
		}
	}
	return false
}

func fillColumn(tbl *tabular.Table, name, value string) {
	tbl.Columns = append(tbl.Columns, name)
	for i := range tbl.Rows {
		tbl.Rows[i] = append(tbl.Rows[i], value)
	}
}

func trimCells(tbl *tabular.Table) {
	for _, row := range tbl.Rows {
		for i, v := range row {
			row[i] = strings.TrimSpace(v)
		}
	}
}

func formatYears(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
