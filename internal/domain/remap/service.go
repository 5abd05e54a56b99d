package remap

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/remap/remap/internal/platform/match"
	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

// Service drives the standardization pipeline over one loaded model:
// split, validate, apply, export. The model is read-only, so a single
// Service is safe to share.
type Service struct {
	model   *mdf.Model
	matcher *match.Matcher
	logger  zerolog.Logger
}

// NewService creates a new remapping service.
func NewService(model *mdf.Model, matcher *match.Matcher, logger zerolog.Logger) *Service {
	return &Service{model: model, matcher: matcher, logger: logger}
}

// Model returns the schema bundle the service runs against.
func (s *Service) Model() *mdf.Model { return s.model }

// Split partitions the source table into per-entity tables per the
// column mapping.
func (s *Service) Split(src *tabular.Table, mapping Mapping) (map[string]*tabular.Table, error) {
	if src == nil {
		return nil, fmt.Errorf("source table is required")
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("column mapping is required")
	}
	tables := Split(src, mapping, s.model)
	for name, tbl := range tables {
		s.logger.Debug().
			Str("entity", name).
			Int("rows", len(tbl.Rows)).
			Int("duplicates_dropped", len(src.Rows)-len(tbl.Rows)).
			Msg("split entity table")
	}
	return tables, nil
}

// ValidateEntity validates one split table against the schema
// vocabularies. Nothing is modified; corrections come back as
// instructions.
func (s *Service) ValidateEntity(tbl *tabular.Table, entity string) Result {
	res := Validate(tbl, entity, s.model, s.matcher)
	s.logCaseFixes(res)
	return res
}

// ValidateAll validates every split table.
func (s *Service) ValidateAll(tables map[string]*tabular.Table) map[string]Result {
	results := make(map[string]Result, len(tables))
	for name, tbl := range tables {
		res := Validate(tbl, name, s.model, s.matcher)
		s.logCaseFixes(res)
		if n := len(res.Report); n > 0 {
			s.logger.Debug().Str("entity", name).Int("issues", n).Msg("validation issues found")
		}
		results[name] = res
	}
	return results
}

// ApplyAll applies each entity's case fixes and corrections, returning
// corrected copies. Entities without a result pass through as copies.
func (s *Service) ApplyAll(tables map[string]*tabular.Table, results map[string]Result) map[string]*tabular.Table {
	out := make(map[string]*tabular.Table, len(tables))
	for name, tbl := range tables {
		res, ok := results[name]
		if !ok {
			out[name] = tbl.Clone()
			continue
		}
		corrected := Apply(tbl, res.CaseFixes)
		out[name] = Apply(corrected, res.Corrections)
	}
	return out
}

// Export writes every entity table under dir in schema entity order and
// returns the written file paths.
func (s *Service) Export(dir string, tables map[string]*tabular.Table) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("destination directory is required")
	}
	var paths []string
	for _, name := range s.model.EntityNames() {
		tbl, ok := tables[name]
		if !ok {
			continue
		}
		path, err := WriteEntityTSV(dir, name, tbl.Records(), s.model)
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		if path == "" {
			continue
		}
		s.logger.Info().Str("entity", name).Str("path", path).Msg("wrote metadata table")
		paths = append(paths, path)
	}
	return paths, nil
}

// logCaseFixes records silent capitalization rewrites so the user can
// audit what changed without them appearing as validation errors.
func (s *Service) logCaseFixes(res Result) {
	for col, subs := range res.CaseFixes {
		for from, to := range subs {
			s.logger.Info().
				Str("entity", res.Entity).
				Str("column", col).
				Str("from", from).
				Str("to", to).
				Msg("case-normalized value")
		}
	}
}
