// Package wizard drives one submission through the guided phases:
// collect dataset-level metadata, map source columns onto the schema,
// standardize values, and export the per-entity tables.
package wizard

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/remap/remap/internal/domain/catalog"
	"github.com/remap/remap/internal/domain/linkage"
	"github.com/remap/remap/internal/domain/remap"
	"github.com/remap/remap/internal/platform/mdf"
	"github.com/remap/remap/internal/platform/tabular"
)

// Phase is one step of the submission wizard.
type Phase int

// Wizard phases, in order.
const (
	PhaseMetadata Phase = iota
	PhaseMapping
	PhaseValidation
	PhaseExport
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseMetadata:
		return "metadata"
	case PhaseMapping:
		return "mapping"
	case PhaseValidation:
		return "validation"
	case PhaseExport:
		return "export"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session carries one submission through the wizard. Phases advance
// strictly forward; calling a step out of order returns an error. A
// Session is not safe for concurrent use.
type Session struct {
	id       string
	phase    Phase
	remapper *remap.Service
	logger   zerolog.Logger

	submission  catalog.Submission
	source      *tabular.Table
	mapping     remap.Mapping
	tables      map[string]*tabular.Table
	results     map[string]remap.Result
	conflicts   []catalog.Conflict
	missing     []linkage.MissingLink
	resolutions []linkage.Resolution
}

// NewSession starts a fresh session in the metadata phase.
func NewSession(remapper *remap.Service, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:       id,
		phase:    PhaseMetadata,
		remapper: remapper,
		logger:   logger.With().Str("session", id).Logger(),
	}
}

// ID returns the identifier used to namespace this session's export.
func (s *Session) ID() string { return s.id }

// Phase returns the phase the session is currently in.
func (s *Session) Phase() Phase { return s.phase }

// Submission returns the collected dataset-level metadata.
func (s *Session) Submission() catalog.Submission { return s.submission }

// Mapping returns the confirmed column mapping.
func (s *Session) Mapping() remap.Mapping { return s.mapping }

// MappableTargets lists the dotted entity.property names a source
// column may be mapped onto.
func (s *Session) MappableTargets() []string {
	return s.remapper.Model().MappableProperties()
}

// Tables returns the split entity tables as of the last mapping or
// correction step.
func (s *Session) Tables() map[string]*tabular.Table { return s.tables }

// Results returns the validation results from the last RunValidation,
// or nil if corrections were applied since.
func (s *Session) Results() map[string]remap.Result { return s.results }

// Conflicts returns discrepancies between the collected metadata and
// the mapped data, found when the mapping was confirmed. Advisory: the
// session proceeds either way.
func (s *Session) Conflicts() []catalog.Conflict { return s.conflicts }

// MissingLinks returns parent references the exported tables could not
// satisfy. Populated by Export.
func (s *Session) MissingLinks() []linkage.MissingLink { return s.missing }

// Resolutions returns the linkage columns Export filled from collected
// singleton metadata.
func (s *Session) Resolutions() []linkage.Resolution { return s.resolutions }

// SetSubmission records the dataset-level metadata and advances to the
// mapping phase. The submission must validate.
func (s *Session) SetSubmission(sub catalog.Submission) error {
	if s.phase != PhaseMetadata {
		return fmt.Errorf("submission metadata cannot change in the %s phase", s.phase)
	}
	if err := sub.Validate(); err != nil {
		return err
	}
	s.submission = sub
	s.phase = PhaseMapping
	s.logger.Info().
		Str("program", sub.Program.ShortName).
		Str("dataset", sub.Dataset.ShortName).
		Msg("collected submission metadata")
	return nil
}

// SetSource stages the uploaded source table for mapping.
func (s *Session) SetSource(src *tabular.Table) error {
	if s.phase != PhaseMapping {
		return fmt.Errorf("the source table cannot change in the %s phase", s.phase)
	}
	if src == nil || len(src.Columns) == 0 {
		return fmt.Errorf("source table is required")
	}
	s.source = src
	s.logger.Info().
		Int("columns", len(src.Columns)).
		Int("rows", len(src.Rows)).
		Msg("staged source table")
	return nil
}

// SetMapping confirms the column mapping: the source is split into
// per-entity tables, compared against the collected metadata, and the
// session advances to the validation phase. Entries mapping a target
// to no source column are dropped, which skips that target.
func (s *Session) SetMapping(mapping remap.Mapping) error {
	if s.phase != PhaseMapping {
		return fmt.Errorf("the column mapping cannot change in the %s phase", s.phase)
	}
	if s.source == nil {
		return fmt.Errorf("source table is required")
	}
	pruned := make(remap.Mapping, len(mapping))
	for target, col := range mapping {
		if strings.TrimSpace(col) == "" {
			continue
		}
		pruned[target] = col
	}
	if err := s.checkMapping(pruned); err != nil {
		return err
	}
	tables, err := s.remapper.Split(s.source, pruned)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("mapping matches no schema property")
	}
	s.mapping = pruned
	s.tables = tables
	s.conflicts = catalog.CheckMetadataConflict(s.metadataRecords(), tables, s.remapper.Model())
	for _, c := range s.conflicts {
		s.logger.Warn().
			Str("entity", c.Entity).
			Str("property", c.Property).
			Str("collected", c.InitialValue).
			Str("mapped", c.NewValue).
			Msg("mapped data disagrees with collected metadata")
	}
	s.phase = PhaseValidation
	s.logger.Info().
		Int("mapped_columns", len(pruned)).
		Int("entities", len(tables)).
		Msg("confirmed column mapping")
	return nil
}

// RunValidation validates every split table and stores the results. It
// may be called repeatedly, re-checking whatever AcceptCorrections last
// produced.
func (s *Session) RunValidation() (map[string]remap.Result, error) {
	if s.phase != PhaseValidation {
		return nil, fmt.Errorf("validation cannot run in the %s phase", s.phase)
	}
	s.results = s.remapper.ValidateAll(s.tables)
	issues := 0
	for _, res := range s.results {
		issues += len(res.Report)
	}
	s.logger.Info().
		Int("entities", len(s.results)).
		Int("issues", issues).
		Msg("validated entity tables")
	return s.results, nil
}

// AcceptCorrections applies every suggested correction and case fix to
// the split tables. Validation must run again afterwards to confirm
// the tables came out clean.
func (s *Session) AcceptCorrections() error {
	if s.phase != PhaseValidation {
		return fmt.Errorf("corrections cannot apply in the %s phase", s.phase)
	}
	if s.results == nil {
		return fmt.Errorf("run validation first")
	}
	s.tables = s.remapper.ApplyAll(s.tables, s.results)
	s.results = nil
	s.logger.Info().Int("entities", len(s.tables)).Msg("applied suggested corrections")
	return nil
}

// Export writes the collected metadata and the standardized entity
// tables under baseDir, namespaced by session id so concurrent
// sessions never collide. Linkage columns a collected singleton can
// satisfy are filled; anything still unlinked is reported through
// MissingLinks. On success the session is done; a failed export leaves
// the session in the export phase so it can be retried.
func (s *Session) Export(baseDir string) ([]string, error) {
	if s.phase != PhaseValidation && s.phase != PhaseExport {
		return nil, fmt.Errorf("export cannot run in the %s phase", s.phase)
	}
	if s.results == nil {
		return nil, fmt.Errorf("run validation first")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("destination directory is required")
	}
	s.phase = PhaseExport

	model := s.remapper.Model()
	all := make(map[string]*tabular.Table, len(s.tables))
	for name, tbl := range s.tables {
		all[name] = tbl.Clone()
	}
	for entity, records := range s.submission.Records() {
		if _, ok := all[entity]; ok {
			continue
		}
		ent, ok := model.Entity(entity)
		if !ok || len(ent.Properties) == 0 {
			continue
		}
		all[entity] = tableFromRecords(ent, records)
	}

	s.missing = linkage.Check(all, model)
	for _, m := range s.missing {
		s.logger.Warn().
			Str("entity", m.Entity).
			Str("target", m.TargetEntity).
			Str("property", m.Property).
			Msg("entity table lacks its parent linkage column")
	}
	s.resolutions = linkage.ResolveSingletons(all, model)
	for _, r := range s.resolutions {
		s.logger.Info().
			Str("entity", r.Entity).
			Str("property", r.Property).
			Str("value", r.Value).
			Msg("filled linkage from collected metadata")
	}

	dir := filepath.Join(baseDir, s.id)
	paths, err := s.remapper.Export(dir, all)
	if err != nil {
		return nil, err
	}
	s.phase = PhaseDone
	s.logger.Info().Str("dir", dir).Int("files", len(paths)).Msg("session export complete")
	return paths, nil
}

// Reset abandons all collected state and returns the session to the
// metadata phase. The identifier is kept, so a later export replaces
// whatever an earlier run of the same session wrote.
func (s *Session) Reset() {
	s.phase = PhaseMetadata
	s.submission = catalog.Submission{}
	s.source = nil
	s.mapping = nil
	s.tables = nil
	s.results = nil
	s.conflicts = nil
	s.missing = nil
	s.resolutions = nil
	s.logger.Info().Msg("session reset")
}

// metadataRecords reduces the collected bundle to one record per
// entity for the conflict check. Only singleton entities are compared
// there, and each carries exactly one collected record.
func (s *Session) metadataRecords() map[string]tabular.Record {
	out := map[string]tabular.Record{}
	for entity, records := range s.submission.Records() {
		if len(records) > 0 {
			out[entity] = records[0]
		}
	}
	return out
}

// checkMapping rejects targets that resolve to nothing in the model
// and source columns the staged table does not carry.
func (s *Session) checkMapping(mapping remap.Mapping) error {
	model := s.remapper.Model()
	var bad []string
	for target, col := range mapping {
		if !targetKnown(model, target) {
			bad = append(bad, fmt.Sprintf("unknown target %q", target))
		}
		if !s.source.HasColumn(col) {
			bad = append(bad, fmt.Sprintf("source column %q not found", col))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("invalid mapping: %s", strings.Join(bad, "; "))
}

// targetKnown mirrors the split lookup: a bare property name anywhere
// in the model wins, then the entity-qualified form. Linkage property
// names contain dots themselves, so the bare check runs first.
func targetKnown(model *mdf.Model, target string) bool {
	for _, name := range model.EntityNames() {
		if ent, ok := model.Entity(name); ok && ent.HasProperty(target) {
			return true
		}
	}
	if entity, prop, found := strings.Cut(target, "."); found {
		ent, ok := model.Entity(entity)
		return ok && ent.HasProperty(prop)
	}
	return false
}

// tableFromRecords lays collected records out as a table carrying the
// entity's full column set, ready for linkage resolution and export.
func tableFromRecords(ent *mdf.EntitySchema, records []tabular.Record) *tabular.Table {
	cols := ent.PropertyNames()
	tbl := tabular.New(cols...)
	for _, rec := range records {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = rec[c]
		}
		tbl.Rows = append(tbl.Rows, cells)
	}
	return tbl
}
