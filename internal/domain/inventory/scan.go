// Package inventory walks an imaging directory, reads DICOM headers,
// and produces a one-row-per-series table of the metadata a submission
// needs, with optional per-series zip archiving.
package inventory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/gradienthealth/dicom"
	"github.com/gradienthealth/dicom/dicomtag"
	"github.com/rs/zerolog"

	"github.com/remap/remap/internal/platform/tabular"
)

// DefaultPatterns are the file name patterns treated as DICOM.
var DefaultPatterns = []string{"*.dcm", "*.dicom"}

// SeriesInfo aggregates the header metadata of one series across its
// files. Multi-valued pixel spacings keep the DICOM backslash form.
type SeriesInfo struct {
	PatientID             string
	StudyInstanceUID      string
	StudyDate             string
	StudyDescription      string
	SeriesInstanceUID     string
	SeriesDescription     string
	Manufacturer          string
	ManufacturerModelName string
	Modality              string
	BodyPartExamined      string
	SliceThicknesses      []float64
	PixelSpacings         []string
	Files                 []string
	ZipMD5                string
}

// FormatStat counts the files of one extension.
type FormatStat struct {
	FileCount int   `json:"file_count"`
	SizeBytes int64 `json:"total_size_bytes"`
}

// Overview summarizes a directory tree before standardization.
type Overview struct {
	TotalFiles     int                   `json:"total_files"`
	TotalSizeBytes int64                 `json:"total_size_bytes"`
	Formats        map[string]FormatStat `json:"file_format_inventory"`
	DICOMFileCount int                   `json:"dicom_file_count"`
	AnalyzedAt     time.Time             `json:"analysis_timestamp"`
}

// Scanner reads DICOM headers under a directory tree.
type Scanner struct {
	patterns []glob.Glob
	logger   zerolog.Logger
}

// NewScanner compiles the file name patterns, falling back to
// DefaultPatterns when none are given.
func NewScanner(logger zerolog.Logger, patterns ...string) (*Scanner, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}
	return &Scanner{patterns: compiled, logger: logger}, nil
}

// Scan walks root and aggregates header metadata per
// SeriesInstanceUID. Files that cannot be opened or parsed are logged
// and skipped, never fatal. The result is sorted by patient, study,
// series.
func (s *Scanner) Scan(root string) ([]SeriesInfo, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("inventory root: %w", err)
	}

	series := map[string]*SeriesInfo{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}
		if d.IsDir() || !s.match(d.Name()) {
			return nil
		}
		s.scanFile(path, series)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]SeriesInfo, 0, len(series))
	for _, si := range series {
		sort.Float64s(si.SliceThicknesses)
		sort.Strings(si.PixelSpacings)
		out = append(out, *si)
	}
	sortSeries(out)
	s.logger.Debug().Int("series", len(out)).Msg("scanned imaging directory")
	return out, nil
}

// Overview counts every file under root by extension and the subset
// matching the DICOM patterns.
func (s *Scanner) Overview(root string) (*Overview, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("inventory root: %w", err)
	}

	ov := &Overview{
		Formats:    map[string]FormatStat{},
		AnalyzedAt: time.Now().UTC(),
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		ov.TotalFiles++
		ov.TotalSizeBytes += info.Size()

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == "" {
			ext = "no_extension"
		}
		stat := ov.Formats[ext]
		stat.FileCount++
		stat.SizeBytes += info.Size()
		ov.Formats[ext] = stat

		if s.match(d.Name()) {
			ov.DICOMFileCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ov, nil
}

func (s *Scanner) match(name string) bool {
	for _, g := range s.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (s *Scanner) scanFile(path string, series map[string]*SeriesInfo) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable file")
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		s.logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable file")
		return
	}
	parser, err := dicom.NewParser(f, st.Size(), nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", path).Msg("skipping unparseable file")
		return
	}
	ds, err := parser.Parse(dicom.ParseOptions{DropPixelData: true})
	if err != nil {
		s.logger.Warn().Err(err).Str("file", path).Msg("skipping unparseable file")
		return
	}

	uid := elementString(ds, tagSeriesInstanceUID)
	if uid == "" {
		return
	}
	si := series[uid]
	if si == nil {
		si = &SeriesInfo{
			PatientID:             elementString(ds, tagPatientID),
			StudyInstanceUID:      elementString(ds, tagStudyInstanceUID),
			StudyDate:             elementString(ds, tagStudyDate),
			StudyDescription:      elementString(ds, tagStudyDescription),
			SeriesInstanceUID:     uid,
			SeriesDescription:     elementString(ds, tagSeriesDescription),
			Manufacturer:          elementString(ds, tagManufacturer),
			ManufacturerModelName: elementString(ds, tagManufacturerModelName),
			Modality:              elementString(ds, tagModality),
			BodyPartExamined:      elementString(ds, tagBodyPartExamined),
		}
		series[uid] = si
	}
	si.Files = append(si.Files, path)

	if v := elementString(ds, tagSliceThickness); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			si.addThickness(t)
		}
	}
	if vals := elementStrings(ds, tagPixelSpacing); len(vals) > 0 {
		if spacing, ok := joinSpacing(vals); ok {
			si.addSpacing(spacing)
		}
	}
}

func (si *SeriesInfo) addThickness(t float64) {
	for _, have := range si.SliceThicknesses {
		if have == t {
			return
		}
	}
	si.SliceThicknesses = append(si.SliceThicknesses, t)
}

func (si *SeriesInfo) addSpacing(s string) {
	for _, have := range si.PixelSpacings {
		if have == s {
			return
		}
	}
	si.PixelSpacings = append(si.PixelSpacings, s)
}

// joinSpacing keeps a spacing only when every component is numeric.
func joinSpacing(vals []string) (string, bool) {
	trimmed := make([]string, len(vals))
	for i, v := range vals {
		v = strings.TrimSpace(v)
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "", false
		}
		trimmed[i] = v
	}
	return strings.Join(trimmed, `\`), true
}

func elementString(ds *dicom.DataSet, tag dicomtag.Tag) string {
	vals := elementStrings(ds, tag)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func elementStrings(ds *dicom.DataSet, tag dicomtag.Tag) []string {
	elem, err := ds.FindElementByTag(tag)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(elem.Value))
	for _, v := range elem.Value {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortSeries(series []SeriesInfo) {
	sort.Slice(series, func(i, j int) bool {
		a, b := series[i], series[j]
		if a.PatientID != b.PatientID {
			return a.PatientID < b.PatientID
		}
		if a.StudyInstanceUID != b.StudyInstanceUID {
			return a.StudyInstanceUID < b.StudyInstanceUID
		}
		return a.SeriesInstanceUID < b.SeriesInstanceUID
	})
}

// WriteInventory writes one row per series, sorted by patient, study,
// series. The ZipMD5 column appears only when at least one series was
// archived.
func WriteInventory(series []SeriesInfo, path string) error {
	sorted := make([]SeriesInfo, len(series))
	copy(sorted, series)
	sortSeries(sorted)

	withMD5 := false
	for _, si := range sorted {
		if si.ZipMD5 != "" {
			withMD5 = true
			break
		}
	}

	cols := []string{
		"PatientID", "StudyInstanceUID", "StudyDate", "StudyDescription",
		"SeriesInstanceUID", "SeriesDescription", "Manufacturer",
		"ManufacturerModelName", "Modality", "BodyPartExamined",
		"SliceThickness", "PixelSpacing", "FileCount",
	}
	if withMD5 {
		cols = append(cols, "ZipMD5")
	}
	tbl := tabular.New(cols...)
	for _, si := range sorted {
		row := []string{
			si.PatientID, si.StudyInstanceUID, si.StudyDate, si.StudyDescription,
			si.SeriesInstanceUID, si.SeriesDescription, si.Manufacturer,
			si.ManufacturerModelName, si.Modality, si.BodyPartExamined,
			joinThicknesses(si.SliceThicknesses), strings.Join(si.PixelSpacings, ";"),
			strconv.Itoa(len(si.Files)),
		}
		if withMD5 {
			row = append(row, si.ZipMD5)
		}
		tbl.AppendRow(row...)
	}
	return tabular.WriteTSVFile(path, tbl)
}

func joinThicknesses(ts []float64) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}
