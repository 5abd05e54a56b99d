package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Warning records a per-row anomaly the reader recovered from instead of
// failing the whole file.
type Warning struct {
	Row     int // 1-based data row number, header excluded
	Message string
}

// ReadFile reads a delimited file into a table. The delimiter comes from
// the file extension (.tsv/.tab vs .csv) and is sniffed from the header
// line for anything else.
func ReadFile(path string) (*Table, []Warning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	text := DecodeText(raw)
	return parse(text, sniffDelimiter(path, text))
}

// Read reads delimited text from r using the given field delimiter.
func Read(r io.Reader, delim rune) (*Table, []Warning, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	return parse(DecodeText(raw), delim)
}

func parse(text string, delim rune) (*Table, []Warning, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("empty file: no header row found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, c := range header {
		cols[i] = strings.TrimSpace(c)
	}

	t := &Table{Columns: cols}
	var warnings []Warning
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", row, err)
		}
		switch {
		case len(rec) < len(cols):
			warnings = append(warnings, Warning{
				Row:     row,
				Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(rec), len(cols)),
			})
			for len(rec) < len(cols) {
				rec = append(rec, "")
			}
		case len(rec) > len(cols):
			warnings = append(warnings, Warning{
				Row:     row,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(rec), len(cols)),
			})
			rec = rec[:len(cols)]
		}
		t.Rows = append(t.Rows, rec)
	}
	if len(t.Rows) == 0 {
		return nil, warnings, errors.New("file contains no data rows")
	}
	return t, warnings, nil
}

func sniffDelimiter(path, text string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return '\t'
	case ".csv":
		return ','
	}
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	if strings.Count(line, "\t") > strings.Count(line, ",") {
		return '\t'
	}
	return ','
}

// DecodeText converts raw file bytes to UTF-8 text. It honors UTF-8 and
// UTF-16 byte order marks, falls back to Latin-1 when the payload is not
// valid UTF-8, and returns the result in Unicode normal form C so that
// downstream comparisons see one spelling per character.
func DecodeText(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		raw = raw[3:]
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return norm.NFC.String(decodeUTF16(raw[2:], false))
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return norm.NFC.String(decodeUTF16(raw[2:], true))
	}
	if !utf8.Valid(raw) {
		return norm.NFC.String(decodeLatin1(raw))
	}
	return norm.NFC.String(string(raw))
}

func decodeUTF16(raw []byte, bigEndian bool) string {
	if len(raw)%2 == 1 {
		raw = raw[:len(raw)-1]
	}
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		if bigEndian {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		} else {
			units = append(units, uint16(raw[i+1])<<8|uint16(raw[i]))
		}
	}
	return string(utf16.Decode(units))
}

func decodeLatin1(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
