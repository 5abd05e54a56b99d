package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadTrimsHeaderCells(t *testing.T) {
	tbl, warns, err := Read(strings.NewReader(" id , name \nPT001,Alice\n"), ',')
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
	if tbl.Columns[0] != "id" || tbl.Columns[1] != "name" {
		t.Errorf("header not trimmed: %v", tbl.Columns)
	}
}

func TestReadPadsAndTruncatesRaggedRows(t *testing.T) {
	in := "a,b,c\n1,2\n1,2,3,4\n1,2,3\n"
	tbl, warns, err := Read(strings.NewReader(in), ',')
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(warns) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(warns), warns)
	}
	if warns[0].Row != 1 || warns[0].Message != "row has 2 columns, expected 3; padding with empty values" {
		t.Errorf("pad warning = %+v", warns[0])
	}
	if warns[1].Row != 2 || warns[1].Message != "row has 4 columns, expected 3; truncating extra columns" {
		t.Errorf("truncate warning = %+v", warns[1])
	}
	if got := tbl.Rows[0]; got[2] != "" {
		t.Errorf("short row not padded: %v", got)
	}
	if got := tbl.Rows[1]; len(got) != 3 || got[2] != "3" {
		t.Errorf("long row not truncated: %v", got)
	}
}

func TestReadRejectsEmptyInput(t *testing.T) {
	_, _, err := Read(strings.NewReader(""), ',')
	if err == nil || !strings.Contains(err.Error(), "no header row") {
		t.Errorf("err = %v, want no-header error", err)
	}
}

func TestReadRejectsHeaderOnlyInput(t *testing.T) {
	_, _, err := Read(strings.NewReader("a,b,c\n"), ',')
	if err == nil || !strings.Contains(err.Error(), "no data rows") {
		t.Errorf("err = %v, want no-data-rows error", err)
	}
}

func TestReadHandlesQuotedCells(t *testing.T) {
	in := "name,desc\n\"Smith, Jane\",\"line1\nline2\"\n"
	tbl, _, err := Read(strings.NewReader(in), ',')
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tbl.Rows[0][0] != "Smith, Jane" {
		t.Errorf("embedded delimiter lost: %q", tbl.Rows[0][0])
	}
	if tbl.Rows[0][1] != "line1\nline2" {
		t.Errorf("embedded newline lost: %q", tbl.Rows[0][1])
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"plain utf8", []byte("abc"), "abc"},
		{"utf8 bom stripped", []byte{0xEF, 0xBB, 0xBF, 'a', 'b'}, "ab"},
		{"utf16le", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"utf16be", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi"},
		{"utf16le surrogate pair", []byte{0xFF, 0xFE, 0x3D, 0xD8, 0x00, 0xDE}, "\U0001F600"},
		{"latin1 fallback", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"combining mark composed", []byte("café"), "café"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecodeText(tc.raw); got != tc.want {
				t.Errorf("DecodeText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		path string
		text string
		want rune
	}{
		{"tsv extension", "data.tsv", "a,b\n", '\t'},
		{"tab extension", "data.TAB", "a,b\n", '\t'},
		{"csv extension", "data.csv", "a\tb\n", ','},
		{"unknown ext tab-heavy", "data.txt", "a\tb\tc\n", '\t'},
		{"unknown ext comma-heavy", "data.txt", "a,b,c\n", ','},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sniffDelimiter(tc.path, tc.text); got != tc.want {
				t.Errorf("sniffDelimiter(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestReadFileThenWriteTSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(src, []byte("id,diagnosis\nPT001,\"Adenocarcinoma, NOS\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, _, err := ReadFile(src)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	out := filepath.Join(dir, "out.tsv")
	if err := WriteTSVFile(out, tbl); err != nil {
		t.Fatalf("WriteTSVFile: %v", err)
	}
	// Overwrite must replace, not append.
	if err := WriteTSVFile(out, tbl); err != nil {
		t.Fatalf("WriteTSVFile overwrite: %v", err)
	}

	back, _, err := ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile(tsv): %v", err)
	}
	if len(back.Rows) != 1 {
		t.Fatalf("got %d rows after overwrite, want 1", len(back.Rows))
	}
	if back.Rows[0][1] != "Adenocarcinoma, NOS" {
		t.Errorf("cell = %q after round trip", back.Rows[0][1])
	}
}
