package tabular

import (
	"encoding/csv"
	"io"
	"os"
)

// WriteDelimited writes the header row followed by every data row using
// the given field delimiter. Cells containing the delimiter, quotes, or
// newlines are quoted.
func WriteDelimited(w io.Writer, t *Table, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTSVFile writes the table as a tab-separated file, replacing any
// existing file at path.
func WriteTSVFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDelimited(f, t, '\t'); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
