package shiftextract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

// ReadWorkbook loads every sheet of an xlsx workbook, or the single table
// of a csv export, as rows of text cells.
func ReadWorkbook(filename string, content []byte) ([]Worksheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readXLSX(content)
	case ".csv", ".txt":
		return readCSV(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)), content)
	}

	if sheets, err := readXLSX(content); err == nil {
		return sheets, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

func readXLSX(content []byte) ([]Worksheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	out := make([]Worksheet, 0, len(f.GetSheetList()))
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		out = append(out, Worksheet{Name: sheet, Rows: rows})
	}
	if len(out) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return out, nil
}

func readCSV(name string, content []byte) ([]Worksheet, error) {
	content = bytes.TrimPrefix(content, []byte(utf8BOM))

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(content)

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		rows = append(rows, rec)
	}
	if name == "" {
		name = "Sheet1"
	}
	return []Worksheet{{Name: name, Rows: rows}}, nil
}

// sniffDelimiter picks ';' or tab for exports that do not use commas.
func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
