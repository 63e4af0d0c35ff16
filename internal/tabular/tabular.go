// Package tabular reads uploaded roster files and writes export artifacts.
// CSV and XLSX are supported in both directions; every cell is treated as text.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is a supported tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// exportSheet is the worksheet name used in generated workbooks.
const exportSheet = "Sheet1"

// ParseFormat maps a format name ("csv", "xlsx") onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromFilename detects the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Read returns every row of the file, header included. For workbooks only
// the first worksheet is read. Rows may have different lengths.
func Read(r io.Reader, f Format) ([][]string, error) {
	switch f {
	case FormatCSV:
		return readCSV(r)
	case FormatXLSX:
		return readXLSX(r)
	}
	return nil, fmt.Errorf("tabular.Read: %w: %q", ErrUnsupportedFormat, f)
}

// Write encodes header and rows in format f.
func Write(w io.Writer, f Format, header []string, rows [][]string) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, header, rows)
	case FormatXLSX:
		return writeXLSX(w, header, rows)
	}
	return fmt.Errorf("tabular.Write: %w: %q", ErrUnsupportedFormat, f)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("tabular.Read: csv: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("tabular.Read: xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("tabular.Read: xlsx sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("tabular.Write: csv: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("tabular.Write: csv: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	write := func(rowNum int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		// []any of strings keeps every value a text cell; ids like "0101"
		// must not turn into numbers.
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		return f.SetSheetRow(exportSheet, cell, &values)
	}

	if err := write(1, header); err != nil {
		return fmt.Errorf("tabular.Write: xlsx header: %w", err)
	}
	for i, row := range rows {
		if err := write(i+2, row); err != nil {
			return fmt.Errorf("tabular.Write: xlsx row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("tabular.Write: xlsx: %w", err)
	}
	return nil
}

// stripBOM drops a leading UTF-8 byte order mark, which Excel adds to CSV
// exports and which would otherwise stick to the first header cell.
func stripBOM(r io.Reader) io.Reader {
	const bom = "\ufeff"
	buf := make([]byte, len(bom))
	n, err := io.ReadFull(r, buf)
	if err == nil && string(buf) == bom {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
