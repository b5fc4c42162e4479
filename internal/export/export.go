// Package export serializes a tabular query result to a downloadable
// artifact: a spreadsheet or a semicolon-separated text file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Results"

// utf8BOM lets spreadsheet software detect the encoding of the CSV export.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Result is a materialized row set with a stable column order.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// BuildResult derives the column set from the union of all row keys,
// sorted for determinism.
func BuildResult(rows []map[string]any) Result {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return Result{Columns: columns, Rows: rows}
}

// Filename returns the timestamped download name, e.g.
// export_20240131_154212.csv.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("export_%s.%s", now.Format("20060102_150405"), format)
}

// WriteCSV writes the result as semicolon-separated UTF-8 text with a BOM
// and one header row.
func WriteCSV(w io.Writer, res Result) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i, col := range res.Columns {
			record[i] = cellString(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the result as a spreadsheet with a single sheet named
// "Results".
func WriteXLSX(w io.Writer, res Result) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for i, col := range res.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
	}
	for r, row := range res.Rows {
		for i, col := range res.Columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, row[col]); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	return nil
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
