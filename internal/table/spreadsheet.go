package table

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/Tiliavir/maintenance-notebook/internal/model"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Registros"

// IsSpreadsheet reports whether filename has a spreadsheet extension.
func IsSpreadsheet(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

// ReadSpreadsheet returns the cells of the first worksheet. Legacy .xls files
// go through extrame/xls, everything else through excelize.
func ReadSpreadsheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		if workbook.NumSheets() > 1 {
			return nil, fmt.Errorf("multiple worksheets found; please use a file with a single sheet")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}

		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}

// FromRows builds a Table from spreadsheet cells. The header is the first row
// naming the date column; blank rows are skipped and every row is fitted to
// the header width.
func FromRows(rows [][]string) (Table, error) {
	hi := -1
	for i, row := range rows {
		for _, cell := range row {
			if h := foldHeader(cell); h == "fecha" || h == "date" {
				hi = i
				break
			}
		}
		if hi >= 0 {
			break
		}
	}
	if hi == -1 {
		return Table{}, ErrNoTable
	}

	headers := trimTrailingBlanks(rows[hi])
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) == 0 {
		return Table{}, ErrNoTable
	}

	t := Table{Headers: headers, Rows: [][]string{}}
	for _, row := range rows[hi+1:] {
		row = trimTrailingBlanks(row)
		if len(row) == 0 {
			continue
		}
		t.Rows = append(t.Rows, fit(row, len(headers)))
	}
	return t, nil
}

// WriteXLSX writes records as a single-sheet workbook with the export header.
func WriteXLSX(w io.Writer, records []model.WorkRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming worksheet: %w", err)
	}

	rows := [][]string{Headers}
	for _, r := range records {
		rows = append(rows, Row(r))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func trimTrailingBlanks(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return append([]string{}, row[:end]...)
}
