package engine

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

// XLSXContentType is the declared type of spreadsheet exports.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

// ExportXLSX renders the view into a single-sheet workbook with the same
// header row and column order as ExportCSV. Cells keep their native types.
func ExportXLSX(v View, columns []models.Column, sheet string) ([]byte, bool, error) {
	if v.Len() == 0 {
		return nil, false, nil
	}
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, false, fmt.Errorf("rename sheet: %w", err)
		}
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, false, fmt.Errorf("write header row: %w", err)
	}

	for r := 0; r < v.Len(); r++ {
		rec := v.Record(r)
		row := make([]interface{}, len(columns))
		for i, col := range columns {
			row[i] = cellValue(col.Value(rec))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, false, fmt.Errorf("resolve row %d: %w", r+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, false, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, false, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), true, nil
}

func cellValue(v models.Value) interface{} {
	switch v.Kind() {
	case models.KindNumber:
		return v.Num()
	case models.KindText:
		return v.Str()
	case models.KindDate:
		return v.Time()
	default:
		return nil
	}
}
