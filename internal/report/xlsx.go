package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by ToXLSX.
const SheetName = "Liquidaciones"

var xlsxHeader = []interface{}{
	"Fecha", "Entrada", "Reserva", "Operador",
	"Bruto", "Comisión", "IVA", "Pago operador", "Estado",
}

// ToXLSX renders rows into a workbook with a totals line at the bottom.
func ToXLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &xlsxHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.Date.Format(dateLayout),
			r.EntryID,
			r.BookingID,
			r.OperatorID,
			r.GrossAmount,
			r.CommissionBase,
			r.IVAAmount,
			r.OperatorPayout,
			r.StatusLabel,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %s: %w", r.EntryID, err)
		}
	}

	totals := Total(rows)
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+2)
	if err != nil {
		return nil, err
	}
	totalRow := []interface{}{
		"Total", "", "", "",
		totals.GrossAmount, totals.CommissionBase, totals.IVAAmount, totals.OperatorPayout, "",
	}
	if err := f.SetSheetRow(SheetName, cell, &totalRow); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}

	// CLP has no decimals
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(`"$"#,##0`)})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	lastCell, err := excelize.CoordinatesToCellName(8, len(rows)+2)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "E2", lastCell, style); err != nil {
		return nil, fmt.Errorf("apply money style: %w", err)
	}

	f.SetColWidth(SheetName, "A", "A", 12)
	f.SetColWidth(SheetName, "B", "D", 38)
	f.SetColWidth(SheetName, "E", "H", 14)
	f.SetColWidth(SheetName, "I", "I", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func ptr[T any](v T) *T { return &v }
