package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

var csvHeader = []string{
	"date", "entry_id", "booking_id", "operator_id",
	"gross_amount", "commission_base", "iva_amount", "operator_payout",
	"status", "status_label",
}

// ToCSV renders rows with a header line. Amounts are written as whole pesos
// without separators so spreadsheets read them as numbers.
func ToCSV(rows []Row) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Date.Format(dateLayout),
			r.EntryID,
			r.BookingID,
			r.OperatorID,
			strconv.FormatInt(r.GrossAmount, 10),
			strconv.FormatInt(r.CommissionBase, 10),
			strconv.FormatInt(r.IVAAmount, 10),
			strconv.FormatInt(r.OperatorPayout, 10),
			string(r.Status),
			r.StatusLabel,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row %s: %w", r.EntryID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}
