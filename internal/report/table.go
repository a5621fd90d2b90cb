// Package report turns ledger entries into exportable tables.
package report

import (
	"cmp"
	"slices"
	"time"

	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/ledger"
)

const dateLayout = "2006-01-02"

// Row is one line of the settlement table.
type Row struct {
	Date           time.Time           `json:"date"`
	EntryID        string              `json:"entry_id"`
	BookingID      string              `json:"booking_id"`
	OperatorID     string              `json:"operator_id"`
	GrossAmount    int64               `json:"gross_amount"`
	CommissionBase int64               `json:"commission_base"`
	IVAAmount      int64               `json:"iva_amount"`
	OperatorPayout int64               `json:"operator_payout"`
	Status         entity.LedgerStatus `json:"status"`
	StatusLabel    string              `json:"status_label"`
}

// Totals sums the money columns of a table.
type Totals struct {
	GrossAmount    int64 `json:"gross_amount"`
	CommissionBase int64 `json:"commission_base"`
	IVAAmount      int64 `json:"iva_amount"`
	OperatorPayout int64 `json:"operator_payout"`
}

// ToTable builds rows ordered by created date, newest first. Entries created
// at the same instant are ordered by entry ID.
func ToTable(entries []*entity.LedgerEntry) []Row {
	sorted := make([]*entity.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			sorted = append(sorted, e)
		}
	}

	slices.SortStableFunc(sorted, func(a, b *entity.LedgerEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	rows := make([]Row, len(sorted))
	for i, e := range sorted {
		rows[i] = Row{
			Date:           e.CreatedAt,
			EntryID:        e.ID.String(),
			BookingID:      e.BookingID,
			OperatorID:     e.OperatorID,
			GrossAmount:    e.GrossAmount,
			CommissionBase: e.CommissionBase,
			IVAAmount:      e.IVAAmount,
			OperatorPayout: e.OperatorPayout,
			Status:         e.Status,
			StatusLabel:    ledger.DescribeStatus(e.Status).Label,
		}
	}
	return rows
}

// Total sums rows.
func Total(rows []Row) Totals {
	var t Totals
	for _, r := range rows {
		t.GrossAmount += r.GrossAmount
		t.CommissionBase += r.CommissionBase
		t.IVAAmount += r.IVAAmount
		t.OperatorPayout += r.OperatorPayout
	}
	return t
}
