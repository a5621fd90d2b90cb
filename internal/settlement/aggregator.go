// Package settlement rolls ledger entries up into earnings summaries.
package settlement

import (
	"settlement-engine/internal/data/entity"
)

// Summary is the aggregate of the entries matching a filter.
type Summary struct {
	TotalEarnings     int64 `json:"total_earnings"`
	TotalCommissions  int64 `json:"total_commissions"`
	PendingPayouts    int64 `json:"pending_payouts"`
	CompletedBookings int   `json:"completed_bookings"`

	TotalGross       int64 `json:"total_gross"`
	TotalIVA         int64 `json:"total_iva"`
	ProcessedPayouts int64 `json:"processed_payouts"`
	PaidPayouts      int64 `json:"paid_payouts"`
	DisputedPayouts  int64 `json:"disputed_payouts"`
	EntryCount       int   `json:"entry_count"`
}

// Summarize reduces entries matching filter. It performs no I/O and the
// result does not depend on the order of entries.
func Summarize(entries []*entity.LedgerEntry, filter entity.LedgerFilter) Summary {
	var s Summary
	bookings := make(map[string]struct{})

	for _, e := range entries {
		if !filter.Matches(e) {
			continue
		}

		s.EntryCount++
		s.TotalEarnings += e.OperatorPayout
		s.TotalCommissions += e.CommissionBase
		s.TotalGross += e.GrossAmount
		s.TotalIVA += e.IVAAmount

		switch e.Status {
		case entity.LedgerStatusPending:
			s.PendingPayouts += e.OperatorPayout
		case entity.LedgerStatusProcessed:
			s.ProcessedPayouts += e.OperatorPayout
		case entity.LedgerStatusPaid:
			s.PaidPayouts += e.OperatorPayout
		case entity.LedgerStatusDisputed:
			s.DisputedPayouts += e.OperatorPayout
		}

		// every entry is created from a completed booking
		bookings[e.BookingID] = struct{}{}
	}

	s.CompletedBookings = len(bookings)
	return s
}

// SummarizeByOperator returns one summary per operator among the matching
// entries.
func SummarizeByOperator(entries []*entity.LedgerEntry, filter entity.LedgerFilter) map[string]Summary {
	grouped := make(map[string][]*entity.LedgerEntry)
	for _, e := range entries {
		if !filter.Matches(e) {
			continue
		}
		grouped[e.OperatorID] = append(grouped[e.OperatorID], e)
	}

	out := make(map[string]Summary, len(grouped))
	for operatorID, group := range grouped {
		out[operatorID] = Summarize(group, entity.LedgerFilter{})
	}
	return out
}
