package response

import (
	"sort"
	"time"

	"settlement-engine/internal/money"
	"settlement-engine/internal/settlement"
)

type SummaryResponse struct {
	OperatorID *string    `json:"operator_id,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Currency   string     `json:"currency"`

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

	Formatted map[string]string `json:"formatted"`

	// Operators breaks a platform-wide summary down per operator, ordered by
	// operator ID.
	Operators []SummaryResponse `json:"operators,omitempty"`
}

func SummaryToResponse(s settlement.Summary) SummaryResponse {
	return SummaryResponse{
		Currency:          money.Currency,
		TotalEarnings:     s.TotalEarnings,
		TotalCommissions:  s.TotalCommissions,
		PendingPayouts:    s.PendingPayouts,
		CompletedBookings: s.CompletedBookings,
		TotalGross:        s.TotalGross,
		TotalIVA:          s.TotalIVA,
		ProcessedPayouts:  s.ProcessedPayouts,
		PaidPayouts:       s.PaidPayouts,
		DisputedPayouts:   s.DisputedPayouts,
		EntryCount:        s.EntryCount,
		Formatted: map[string]string{
			"total_earnings":    money.MustFormat(s.TotalEarnings),
			"total_commissions": money.MustFormat(s.TotalCommissions),
			"pending_payouts":   money.MustFormat(s.PendingPayouts),
			"total_gross":       money.MustFormat(s.TotalGross),
			"total_iva":         money.MustFormat(s.TotalIVA),
			"processed_payouts": money.MustFormat(s.ProcessedPayouts),
			"paid_payouts":      money.MustFormat(s.PaidPayouts),
			"disputed_payouts":  money.MustFormat(s.DisputedPayouts),
		},
	}
}

// OperatorSummaries converts per-operator summaries in operator ID order.
func OperatorSummaries(byOperator map[string]settlement.Summary) []SummaryResponse {
	ids := make([]string, 0, len(byOperator))
	for id := range byOperator {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]SummaryResponse, 0, len(ids))
	for _, id := range ids {
		resp := SummaryToResponse(byOperator[id])
		resp.OperatorID = &id
		out = append(out, resp)
	}
	return out
}
