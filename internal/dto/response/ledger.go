package response

import (
	"time"

	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/ledger"
	"settlement-engine/internal/money"
)

type LedgerEntryResponse struct {
	ID             string `json:"id"`
	BookingID      string `json:"booking_id"`
	OperatorID     string `json:"operator_id"`
	ResourceType   string `json:"resource_type"`
	Currency       string `json:"currency"`
	GrossAmount    int64  `json:"gross_amount"`
	CommissionBase int64  `json:"commission_base"`
	IVAAmount      int64  `json:"iva_amount"`
	OperatorPayout int64  `json:"operator_payout"`

	GrossAmountFormatted    string `json:"gross_amount_formatted"`
	CommissionBaseFormatted string `json:"commission_base_formatted"`
	IVAAmountFormatted      string `json:"iva_amount_formatted"`
	OperatorPayoutFormatted string `json:"operator_payout_formatted"`

	CommissionRate float64 `json:"commission_rate"`
	IVARate        float64 `json:"iva_rate"`
	RateConfigID   *string `json:"rate_config_id,omitempty"`

	Status        string                   `json:"status"`
	StatusDisplay ledger.StatusDescription `json:"status_display"`
	PaidAt        *time.Time               `json:"paid_at,omitempty"`
	DisputeReason *string                  `json:"dispute_reason,omitempty"`
	Version       int                      `json:"version"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type TransitionResponse struct {
	ID         string    `json:"id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Helper converter
func LedgerEntryToResponse(e *entity.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:             e.ID.String(),
		BookingID:      e.BookingID,
		OperatorID:     e.OperatorID,
		ResourceType:   string(e.ResourceType),
		Currency:       money.Currency,
		GrossAmount:    e.GrossAmount,
		CommissionBase: e.CommissionBase,
		IVAAmount:      e.IVAAmount,
		OperatorPayout: e.OperatorPayout,

		GrossAmountFormatted:    money.MustFormat(e.GrossAmount),
		CommissionBaseFormatted: money.MustFormat(e.CommissionBase),
		IVAAmountFormatted:      money.MustFormat(e.IVAAmount),
		OperatorPayoutFormatted: money.MustFormat(e.OperatorPayout),

		CommissionRate: e.CommissionRate,
		IVARate:        e.IVARate,

		Status:        string(e.Status),
		StatusDisplay: ledger.DescribeStatus(e.Status),
		PaidAt:        e.PaidAt,
		DisputeReason: e.DisputeReason,
		Version:       e.Version,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.RateConfigID != nil {
		id := e.RateConfigID.String()
		resp.RateConfigID = &id
	}
	return resp
}

func TransitionToResponse(t *entity.LedgerTransition) TransitionResponse {
	return TransitionResponse{
		ID:         t.ID.String(),
		FromStatus: string(t.FromStatus),
		ToStatus:   string(t.ToStatus),
		ActorID:    t.ActorID,
		Reason:     t.Reason,
		CreatedAt:  t.CreatedAt,
	}
}
