package response

import (
	"time"

	"settlement-engine/internal/commission"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/money"
)

const (
	RateSourceConfig = "config"
	RateSourceTable  = "rate_configs"
)

type RateResponse struct {
	ID             *string    `json:"id,omitempty"`
	CommissionRate float64    `json:"commission_rate"`
	IVARate        float64    `json:"iva_rate"`
	EffectiveRate  float64    `json:"effective_rate"`
	EffectiveFrom  *time.Time `json:"effective_from,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
	Source         string     `json:"source"`
}

func RateToResponse(rate *entity.RateConfig) RateResponse {
	id := rate.ID.String()
	from := rate.EffectiveFrom
	effective, _ := commission.EffectiveRate(commission.Rates{Commission: rate.CommissionRate, IVA: rate.IVARate})
	return RateResponse{
		ID:             &id,
		CommissionRate: rate.CommissionRate,
		IVARate:        rate.IVARate,
		EffectiveRate:  effective,
		EffectiveFrom:  &from,
		CreatedBy:      rate.CreatedBy,
		Source:         RateSourceTable,
	}
}

type QuoteResponse struct {
	Currency       string  `json:"currency"`
	GrossAmount    int64   `json:"gross_amount"`
	CommissionBase int64   `json:"commission_base"`
	IVAAmount      int64   `json:"iva_amount"`
	OperatorPayout int64   `json:"operator_payout"`
	CommissionRate float64 `json:"commission_rate"`
	IVARate        float64 `json:"iva_rate"`

	GrossAmountFormatted    string `json:"gross_amount_formatted"`
	CommissionBaseFormatted string `json:"commission_base_formatted"`
	IVAAmountFormatted      string `json:"iva_amount_formatted"`
	OperatorPayoutFormatted string `json:"operator_payout_formatted"`
}

func BreakdownToQuote(b commission.Breakdown, rates commission.Rates) QuoteResponse {
	return QuoteResponse{
		Currency:       money.Currency,
		GrossAmount:    b.GrossAmount,
		CommissionBase: b.CommissionBase,
		IVAAmount:      b.IVAAmount,
		OperatorPayout: b.OperatorPayout,
		CommissionRate: rates.Commission,
		IVARate:        rates.IVA,

		GrossAmountFormatted:    money.MustFormat(b.GrossAmount),
		CommissionBaseFormatted: money.MustFormat(b.CommissionBase),
		IVAAmountFormatted:      money.MustFormat(b.IVAAmount),
		OperatorPayoutFormatted: money.MustFormat(b.OperatorPayout),
	}
}
