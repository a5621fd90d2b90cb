package request

import "time"

type CreateRateRequest struct {
	CommissionRate *float64   `json:"commission_rate" validate:"required,gte=0,lte=1"`
	IVARate        *float64   `json:"iva_rate" validate:"required,gte=0,lte=1"`
	EffectiveFrom  *time.Time `json:"effective_from,omitempty"`
}
