package entity

import (
	"time"
)

// RateConfig is a versioned commission/IVA rate pair. The row with the latest
// EffectiveFrom not after a booking's settlement time applies to it.
type RateConfig struct {
	BaseSimple
	CommissionRate float64   `db:"commission_rate"`
	IVARate        float64   `db:"iva_rate"`
	EffectiveFrom  time.Time `db:"effective_from"`
	CreatedBy      string    `db:"created_by"`
}
