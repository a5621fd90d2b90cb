// Package commission derives the platform commission, the IVA charged on that
// commission and the operator payout from a gross booking amount.
//
// All functions are pure. The three derived amounts always add up to the
// gross amount: any rounding remainder lands in the operator payout.
package commission

import (
	"fmt"
	"math"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/money"

	"github.com/shopspring/decimal"
)

// RateScale is the number of decimal places a stored rate keeps. Rates with
// more places are rejected so the stored snapshot reproduces the amounts.
const RateScale = 5

var one = decimal.NewFromInt(1)

// Rates is the rate configuration applied to one booking.
type Rates struct {
	Commission float64 `json:"commission_rate"`
	IVA        float64 `json:"iva_rate"`
}

// Breakdown is the settlement split of one gross amount.
type Breakdown struct {
	GrossAmount    int64 `json:"gross_amount"`
	CommissionBase int64 `json:"commission_base"`
	IVAAmount      int64 `json:"iva_amount"`
	OperatorPayout int64 `json:"operator_payout"`
}

// Balanced reports whether the split adds up to the gross amount.
func (b Breakdown) Balanced() bool {
	return b.OperatorPayout+b.CommissionBase+b.IVAAmount == b.GrossAmount
}

// ComputeCommission returns round(grossAmount × commissionRate).
func ComputeCommission(grossAmount int64, commissionRate float64) (int64, error) {
	if grossAmount < 0 {
		return 0, fmt.Errorf("%w: gross amount %d is negative", apperr.ErrInvalidInput, grossAmount)
	}
	rate, err := parseRate("commission rate", commissionRate)
	if err != nil {
		return 0, err
	}
	return money.MulRate(grossAmount, rate), nil
}

// ComputeIVA returns round(commissionBase × ivaRate).
func ComputeIVA(commissionBase int64, ivaRate float64) (int64, error) {
	if commissionBase < 0 {
		return 0, fmt.Errorf("%w: commission base %d is negative", apperr.ErrInvalidInput, commissionBase)
	}
	rate, err := parseRate("IVA rate", ivaRate)
	if err != nil {
		return 0, err
	}
	return money.MulRate(commissionBase, rate), nil
}

// ComputeOperatorPayout returns grossAmount - commissionBase - ivaAmount.
func ComputeOperatorPayout(grossAmount, commissionBase, ivaAmount int64) (int64, error) {
	if grossAmount < 0 || commissionBase < 0 || ivaAmount < 0 {
		return 0, fmt.Errorf("%w: amounts must be non-negative (gross=%d commission=%d iva=%d)",
			apperr.ErrInvalidInput, grossAmount, commissionBase, ivaAmount)
	}
	return grossAmount - commissionBase - ivaAmount, nil
}

// Calculate runs the three steps for a ledger entry. Unlike the individual
// functions it rejects splits that would leave the operator a negative payout.
func Calculate(grossAmount int64, rates Rates) (Breakdown, error) {
	if err := ValidateRates(rates); err != nil {
		return Breakdown{}, err
	}

	commissionBase, err := ComputeCommission(grossAmount, rates.Commission)
	if err != nil {
		return Breakdown{}, err
	}
	ivaAmount, err := ComputeIVA(commissionBase, rates.IVA)
	if err != nil {
		return Breakdown{}, err
	}
	payout, err := ComputeOperatorPayout(grossAmount, commissionBase, ivaAmount)
	if err != nil {
		return Breakdown{}, err
	}
	if payout < 0 {
		return Breakdown{}, fmt.Errorf("%w: commission %d plus IVA %d exceed gross amount %d",
			apperr.ErrInvalidInput, commissionBase, ivaAmount, grossAmount)
	}

	return Breakdown{
		GrossAmount:    grossAmount,
		CommissionBase: commissionBase,
		IVAAmount:      ivaAmount,
		OperatorPayout: payout,
	}, nil
}

// ValidateRates checks a rate pair before it is stored or used. Each rate must
// lie in [0,1] with at most RateScale decimals, and commission × (1 + IVA)
// must not exceed the gross amount.
func ValidateRates(rates Rates) error {
	c, err := parseRate("commission rate", rates.Commission)
	if err != nil {
		return err
	}
	i, err := parseRate("IVA rate", rates.IVA)
	if err != nil {
		return err
	}
	if c.Exponent() < -RateScale {
		return fmt.Errorf("%w: commission rate %v has more than %d decimals", apperr.ErrInvalidInput, rates.Commission, RateScale)
	}
	if i.Exponent() < -RateScale {
		return fmt.Errorf("%w: IVA rate %v has more than %d decimals", apperr.ErrInvalidInput, rates.IVA, RateScale)
	}
	if c.Mul(one.Add(i)).GreaterThan(one) {
		return fmt.Errorf("%w: commission rate %v with IVA rate %v exceeds 100%% of the gross amount",
			apperr.ErrInvalidInput, rates.Commission, rates.IVA)
	}
	return nil
}

// EffectiveRate is the share of the gross amount kept by the platform
// (commission plus IVA), as shown in checkout summaries.
func EffectiveRate(rates Rates) (float64, error) {
	if err := ValidateRates(rates); err != nil {
		return 0, err
	}
	c := decimal.NewFromFloat(rates.Commission)
	i := decimal.NewFromFloat(rates.IVA)
	f, _ := c.Mul(one.Add(i)).Float64()
	return f, nil
}

func parseRate(name string, rate float64) (decimal.Decimal, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return decimal.Zero, fmt.Errorf("%w: %s %v is not finite", apperr.ErrInvalidInput, name, rate)
	}
	if rate < 0 || rate > 1 {
		return decimal.Zero, fmt.Errorf("%w: %s %v outside [0,1]", apperr.ErrInvalidInput, name, rate)
	}
	return decimal.NewFromFloat(rate), nil
}
