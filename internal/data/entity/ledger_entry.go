package entity

import (
	"time"

	"github.com/google/uuid"
)

type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "pending"
	LedgerStatusProcessed LedgerStatus = "processed"
	LedgerStatusPaid      LedgerStatus = "paid"
	LedgerStatusDisputed  LedgerStatus = "disputed"
)

func (s LedgerStatus) Valid() bool {
	switch s {
	case LedgerStatusPending, LedgerStatusProcessed, LedgerStatusPaid, LedgerStatusDisputed:
		return true
	}
	return false
}

// LedgerEntry is the settlement record of one completed booking.
type LedgerEntry struct {
	Base
	BookingID      string       `db:"booking_id"`
	OperatorID     string       `db:"operator_id"`
	ResourceType   ResourceType `db:"resource_type"`
	GrossAmount    int64        `db:"gross_amount"`
	CommissionBase int64        `db:"commission_base"`
	IVAAmount      int64        `db:"iva_amount"`
	OperatorPayout int64        `db:"operator_payout"`
	CommissionRate float64      `db:"commission_rate"`
	IVARate        float64      `db:"iva_rate"`
	RateConfigID   *uuid.UUID   `db:"rate_config_id"`
	Status         LedgerStatus `db:"status"`
	PaidAt         *time.Time   `db:"paid_at"`
	DisputeReason  *string      `db:"dispute_reason"`
}

// Balanced reports whether payout, commission and IVA add up to the gross.
func (e *LedgerEntry) Balanced() bool {
	return e.OperatorPayout+e.CommissionBase+e.IVAAmount == e.GrossAmount
}

// LedgerTransition is one audited status change of a ledger entry.
type LedgerTransition struct {
	BaseSimple
	EntryID    uuid.UUID    `db:"entry_id"`
	FromStatus LedgerStatus `db:"from_status"`
	ToStatus   LedgerStatus `db:"to_status"`
	ActorID    string       `db:"actor_id"`
	Reason     *string      `db:"reason"`
}

// LedgerFilter selects ledger entries. Nil fields do not filter.
// The created date range is [From, To).
type LedgerFilter struct {
	OperatorID *string
	Status     *LedgerStatus
	From       *time.Time
	To         *time.Time
}

// Matches applies the filter to a single entry in memory.
func (f LedgerFilter) Matches(e *LedgerEntry) bool {
	if e == nil {
		return false
	}
	if f.OperatorID != nil && e.OperatorID != *f.OperatorID {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}
