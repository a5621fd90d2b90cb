// Package ledger holds the commission ledger state machine.
//
//	pending ──► processed ──► paid
//	   │            │
//	   └────────────┴──► disputed
//
// paid and disputed are terminal. No edge skips a state, so every payout
// passes through processed.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/commission"
	"settlement-engine/internal/data/entity"

	"github.com/google/uuid"
)

var transitions = map[entity.LedgerStatus][]entity.LedgerStatus{
	entity.LedgerStatusPending:   {entity.LedgerStatusProcessed, entity.LedgerStatusDisputed},
	entity.LedgerStatusProcessed: {entity.LedgerStatusPaid, entity.LedgerStatusDisputed},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to entity.LedgerStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status entity.LedgerStatus) bool {
	return len(transitions[status]) == 0
}

// NewEntry builds the pending ledger entry of a completed booking using the
// rates in force when the booking was settled.
func NewEntry(booking *entity.Booking, rates commission.Rates, rateConfigID *uuid.UUID, now time.Time) (*entity.LedgerEntry, error) {
	if booking == nil {
		return nil, fmt.Errorf("%w: booking is required", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(booking.ID) == "" {
		return nil, fmt.Errorf("%w: booking ID is required", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(booking.OperatorID) == "" {
		return nil, fmt.Errorf("%w: booking %s has no operator", apperr.ErrInvalidInput, booking.ID)
	}
	if !booking.ResourceType.Valid() {
		return nil, fmt.Errorf("%w: booking %s has unknown resource type %q", apperr.ErrInvalidInput, booking.ID, booking.ResourceType)
	}
	if booking.Status != entity.BookingStatusCompleted {
		return nil, fmt.Errorf("%w: booking %s is %s, cannot settle before completion", apperr.ErrInvalidInput, booking.ID, booking.Status)
	}

	breakdown, err := commission.Calculate(booking.PriceNet, rates)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", booking.ID, err)
	}

	entry := &entity.LedgerEntry{
		Base: entity.Base{
			ID:        uuid.New(),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:      booking.ID,
		OperatorID:     booking.OperatorID,
		ResourceType:   booking.ResourceType,
		GrossAmount:    breakdown.GrossAmount,
		CommissionBase: breakdown.CommissionBase,
		IVAAmount:      breakdown.IVAAmount,
		OperatorPayout: breakdown.OperatorPayout,
		CommissionRate: rates.Commission,
		IVARate:        rates.IVA,
		RateConfigID:   rateConfigID,
		Status:         entity.LedgerStatusPending,
	}

	if !entry.Balanced() {
		return nil, fmt.Errorf("%w: booking %s split does not balance", apperr.ErrInvalidInput, booking.ID)
	}

	return entry, nil
}

// Transition moves entry to the target status in memory. The caller persists
// it with a conditional update on the previous status and version.
func Transition(entry *entity.LedgerEntry, to entity.LedgerStatus, at time.Time) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is required", apperr.ErrInvalidInput)
	}
	if !CanTransition(entry.Status, to) {
		return fmt.Errorf("%w: entry %s cannot move from %s to %s",
			apperr.ErrInvalidTransition, entry.ID, entry.Status, to)
	}
	if !entry.Balanced() {
		return fmt.Errorf("%w: entry %s does not balance", apperr.ErrInvalidInput, entry.ID)
	}

	entry.Status = to
	entry.UpdatedAt = at
	entry.Version++
	return nil
}

// MarkProcessed applies pending -> processed.
func MarkProcessed(entry *entity.LedgerEntry, at time.Time) error {
	return Transition(entry, entity.LedgerStatusProcessed, at)
}

// MarkPaid applies processed -> paid and records when the payout was made.
func MarkPaid(entry *entity.LedgerEntry, paidAt, at time.Time) error {
	if paidAt.IsZero() {
		paidAt = at
	}
	if err := Transition(entry, entity.LedgerStatusPaid, at); err != nil {
		return err
	}
	entry.PaidAt = &paidAt
	return nil
}

// MarkDisputed freezes a pending or processed entry.
func MarkDisputed(entry *entity.LedgerEntry, reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: dispute reason is required", apperr.ErrInvalidInput)
	}
	if err := Transition(entry, entity.LedgerStatusDisputed, at); err != nil {
		return err
	}
	entry.DisputeReason = &reason
	return nil
}
