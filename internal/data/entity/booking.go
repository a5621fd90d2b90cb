package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type ResourceType string

const (
	ResourceLodging ResourceType = "lodging"
	ResourceService ResourceType = "service"
)

func (r ResourceType) Valid() bool {
	return r == ResourceLodging || r == ResourceService
}

// Booking is the read model of a reservation owned by the booking flow.
// IDs come from the hosted entity API and are opaque strings.
type Booking struct {
	ID           string        `db:"id" json:"id"`
	ResourceType ResourceType  `db:"resource_type" json:"resource_type"`
	StartAt      time.Time     `db:"start_at" json:"start_at"`
	EndAt        time.Time     `db:"end_at" json:"end_at"`
	PriceNet     int64         `db:"price_net" json:"price_net"`
	Status       BookingStatus `db:"status" json:"status"`
	OperatorID   string        `db:"operator_id" json:"operator_id"`
	UserID       string        `db:"user_id" json:"user_id"`
	CompletedAt  *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// SettledAt is the instant whose rate configuration applies to the booking.
func (b *Booking) SettledAt(now time.Time) time.Time {
	if b.CompletedAt != nil && !b.CompletedAt.IsZero() {
		return *b.CompletedAt
	}
	if !b.EndAt.IsZero() {
		return b.EndAt
	}
	return now
}

// CanAdvanceTo reports whether the booking flow may move from s to next.
// Bookings only move forward: a cancelled or completed booking is final.
func (s BookingStatus) CanAdvanceTo(next BookingStatus) bool {
	return s == BookingStatusPending && (next == BookingStatusCompleted || next == BookingStatusCancelled)
}
