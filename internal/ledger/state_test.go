package ledger

import (
	"testing"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/commission"
	"settlement-engine/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow   = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	testRates = commission.Rates{Commission: 0.15, IVA: 0.19}
)

func completedBooking() *entity.Booking {
	return &entity.Booking{
		ID:           "bk_001",
		ResourceType: entity.ResourceLodging,
		StartAt:      testNow.Add(-72 * time.Hour),
		EndAt:        testNow.Add(-24 * time.Hour),
		PriceNet:     100000,
		Status:       entity.BookingStatusCompleted,
		OperatorID:   "op_42",
		UserID:       "usr_7",
	}
}

func TestNewEntry(t *testing.T) {
	entry, err := NewEntry(completedBooking(), testRates, nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, entity.LedgerStatusPending, entry.Status)
	assert.Equal(t, "bk_001", entry.BookingID)
	assert.Equal(t, "op_42", entry.OperatorID)
	assert.Equal(t, int64(100000), entry.GrossAmount)
	assert.Equal(t, int64(15000), entry.CommissionBase)
	assert.Equal(t, int64(2850), entry.IVAAmount)
	assert.Equal(t, int64(82150), entry.OperatorPayout)
	assert.Equal(t, 0.15, entry.CommissionRate)
	assert.Equal(t, 0.19, entry.IVARate)
	assert.Equal(t, 1, entry.Version)
	assert.Equal(t, testNow, entry.CreatedAt)
	assert.True(t, entry.Balanced())
}

func TestNewEntry_RejectsInvalidBookings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *entity.Booking)
		rates  commission.Rates
	}{
		{"not completed", func(b *entity.Booking) { b.Status = entity.BookingStatusPending }, testRates},
		{"cancelled", func(b *entity.Booking) { b.Status = entity.BookingStatusCancelled }, testRates},
		{"negative price", func(b *entity.Booking) { b.PriceNet = -10 }, testRates},
		{"missing operator", func(b *entity.Booking) { b.OperatorID = " " }, testRates},
		{"missing id", func(b *entity.Booking) { b.ID = "" }, testRates},
		{"unknown resource", func(b *entity.Booking) { b.ResourceType = "car" }, testRates},
		{"bad rate", func(b *entity.Booking) {}, commission.Rates{Commission: 1.5, IVA: 0.19}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := completedBooking()
			tt.mutate(b)
			_, err := NewEntry(b, tt.rates, nil, testNow)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	_, err := NewEntry(nil, testRates, nil, testNow)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]entity.LedgerStatus]bool{
		{entity.LedgerStatusPending, entity.LedgerStatusProcessed}:  true,
		{entity.LedgerStatusPending, entity.LedgerStatusDisputed}:   true,
		{entity.LedgerStatusProcessed, entity.LedgerStatusPaid}:     true,
		{entity.LedgerStatusProcessed, entity.LedgerStatusDisputed}: true,
	}
	all := []entity.LedgerStatus{
		entity.LedgerStatusPending, entity.LedgerStatusProcessed,
		entity.LedgerStatusPaid, entity.LedgerStatusDisputed,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]entity.LedgerStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, IsTerminal(entity.LedgerStatusPaid))
	assert.True(t, IsTerminal(entity.LedgerStatusDisputed))
	assert.False(t, IsTerminal(entity.LedgerStatusPending))
}

func TestHappyPath(t *testing.T) {
	entry, err := NewEntry(completedBooking(), testRates, nil, testNow)
	require.NoError(t, err)

	require.NoError(t, MarkProcessed(entry, testNow.Add(time.Hour)))
	assert.Equal(t, entity.LedgerStatusProcessed, entry.Status)
	assert.Equal(t, 2, entry.Version)

	paidAt := testNow.Add(48 * time.Hour)
	require.NoError(t, MarkPaid(entry, paidAt, testNow.Add(49*time.Hour)))
	assert.Equal(t, entity.LedgerStatusPaid, entry.Status)
	require.NotNil(t, entry.PaidAt)
	assert.Equal(t, paidAt, *entry.PaidAt)

	err = MarkProcessed(entry, testNow.Add(50*time.Hour))
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, entity.LedgerStatusPaid, entry.Status)
	assert.Equal(t, 3, entry.Version)
}

func TestMarkPaid_FromPendingFails(t *testing.T) {
	entry, err := NewEntry(completedBooking(), testRates, nil, testNow)
	require.NoError(t, err)

	err = MarkPaid(entry, testNow, testNow)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, entity.LedgerStatusPending, entry.Status)
	assert.Nil(t, entry.PaidAt)
}

func TestMarkPaid_DefaultsPaidAt(t *testing.T) {
	entry, err := NewEntry(completedBooking(), testRates, nil, testNow)
	require.NoError(t, err)
	require.NoError(t, MarkProcessed(entry, testNow))

	require.NoError(t, MarkPaid(entry, time.Time{}, testNow))
	assert.Equal(t, testNow, *entry.PaidAt)
}

func TestMarkDisputed(t *testing.T) {
	entry, err := NewEntry(completedBooking(), testRates, nil, testNow)
	require.NoError(t, err)

	assert.ErrorIs(t, MarkDisputed(entry, "  ", testNow), apperr.ErrInvalidInput)

	require.NoError(t, MarkDisputed(entry, "operator reports wrong amount", testNow))
	assert.Equal(t, entity.LedgerStatusDisputed, entry.Status)
	assert.Equal(t, "operator reports wrong amount", *entry.DisputeReason)

	// disputed entries are frozen
	assert.ErrorIs(t, MarkProcessed(entry, testNow), apperr.ErrInvalidTransition)
	assert.ErrorIs(t, MarkPaid(entry, testNow, testNow), apperr.ErrInvalidTransition)
	assert.ErrorIs(t, MarkDisputed(entry, "again", testNow), apperr.ErrInvalidTransition)
}

func TestMarkDisputed_FromProcessed(t *testing.T) {
	entry, err := NewEntry(completedBooking(), testRates, nil, testNow)
	require.NoError(t, err)
	require.NoError(t, MarkProcessed(entry, testNow))

	require.NoError(t, MarkDisputed(entry, "chargeback", testNow))
	assert.Equal(t, entity.LedgerStatusDisputed, entry.Status)
}

func TestTransition_RejectsUnbalancedEntry(t *testing.T) {
	entry, err := NewEntry(completedBooking(), testRates, nil, testNow)
	require.NoError(t, err)
	entry.OperatorPayout++

	assert.ErrorIs(t, MarkProcessed(entry, testNow), apperr.ErrInvalidInput)
	assert.Equal(t, entity.LedgerStatusPending, entry.Status)
}
