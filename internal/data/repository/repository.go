package repository

import (
	"settlement-engine/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Booking BookingRepository
	Ledger  LedgerRepository
	Rate    RateRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Booking: NewBookingRepository(db, log),
		Ledger:  NewLedgerRepository(db, log),
		Rate:    NewRateRepository(db, log),
	}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}
