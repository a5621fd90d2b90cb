package repository

import (
	"context"
	"errors"
	"fmt"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingRepository reads the reservation read model. Bookings are owned by
// the booking flow; this service only mirrors what it receives.
type BookingRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Booking, error)
	Upsert(ctx context.Context, booking *entity.Booking) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*entity.Booking, error) {
	query := `
		SELECT id, resource_type, start_at, end_at, price_net, status, operator_id, user_id, completed_at, created_at
		FROM bookings
		WHERE id = $1
	`

	var booking entity.Booking
	err := r.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.ResourceType,
		&booking.StartAt,
		&booking.EndAt,
		&booking.PriceNet,
		&booking.Status,
		&booking.OperatorID,
		&booking.UserID,
		&booking.CompletedAt,
		&booking.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return &booking, nil
}

// Upsert mirrors a booking received from the event stream. A stored booking
// only moves out of pending; replays of its current status are accepted and
// anything else returns ErrInvalidTransition.
func (r *bookingRepository) Upsert(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, resource_type, start_at, end_at, price_net, status, operator_id, user_id, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			price_net = EXCLUDED.price_net,
			completed_at = EXCLUDED.completed_at
		WHERE bookings.status = 'pending' OR bookings.status = EXCLUDED.status
	`

	tag, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.ResourceType,
		booking.StartAt,
		booking.EndAt,
		booking.PriceNet,
		booking.Status,
		booking.OperatorID,
		booking.UserID,
		booking.CompletedAt,
		booking.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to upsert booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID),
		)
		return fmt.Errorf("upsert booking %s: %w", booking.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking %s cannot move to %s", apperr.ErrInvalidTransition, booking.ID, booking.Status)
	}

	return nil
}
