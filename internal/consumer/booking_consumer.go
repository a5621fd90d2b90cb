// Package consumer turns marketplace events into ledger entries.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/money"
	"settlement-engine/internal/usecase"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// KeyBookingCompleted is the routing key the booking flow publishes when a
// reservation finishes.
const KeyBookingCompleted = "booking.completed"

// Decision is what happens to a delivery after handling.
type Decision int

const (
	// Ack removes the message, whether it produced an entry or not.
	Ack Decision = iota
	// Drop acknowledges a message that can never succeed.
	Drop
	// Requeue returns the message for another attempt.
	Requeue
)

func (d Decision) String() string {
	switch d {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	case Requeue:
		return "requeue"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

type BookingConsumer struct {
	bookings repository.BookingRepository
	ledger   usecase.LedgerService
	log      *zap.Logger
}

func NewBookingConsumer(bookings repository.BookingRepository, ledger usecase.LedgerService, log *zap.Logger) *BookingConsumer {
	return &BookingConsumer{
		bookings: bookings,
		ledger:   ledger,
		log:      log.With(zap.String("consumer", "booking")),
	}
}

// bookingEvent is the booking.completed payload. Some publishers send
// price_net as a JSON float, so it is decoded loosely and rounded to pesos.
type bookingEvent struct {
	entity.Booking
	PriceNet float64 `json:"price_net"`
}

// Handle processes one message. Malformed or invalid bookings and events that
// would move a final booking backwards are dropped; storage failures are
// requeued.
func (c *BookingConsumer) Handle(ctx context.Context, key string, body []byte) Decision {
	if key != KeyBookingCompleted {
		c.log.Debug("Ignoring event", zap.String("key", key))
		return Ack
	}

	var event bookingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.log.Warn("Dropping malformed booking event", zap.Error(err), zap.Int("bytes", len(body)))
		return Drop
	}
	booking := event.Booking
	if booking.ID == "" {
		c.log.Warn("Dropping booking event without id")
		return Drop
	}
	price, err := money.FromFloat(event.PriceNet)
	if err != nil {
		c.log.Warn("Dropping booking event with invalid price", zap.Error(err), zap.String("booking_id", booking.ID))
		return Drop
	}
	booking.PriceNet = price

	stored, err := c.bookings.FindByID(ctx, booking.ID)
	if err != nil {
		c.log.Error("Failed to load booking", zap.Error(err), zap.String("booking_id", booking.ID))
		return Requeue
	}
	if stored != nil && stored.Status != booking.Status && !stored.Status.CanAdvanceTo(booking.Status) {
		c.log.Warn("Dropping out-of-order booking event",
			zap.String("booking_id", booking.ID),
			zap.String("stored_status", string(stored.Status)),
			zap.String("event_status", string(booking.Status)),
		)
		return Drop
	}

	if err := c.bookings.Upsert(ctx, &booking); err != nil {
		// lost a race with another event for the same booking
		if errors.Is(err, apperr.ErrInvalidTransition) {
			c.log.Warn("Dropping out-of-order booking event", zap.Error(err), zap.String("booking_id", booking.ID))
			return Drop
		}
		c.log.Error("Failed to store booking", zap.Error(err), zap.String("booking_id", booking.ID))
		return Requeue
	}

	entry, created, err := c.ledger.CreateEntry(ctx, &booking)
	switch {
	case err == nil:
		c.log.Info("Booking settled",
			zap.String("booking_id", booking.ID),
			zap.String("entry_id", entry.ID),
			zap.Bool("created", created),
		)
		return Ack
	case apperr.IsClientError(err):
		c.log.Warn("Dropping unsettleable booking", zap.Error(err), zap.String("booking_id", booking.ID))
		return Drop
	default:
		c.log.Error("Failed to settle booking", zap.Error(err), zap.String("booking_id", booking.ID))
		return Requeue
	}
}

// Run handles deliveries until the channel closes or ctx is done.
func (c *BookingConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.settle(d, c.Handle(ctx, d.RoutingKey, d.Body))
		}
	}
}

func (c *BookingConsumer) settle(d amqp.Delivery, decision Decision) {
	var err error
	switch decision {
	case Requeue:
		err = d.Nack(false, true)
	default:
		err = d.Ack(false)
	}
	if err != nil {
		c.log.Error("Failed to settle delivery",
			zap.Error(err),
			zap.Uint64("delivery_tag", d.DeliveryTag),
			zap.Stringer("decision", decision),
		)
	}
}
