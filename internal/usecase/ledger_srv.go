package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/dto/request"
	"settlement-engine/internal/dto/response"
	"settlement-engine/internal/ledger"
	"settlement-engine/pkg/cache"
	"settlement-engine/pkg/mq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Routing keys of the ledger lifecycle events.
const (
	EventEntryCreated   = "ledger.entry.created"
	EventEntryProcessed = "ledger.entry.processed"
	EventEntryPaid      = "ledger.entry.paid"
	EventEntryDisputed  = "ledger.entry.disputed"
)

// LedgerEvent is the body of every ledger lifecycle event.
type LedgerEvent struct {
	EntryID        string    `json:"entry_id"`
	BookingID      string    `json:"booking_id"`
	OperatorID     string    `json:"operator_id"`
	FromStatus     string    `json:"from_status,omitempty"`
	Status         string    `json:"status"`
	GrossAmount    int64     `json:"gross_amount"`
	CommissionBase int64     `json:"commission_base"`
	IVAAmount      int64     `json:"iva_amount"`
	OperatorPayout int64     `json:"operator_payout"`
	ActorID        string    `json:"actor_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type LedgerService interface {
	// CreateEntry settles a completed booking. It is idempotent per booking:
	// when an entry already exists it is returned with created=false.
	CreateEntry(ctx context.Context, booking *entity.Booking) (*response.LedgerEntryResponse, bool, error)
	CreateEntryForBooking(ctx context.Context, req *request.CreateLedgerEntryRequest) (*response.LedgerEntryResponse, bool, error)

	MarkProcessed(ctx context.Context, entryID, actorID string) (*response.LedgerEntryResponse, error)
	MarkPaid(ctx context.Context, entryID, actorID string, req *request.PayEntryRequest) (*response.LedgerEntryResponse, error)
	MarkDisputed(ctx context.Context, entryID, actorID string, req *request.DisputeEntryRequest) (*response.LedgerEntryResponse, error)

	GetEntry(ctx context.Context, entryID string) (*response.LedgerEntryResponse, error)
	ListEntries(ctx context.Context, filter entity.LedgerFilter, page request.PaginatedRequest) (*response.PaginatedResponse[response.LedgerEntryResponse], error)
	ListTransitions(ctx context.Context, entryID string) ([]response.TransitionResponse, error)
}

type ledgerService struct {
	repo      *repository.Repository
	rates     RateService
	cache     cache.SummaryCache
	publisher mq.EventPublisher
	now       func() time.Time
	log       *zap.Logger
}

func NewLedgerService(repo *repository.Repository, rates RateService, deps Deps, log *zap.Logger) LedgerService {
	deps = deps.withDefaults()
	return &ledgerService{
		repo:      repo,
		rates:     rates,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		now:       deps.Now,
		log:       log.With(zap.String("service", "ledger")),
	}
}

func (s *ledgerService) CreateEntry(ctx context.Context, booking *entity.Booking) (*response.LedgerEntryResponse, bool, error) {
	if booking == nil || strings.TrimSpace(booking.ID) == "" {
		return nil, false, fmt.Errorf("%w: booking ID is required", apperr.ErrInvalidInput)
	}

	existing, err := s.repo.Ledger.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.log.Debug("Ledger entry already exists", zap.String("booking_id", booking.ID))
		resp := response.LedgerEntryToResponse(existing)
		return &resp, false, nil
	}

	now := s.now()
	resolved, err := s.rates.Resolve(ctx, booking.SettledAt(now))
	if err != nil {
		return nil, false, err
	}

	entry, err := ledger.NewEntry(booking, resolved.Rates, resolved.ConfigID(), now)
	if err != nil {
		s.log.Warn("Booking rejected for settlement", zap.String("booking_id", booking.ID), zap.Error(err))
		return nil, false, err
	}

	if err := s.repo.Ledger.Create(ctx, entry); err != nil {
		if !errors.Is(err, apperr.ErrAlreadyExists) {
			return nil, false, err
		}
		// lost the race against a concurrent create
		existing, findErr := s.repo.Ledger.FindByBookingID(ctx, booking.ID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("ledger entry for booking %s: %w", booking.ID, apperr.ErrPersistenceConflict)
		}
		resp := response.LedgerEntryToResponse(existing)
		return &resp, false, nil
	}

	s.log.Info("Ledger entry created",
		zap.String("entry_id", entry.ID.String()),
		zap.String("booking_id", entry.BookingID),
		zap.String("operator_id", entry.OperatorID),
		zap.Int64("gross_amount", entry.GrossAmount),
		zap.Int64("operator_payout", entry.OperatorPayout),
	)

	s.afterWrite(ctx, EventEntryCreated, entry, "", "")

	resp := response.LedgerEntryToResponse(entry)
	return &resp, true, nil
}

func (s *ledgerService) CreateEntryForBooking(ctx context.Context, req *request.CreateLedgerEntryRequest) (*response.LedgerEntryResponse, bool, error) {
	if req == nil || strings.TrimSpace(req.BookingID) == "" {
		return nil, false, fmt.Errorf("%w: booking_id is required", apperr.ErrInvalidInput)
	}

	booking, err := s.repo.Booking.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, false, err
	}
	if booking == nil {
		return nil, false, fmt.Errorf("booking %s: %w", req.BookingID, apperr.ErrNotFound)
	}

	return s.CreateEntry(ctx, booking)
}

func (s *ledgerService) MarkProcessed(ctx context.Context, entryID, actorID string) (*response.LedgerEntryResponse, error) {
	return s.transition(ctx, entryID, actorID, EventEntryProcessed, nil, func(e *entity.LedgerEntry, at time.Time) error {
		return ledger.MarkProcessed(e, at)
	})
}

func (s *ledgerService) MarkPaid(ctx context.Context, entryID, actorID string, req *request.PayEntryRequest) (*response.LedgerEntryResponse, error) {
	var paidAt time.Time
	if req != nil && req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}
	return s.transition(ctx, entryID, actorID, EventEntryPaid, nil, func(e *entity.LedgerEntry, at time.Time) error {
		return ledger.MarkPaid(e, paidAt, at)
	})
}

func (s *ledgerService) MarkDisputed(ctx context.Context, entryID, actorID string, req *request.DisputeEntryRequest) (*response.LedgerEntryResponse, error) {
	if req == nil || strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", apperr.ErrInvalidInput)
	}
	reason := strings.TrimSpace(req.Reason)
	return s.transition(ctx, entryID, actorID, EventEntryDisputed, &reason, func(e *entity.LedgerEntry, at time.Time) error {
		return ledger.MarkDisputed(e, reason, at)
	})
}

// transition loads the entry, applies the change and stores it with a
// conditional update. A concurrent write triggers one re-read and retry.
func (s *ledgerService) transition(
	ctx context.Context,
	entryID, actorID, eventKey string,
	reason *string,
	apply func(*entity.LedgerEntry, time.Time) error,
) (*response.LedgerEntryResponse, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid entry ID %s", apperr.ErrInvalidInput, entryID)
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, fmt.Errorf("%w: actor is required", apperr.ErrInvalidInput)
	}

	const maxAttempts = 2
	for attempt := 1; ; attempt++ {
		entry, err := s.repo.Ledger.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, fmt.Errorf("ledger entry %s: %w", entryID, apperr.ErrNotFound)
		}
		if ledger.IsTerminal(entry.Status) {
			return nil, fmt.Errorf("%w: ledger entry %s is %s and final", apperr.ErrInvalidTransition, entryID, entry.Status)
		}

		from, version := entry.Status, entry.Version
		now := s.now()

		if err := apply(entry, now); err != nil {
			return nil, err
		}

		tr := &entity.LedgerTransition{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			EntryID:    entry.ID,
			FromStatus: from,
			ToStatus:   entry.Status,
			ActorID:    actorID,
			Reason:     reason,
		}

		err = s.repo.Ledger.UpdateStatus(ctx, entry, from, version, tr)
		if errors.Is(err, apperr.ErrPersistenceConflict) && attempt < maxAttempts {
			s.log.Warn("Retrying ledger transition after conflict",
				zap.String("entry_id", entryID),
				zap.String("to_status", string(entry.Status)),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Info("Ledger entry transitioned",
			zap.String("entry_id", entryID),
			zap.String("from_status", string(from)),
			zap.String("to_status", string(entry.Status)),
			zap.String("actor_id", actorID),
		)

		s.afterWrite(ctx, eventKey, entry, from, actorID)

		resp := response.LedgerEntryToResponse(entry)
		return &resp, nil
	}
}

// afterWrite runs the side effects of a committed write. Their failures are
// logged only; the ledger state is already durable.
func (s *ledgerService) afterWrite(ctx context.Context, key string, entry *entity.LedgerEntry, from entity.LedgerStatus, actorID string) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Error("Failed to invalidate summary cache",
			zap.Error(fmt.Errorf("%w: %v", apperr.ErrExternalService, err)),
			zap.String("entry_id", entry.ID.String()),
		)
	}

	event := LedgerEvent{
		EntryID:        entry.ID.String(),
		BookingID:      entry.BookingID,
		OperatorID:     entry.OperatorID,
		FromStatus:     string(from),
		Status:         string(entry.Status),
		GrossAmount:    entry.GrossAmount,
		CommissionBase: entry.CommissionBase,
		IVAAmount:      entry.IVAAmount,
		OperatorPayout: entry.OperatorPayout,
		ActorID:        actorID,
		OccurredAt:     entry.UpdatedAt,
	}
	if err := s.publisher.PublishJSON(ctx, key, event); err != nil {
		s.log.Error("Failed to publish ledger event",
			zap.Error(fmt.Errorf("%w: %v", apperr.ErrExternalService, err)),
			zap.String("event", key),
			zap.String("entry_id", entry.ID.String()),
		)
	}
}

func (s *ledgerService) GetEntry(ctx context.Context, entryID string) (*response.LedgerEntryResponse, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid entry ID %s", apperr.ErrInvalidInput, entryID)
	}

	entry, err := s.repo.Ledger.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("ledger entry %s: %w", entryID, apperr.ErrNotFound)
	}

	resp := response.LedgerEntryToResponse(entry)
	return &resp, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, filter entity.LedgerFilter, page request.PaginatedRequest) (*response.PaginatedResponse[response.LedgerEntryResponse], error) {
	page = request.NewPaginatedRequest(page.Page, page.PerPage)

	entries, err := s.repo.Ledger.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Ledger.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]response.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, response.LedgerEntryToResponse(e))
	}

	return response.NewPaginatedResponse(data, page.Page, page.Limit(), total), nil
}

func (s *ledgerService) ListTransitions(ctx context.Context, entryID string) ([]response.TransitionResponse, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid entry ID %s", apperr.ErrInvalidInput, entryID)
	}

	entry, err := s.repo.Ledger.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("ledger entry %s: %w", entryID, apperr.ErrNotFound)
	}

	transitions, err := s.repo.Ledger.ListTransitions(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]response.TransitionResponse, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, response.TransitionToResponse(t))
	}
	return out, nil
}
