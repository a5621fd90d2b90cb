package usecase

import (
	"context"
	"fmt"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/commission"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/dto/request"
	"settlement-engine/internal/dto/response"
	"settlement-engine/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolvedRate is the rate pair in force at some instant.
type ResolvedRate struct {
	Rates  commission.Rates
	Config *entity.RateConfig // nil when the configured default applies
}

func (r ResolvedRate) ConfigID() *uuid.UUID {
	if r.Config == nil {
		return nil
	}
	id := r.Config.ID
	return &id
}

type RateService interface {
	// Resolve returns the newest stored rate effective at the given time,
	// falling back to the configured default.
	Resolve(ctx context.Context, at time.Time) (ResolvedRate, error)

	CreateRate(ctx context.Context, actorID string, req *request.CreateRateRequest) (*response.RateResponse, error)
	ListRates(ctx context.Context) ([]response.RateResponse, error)
	GetEffectiveRate(ctx context.Context, at *time.Time) (*response.RateResponse, error)

	// Quote computes the split of a gross amount at the current rate.
	Quote(ctx context.Context, grossAmount int64) (*response.QuoteResponse, error)
}

type rateService struct {
	repo     repository.RateRepository
	fallback commission.Rates
	now      func() time.Time
	log      *zap.Logger
}

func NewRateService(repo repository.RateRepository, defaults utils.RatesConfig, now func() time.Time, log *zap.Logger) RateService {
	return &rateService{
		repo:     repo,
		fallback: commission.Rates{Commission: defaults.Commission, IVA: defaults.IVA},
		now:      now,
		log:      log.With(zap.String("service", "rate")),
	}
}

func (s *rateService) Resolve(ctx context.Context, at time.Time) (ResolvedRate, error) {
	cfg, err := s.repo.FindEffective(ctx, at)
	if err != nil {
		return ResolvedRate{}, fmt.Errorf("resolve rate: %w", err)
	}

	resolved := ResolvedRate{Rates: s.fallback}
	source := "configured default"
	if cfg != nil {
		resolved = ResolvedRate{
			Rates:  commission.Rates{Commission: cfg.CommissionRate, IVA: cfg.IVARate},
			Config: cfg,
		}
		source = "rate " + cfg.ID.String()
	}

	// %v, not %w: an unusable rate is a server fault, not a client error.
	if err := commission.ValidateRates(resolved.Rates); err != nil {
		s.log.Error("Rate in force is invalid", zap.Error(err), zap.String("source", source))
		return ResolvedRate{}, fmt.Errorf("%w: %s: %v", apperr.ErrMisconfigured, source, err)
	}
	return resolved, nil
}

func (s *rateService) CreateRate(ctx context.Context, actorID string, req *request.CreateRateRequest) (*response.RateResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create rate validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	rates := commission.Rates{Commission: *req.CommissionRate, IVA: *req.IVARate}
	if err := commission.ValidateRates(rates); err != nil {
		return nil, err
	}

	now := s.now()
	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}

	rate := &entity.RateConfig{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		CommissionRate: rates.Commission,
		IVARate:        rates.IVA,
		EffectiveFrom:  effectiveFrom,
		CreatedBy:      actorID,
	}

	if err := s.repo.Create(ctx, rate); err != nil {
		return nil, err
	}

	s.log.Info("Rate configuration created",
		zap.String("rate_id", rate.ID.String()),
		zap.Float64("commission_rate", rate.CommissionRate),
		zap.Float64("iva_rate", rate.IVARate),
		zap.Time("effective_from", rate.EffectiveFrom),
		zap.String("actor_id", actorID),
	)

	resp := response.RateToResponse(rate)
	return &resp, nil
}

func (s *rateService) ListRates(ctx context.Context) ([]response.RateResponse, error) {
	rates, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]response.RateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, response.RateToResponse(r))
	}
	return out, nil
}

func (s *rateService) GetEffectiveRate(ctx context.Context, at *time.Time) (*response.RateResponse, error) {
	when := s.now()
	if at != nil {
		when = *at
	}

	resolved, err := s.Resolve(ctx, when)
	if err != nil {
		return nil, err
	}

	if resolved.Config != nil {
		resp := response.RateToResponse(resolved.Config)
		return &resp, nil
	}

	effective, err := commission.EffectiveRate(resolved.Rates)
	if err != nil {
		return nil, err
	}
	return &response.RateResponse{
		CommissionRate: resolved.Rates.Commission,
		IVARate:        resolved.Rates.IVA,
		EffectiveRate:  effective,
		Source:         response.RateSourceConfig,
	}, nil
}

func (s *rateService) Quote(ctx context.Context, grossAmount int64) (*response.QuoteResponse, error) {
	if grossAmount < 0 {
		return nil, fmt.Errorf("%w: gross amount %d is negative", apperr.ErrInvalidAmount, grossAmount)
	}

	resolved, err := s.Resolve(ctx, s.now())
	if err != nil {
		return nil, err
	}

	breakdown, err := commission.Calculate(grossAmount, resolved.Rates)
	if err != nil {
		return nil, err
	}

	resp := response.BreakdownToQuote(breakdown, resolved.Rates)
	return &resp, nil
}
