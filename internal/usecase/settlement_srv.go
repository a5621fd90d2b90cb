package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/dto/response"
	"settlement-engine/internal/settlement"
	"settlement-engine/pkg/cache"

	"go.uber.org/zap"
)

type SettlementService interface {
	Summary(ctx context.Context, filter entity.LedgerFilter) (*response.SummaryResponse, error)
	OperatorEarnings(ctx context.Context, operatorID string, from, to *time.Time) (*response.SummaryResponse, error)
}

type settlementService struct {
	ledger repository.LedgerRepository
	cache  cache.SummaryCache
	log    *zap.Logger
}

func NewSettlementService(ledger repository.LedgerRepository, summaryCache cache.SummaryCache, log *zap.Logger) SettlementService {
	if summaryCache == nil {
		summaryCache = cache.NewNoop()
	}
	return &settlementService{
		ledger: ledger,
		cache:  summaryCache,
		log:    log.With(zap.String("service", "settlement")),
	}
}

// cachedSummary is what the summary cache stores per filter.
type cachedSummary struct {
	Total      settlement.Summary            `json:"total"`
	ByOperator map[string]settlement.Summary `json:"by_operator,omitempty"`
}

// Summary aggregates the matching entries. Without an operator filter the
// result also carries the per-operator breakdown.
func (s *settlementService) Summary(ctx context.Context, filter entity.LedgerFilter) (*response.SummaryResponse, error) {
	summary, err := s.summarize(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := response.SummaryToResponse(summary.Total)
	resp.OperatorID, resp.From, resp.To = filter.OperatorID, filter.From, filter.To
	if filter.OperatorID == nil {
		resp.Operators = response.OperatorSummaries(summary.ByOperator)
	}
	return &resp, nil
}

func (s *settlementService) OperatorEarnings(ctx context.Context, operatorID string, from, to *time.Time) (*response.SummaryResponse, error) {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return nil, fmt.Errorf("%w: operator is required", apperr.ErrInvalidInput)
	}
	return s.Summary(ctx, entity.LedgerFilter{OperatorID: &operatorID, From: from, To: to})
}

func (s *settlementService) summarize(ctx context.Context, filter entity.LedgerFilter) (cachedSummary, error) {
	key := summaryKey(filter)

	var cached cachedSummary
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("Summary cache read failed", zap.Error(err), zap.String("key", key))
	}
	if hit {
		return cached, nil
	}

	entries, err := s.ledger.FindAll(ctx, filter)
	if err != nil {
		return cachedSummary{}, err
	}

	summary := cachedSummary{Total: settlement.Summarize(entries, filter)}
	if filter.OperatorID == nil {
		summary.ByOperator = settlement.SummarizeByOperator(entries, filter)
	}

	if err := s.cache.Set(ctx, key, summary); err != nil {
		s.log.Warn("Summary cache write failed", zap.Error(err), zap.String("key", key))
	}

	return summary, nil
}

// summaryKey is a stable cache key for a filter.
func summaryKey(filter entity.LedgerFilter) string {
	parts := []string{"op=", "st=", "from=", "to="}
	if filter.OperatorID != nil {
		parts[0] += strconv.Quote(*filter.OperatorID)
	}
	if filter.Status != nil {
		parts[1] += string(*filter.Status)
	}
	if filter.From != nil {
		parts[2] += strconv.FormatInt(filter.From.UnixNano(), 10)
	}
	if filter.To != nil {
		parts[3] += strconv.FormatInt(filter.To.UnixNano(), 10)
	}
	return strings.Join(parts, "|")
}
