package usecase

import (
	"time"

	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/report"
	"settlement-engine/pkg/cache"
	"settlement-engine/pkg/mq"
	"settlement-engine/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Ledger     LedgerService
	Settlement SettlementService
	Rate       RateService
	Export     ExportService
}

// Deps are the optional collaborators. Nil members fall back to no-op
// implementations so the services run without Redis, RabbitMQ or a renderer.
type Deps struct {
	Cache     cache.SummaryCache
	Publisher mq.EventPublisher
	PDF       report.PDFRenderer
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.NewNoop()
	}
	if d.Publisher == nil {
		d.Publisher = mq.NewNoopPublisher()
	}
	if d.PDF == nil {
		d.PDF = report.NewDisabledRenderer()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	deps = deps.withDefaults()

	rate := NewRateService(repo.Rate, config.Rates, deps.Now, log)

	return &Service{
		Ledger:     NewLedgerService(repo, rate, deps, log),
		Settlement: NewSettlementService(repo.Ledger, deps.Cache, log),
		Rate:       rate,
		Export:     NewExportService(repo.Ledger, deps.PDF, deps.Now, log),
	}
}
