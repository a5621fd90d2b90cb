package adaptor

import (
	"errors"
	"net/http"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/dto/request"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Ledger     *LedgerHandler
	Settlement *SettlementHandler
	Rate       *RateHandler
	Export     *ExportHandler
	Operator   *OperatorHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Ledger:     NewLedgerHandler(service.Ledger, log),
		Settlement: NewSettlementHandler(service.Settlement, log),
		Rate:       NewRateHandler(service.Rate, log),
		Export:     NewExportHandler(service.Export, log),
		Operator:   NewOperatorHandler(service.Ledger, service.Settlement, log),
	}
}

// handleServiceError maps the error taxonomy onto HTTP statuses.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case apperr.IsClientError(err):
		log.Warn("Invalid input for "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, apperr.ErrInvalidTransition):
		log.Warn(operation+" failed - invalid transition",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, apperr.ErrPersistenceConflict):
		log.Warn(operation+" failed - concurrent update",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, "Entry was modified concurrently, retry the request")

	case errors.Is(err, apperr.ErrExternalService):
		log.Error(operation+" failed - external service",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadGateway(w, "Upstream service unavailable")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// filterFromQuery reads operator_id, status, from and to.
func filterFromQuery(r *http.Request) request.LedgerFilterQuery {
	q := r.URL.Query()
	return request.LedgerFilterQuery{
		OperatorID: q.Get("operator_id"),
		Status:     q.Get("status"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	}
}

func pageFromQuery(r *http.Request) request.PaginatedRequest {
	q := r.URL.Query()
	return request.NewPaginatedRequest(
		utils.ParseInt(q.Get("page"), 1),
		utils.ParseInt(q.Get("per_page"), utils.DefaultPerPage),
	)
}
