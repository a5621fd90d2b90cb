package adaptor

import (
	"net/http"

	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"

	"go.uber.org/zap"
)

// OperatorHandler serves an operator's own settlement data. The operator is
// always the calling actor; an operator_id query parameter is ignored.
type OperatorHandler struct {
	ledger     usecase.LedgerService
	settlement usecase.SettlementService
	log        *zap.Logger
}

func NewOperatorHandler(ledger usecase.LedgerService, settlement usecase.SettlementService, log *zap.Logger) *OperatorHandler {
	return &OperatorHandler{
		ledger:     ledger,
		settlement: settlement,
		log:        log.With(zap.String("handler", "operator")),
	}
}

// Earnings handles GET /api/operator/earnings
func (h *OperatorHandler) Earnings(w http.ResponseWriter, r *http.Request) {
	actorID, ok := utils.GetActorIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Actor required")
		return
	}

	filter, err := filterFromQuery(r).ToFilter()
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	summary, err := h.settlement.OperatorEarnings(r.Context(), actorID, filter.From, filter.To)
	if err != nil {
		handleServiceError(h.log, w, err, "get operator earnings")
		return
	}

	utils.ResponseSuccess(w, "success", summary)
}

// Entries handles GET /api/operator/entries
func (h *OperatorHandler) Entries(w http.ResponseWriter, r *http.Request) {
	actorID, ok := utils.GetActorIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Actor required")
		return
	}

	filter, err := filterFromQuery(r).ToFilter()
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}
	filter.OperatorID = &actorID

	entries, err := h.ledger.ListEntries(r.Context(), filter, pageFromQuery(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list operator entries")
		return
	}

	utils.ResponseSuccess(w, "success", entries)
}
