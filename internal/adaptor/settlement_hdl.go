package adaptor

import (
	"net/http"

	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"

	"go.uber.org/zap"
)

type SettlementHandler struct {
	service usecase.SettlementService
	log     *zap.Logger
}

func NewSettlementHandler(service usecase.SettlementService, log *zap.Logger) *SettlementHandler {
	return &SettlementHandler{
		service: service,
		log:     log.With(zap.String("handler", "settlement")),
	}
}

// Summary handles GET /api/admin/ledger/summary
func (h *SettlementHandler) Summary(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r).ToFilter()
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	summary, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		handleServiceError(h.log, w, err, "summarize ledger")
		return
	}

	utils.ResponseSuccess(w, "success", summary)
}
