package adaptor

import (
	"net/http"

	"settlement-engine/internal/report"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"

	"go.uber.org/zap"
)

type ExportHandler struct {
	service usecase.ExportService
	log     *zap.Logger
}

func NewExportHandler(service usecase.ExportService, log *zap.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		log:     log.With(zap.String("handler", "export")),
	}
}

// Export handles GET /api/admin/ledger/export?format=csv|xlsx|pdf
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = string(report.FormatCSV)
	}
	format, ok := report.ParseFormat(raw)
	if !ok {
		utils.ResponseBadRequest(w, "format must be csv, xlsx or pdf", nil)
		return
	}

	filter, err := filterFromQuery(r).ToFilter()
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	export, err := h.service.Export(r.Context(), format, filter)
	if err != nil {
		handleServiceError(h.log, w, err, "export ledger")
		return
	}

	utils.ResponseFile(w, export.Filename, export.ContentType, export.Digest, export.Body)
}
