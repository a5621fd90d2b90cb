package adaptor

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"settlement-engine/internal/dto/request"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"

	"go.uber.org/zap"
)

type RateHandler struct {
	service usecase.RateService
	log     *zap.Logger
}

func NewRateHandler(service usecase.RateService, log *zap.Logger) *RateHandler {
	return &RateHandler{
		service: service,
		log:     log.With(zap.String("handler", "rate")),
	}
}

// Quote handles GET /api/commission/quote?gross= (public)
func (h *RateHandler) Quote(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("gross"))
	gross, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		utils.ResponseBadRequest(w, "gross must be an integer amount in pesos", nil)
		return
	}

	quote, err := h.service.Quote(r.Context(), gross)
	if err != nil {
		handleServiceError(h.log, w, err, "quote commission")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}

// ListRates handles GET /api/admin/rates
func (h *RateHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.ListRates(r.Context())
	if err != nil {
		handleServiceError(h.log, w, err, "list rates")
		return
	}

	utils.ResponseSuccess(w, "success", rates)
}

// CreateRate handles POST /api/admin/rates
func (h *RateHandler) CreateRate(w http.ResponseWriter, r *http.Request) {
	actorID, _ := utils.GetActorIDFromContext(r.Context())

	var req request.CreateRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	rate, err := h.service.CreateRate(r.Context(), actorID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create rate")
		return
	}

	utils.ResponseCreated(w, "Rate configuration created", rate)
}

// EffectiveRate handles GET /api/admin/rates/effective?at=
func (h *RateHandler) EffectiveRate(w http.ResponseWriter, r *http.Request) {
	at, err := utils.ParseTime(r.URL.Query().Get("at"))
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	rate, err := h.service.GetEffectiveRate(r.Context(), at)
	if err != nil {
		handleServiceError(h.log, w, err, "get effective rate")
		return
	}

	utils.ResponseSuccess(w, "success", rate)
}
