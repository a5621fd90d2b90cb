package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"settlement-engine/internal/dto/request"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LedgerHandler struct {
	service usecase.LedgerService
	log     *zap.Logger
}

func NewLedgerHandler(service usecase.LedgerService, log *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: service,
		log:     log.With(zap.String("handler", "ledger")),
	}
}

// CreateEntry handles POST /api/admin/ledger/entries
func (h *LedgerHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req request.CreateLedgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	entry, created, err := h.service.CreateEntryForBooking(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create ledger entry")
		return
	}

	if !created {
		utils.ResponseSuccess(w, "Ledger entry already exists", entry)
		return
	}
	utils.ResponseCreated(w, "Ledger entry created", entry)
}

// ListEntries handles GET /api/admin/ledger/entries
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r).ToFilter()
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	entries, err := h.service.ListEntries(r.Context(), filter, pageFromQuery(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list ledger entries")
		return
	}

	utils.ResponseSuccess(w, "success", entries)
}

// GetEntry handles GET /api/admin/ledger/entries/{id}
func (h *LedgerHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get ledger entry")
		return
	}

	utils.ResponseSuccess(w, "success", entry)
}

// ListTransitions handles GET /api/admin/ledger/entries/{id}/transitions
func (h *LedgerHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	transitions, err := h.service.ListTransitions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "list ledger transitions")
		return
	}

	utils.ResponseSuccess(w, "success", transitions)
}

// MarkProcessed handles PUT /api/admin/ledger/entries/{id}/process
func (h *LedgerHandler) MarkProcessed(w http.ResponseWriter, r *http.Request) {
	actorID, _ := utils.GetActorIDFromContext(r.Context())

	entry, err := h.service.MarkProcessed(r.Context(), chi.URLParam(r, "id"), actorID)
	if err != nil {
		handleServiceError(h.log, w, err, "mark entry processed")
		return
	}

	utils.ResponseSuccess(w, "Ledger entry processed", entry)
}

// MarkPaid handles PUT /api/admin/ledger/entries/{id}/pay. The body is
// optional; without paid_at the payout is stamped now.
func (h *LedgerHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	actorID, _ := utils.GetActorIDFromContext(r.Context())

	var req request.PayEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	entry, err := h.service.MarkPaid(r.Context(), chi.URLParam(r, "id"), actorID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "mark entry paid")
		return
	}

	utils.ResponseSuccess(w, "Ledger entry paid", entry)
}

// MarkDisputed handles PUT /api/admin/ledger/entries/{id}/dispute
func (h *LedgerHandler) MarkDisputed(w http.ResponseWriter, r *http.Request) {
	actorID, _ := utils.GetActorIDFromContext(r.Context())

	var req request.DisputeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	entry, err := h.service.MarkDisputed(r.Context(), chi.URLParam(r, "id"), actorID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "mark entry disputed")
		return
	}

	utils.ResponseSuccess(w, "Ledger entry disputed", entry)
}
