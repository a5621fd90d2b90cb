package adaptor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/dto/request"
	"settlement-engine/internal/dto/response"
	"settlement-engine/internal/report"
	"settlement-engine/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  map[string]any  `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// stubLedger records calls and returns canned results.
type stubLedger struct {
	entry   *response.LedgerEntryResponse
	created bool
	err     error

	gotActor  string
	gotID     string
	gotFilter entity.LedgerFilter
	gotPage   request.PaginatedRequest
	gotPay    *request.PayEntryRequest
}

func (s *stubLedger) CreateEntry(context.Context, *entity.Booking) (*response.LedgerEntryResponse, bool, error) {
	return s.entry, s.created, s.err
}

func (s *stubLedger) CreateEntryForBooking(_ context.Context, req *request.CreateLedgerEntryRequest) (*response.LedgerEntryResponse, bool, error) {
	s.gotID = req.BookingID
	return s.entry, s.created, s.err
}

func (s *stubLedger) MarkProcessed(_ context.Context, id, actor string) (*response.LedgerEntryResponse, error) {
	s.gotID, s.gotActor = id, actor
	return s.entry, s.err
}

func (s *stubLedger) MarkPaid(_ context.Context, id, actor string, req *request.PayEntryRequest) (*response.LedgerEntryResponse, error) {
	s.gotID, s.gotActor, s.gotPay = id, actor, req
	return s.entry, s.err
}

func (s *stubLedger) MarkDisputed(_ context.Context, id, actor string, _ *request.DisputeEntryRequest) (*response.LedgerEntryResponse, error) {
	s.gotID, s.gotActor = id, actor
	return s.entry, s.err
}

func (s *stubLedger) GetEntry(_ context.Context, id string) (*response.LedgerEntryResponse, error) {
	s.gotID = id
	return s.entry, s.err
}

func (s *stubLedger) ListEntries(_ context.Context, filter entity.LedgerFilter, page request.PaginatedRequest) (*response.PaginatedResponse[response.LedgerEntryResponse], error) {
	s.gotFilter, s.gotPage = filter, page
	if s.err != nil {
		return nil, s.err
	}
	return response.NewPaginatedResponse([]response.LedgerEntryResponse{*s.entry}, page.Page, page.Limit(), 1), nil
}

func (s *stubLedger) ListTransitions(_ context.Context, id string) ([]response.TransitionResponse, error) {
	s.gotID = id
	return []response.TransitionResponse{{ID: "t-1", FromStatus: "pending", ToStatus: "processed"}}, s.err
}

type stubSettlement struct {
	gotOperator string
	gotFilter   entity.LedgerFilter
	err         error
}

func (s *stubSettlement) Summary(_ context.Context, filter entity.LedgerFilter) (*response.SummaryResponse, error) {
	s.gotFilter = filter
	return &response.SummaryResponse{Currency: "CLP", EntryCount: 2}, s.err
}

func (s *stubSettlement) OperatorEarnings(_ context.Context, operatorID string, from, to *time.Time) (*response.SummaryResponse, error) {
	s.gotOperator = operatorID
	s.gotFilter = entity.LedgerFilter{From: from, To: to}
	return &response.SummaryResponse{Currency: "CLP", OperatorID: &operatorID}, s.err
}

type stubExport struct {
	gotFormat report.Format
	err       error
}

func (s *stubExport) Export(_ context.Context, format report.Format, _ entity.LedgerFilter) (*report.Export, error) {
	s.gotFormat = format
	if s.err != nil {
		return nil, s.err
	}
	return &report.Export{
		Filename:    "liquidaciones-20260601-150000.csv",
		ContentType: format.ContentType(),
		Body:        []byte("date\n"),
		Digest:      "blake2b-256=abc",
	}, nil
}

func sampleResponse() *response.LedgerEntryResponse {
	return &response.LedgerEntryResponse{ID: "11111111-1111-1111-1111-111111111111", BookingID: "bk-1", Status: "pending", Version: 1}
}

// serve routes a single handler through chi with an actor already set.
func serve(method, pattern, target, body, actor string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if actor != "" {
		req = req.WithContext(utils.SetActorContext(req.Context(), actor, utils.RoleAdmin))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("entry x: %w", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad", apperr.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: negative", apperr.ErrInvalidAmount), http.StatusBadRequest},
		{fmt.Errorf("%w: paid to pending", apperr.ErrInvalidTransition), http.StatusConflict},
		{apperr.ErrPersistenceConflict, http.StatusConflict},
		{fmt.Errorf("%w: render pdf", apperr.ErrExternalService), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(zap.NewNop(), rec, tt.err, "test")
			assert.Equal(t, tt.code, rec.Code)
			assert.False(t, decode(t, rec).Status)
		})
	}
}

func TestLedgerHandler_CreateEntry(t *testing.T) {
	svc := &stubLedger{entry: sampleResponse(), created: true}
	h := NewLedgerHandler(svc, zap.NewNop())

	rec := serve(http.MethodPost, "/entries", "/entries", `{"booking_id":"bk-1"}`, "admin-1", h.CreateEntry)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bk-1", svc.gotID)

	svc.created = false
	rec = serve(http.MethodPost, "/entries", "/entries", `{"booking_id":"bk-1"}`, "admin-1", h.CreateEntry)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ledger entry already exists", decode(t, rec).Message)
}

func TestLedgerHandler_CreateEntryValidation(t *testing.T) {
	h := NewLedgerHandler(&stubLedger{}, zap.NewNop())

	rec := serve(http.MethodPost, "/entries", "/entries", `{}`, "admin-1", h.CreateEntry)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Errors, "booking_id")

	rec = serve(http.MethodPost, "/entries", "/entries", `{`, "admin-1", h.CreateEntry)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerHandler_ListEntries(t *testing.T) {
	svc := &stubLedger{entry: sampleResponse()}
	h := NewLedgerHandler(svc, zap.NewNop())

	rec := serve(http.MethodGet, "/entries", "/entries?status=paid&operator_id=op-1&from=2026-05-01&page=2&per_page=5", "", "admin-1", h.ListEntries)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotFilter.Status)
	assert.Equal(t, entity.LedgerStatusPaid, *svc.gotFilter.Status)
	assert.Equal(t, "op-1", *svc.gotFilter.OperatorID)
	assert.Equal(t, 2, svc.gotPage.Page)
	assert.Equal(t, 5, svc.gotPage.PerPage)

	rec = serve(http.MethodGet, "/entries", "/entries?status=lost", "", "admin-1", h.ListEntries)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerHandler_Transitions(t *testing.T) {
	svc := &stubLedger{entry: sampleResponse()}
	h := NewLedgerHandler(svc, zap.NewNop())

	rec := serve(http.MethodPut, "/entries/{id}/process", "/entries/e-1/process", "", "admin-9", h.MarkProcessed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e-1", svc.gotID)
	assert.Equal(t, "admin-9", svc.gotActor)

	// pay without a body is allowed
	rec = serve(http.MethodPut, "/entries/{id}/pay", "/entries/e-2/pay", "", "admin-9", h.MarkPaid)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotPay)
	assert.Nil(t, svc.gotPay.PaidAt)

	rec = serve(http.MethodPut, "/entries/{id}/pay", "/entries/e-2/pay", `{"paid_at":"2026-06-01T10:00:00Z"}`, "admin-9", h.MarkPaid)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotPay.PaidAt)

	rec = serve(http.MethodPut, "/entries/{id}/dispute", "/entries/e-3/dispute", `{"reason":""}`, "admin-9", h.MarkDisputed)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = fmt.Errorf("%w: paid is terminal", apperr.ErrInvalidTransition)
	rec = serve(http.MethodPut, "/entries/{id}/dispute", "/entries/e-3/dispute", `{"reason":"no show"}`, "admin-9", h.MarkDisputed)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLedgerHandler_GetEntryNotFound(t *testing.T) {
	svc := &stubLedger{err: fmt.Errorf("ledger entry x: %w", apperr.ErrNotFound)}
	h := NewLedgerHandler(svc, zap.NewNop())

	rec := serve(http.MethodGet, "/entries/{id}", "/entries/x", "", "admin-1", h.GetEntry)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettlementHandler_Summary(t *testing.T) {
	svc := &stubSettlement{}
	h := NewSettlementHandler(svc, zap.NewNop())

	rec := serve(http.MethodGet, "/summary", "/summary?from=2026-05-01&to=2026-06-01", "", "admin-1", h.Summary)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotFilter.From)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), *svc.gotFilter.From)

	rec = serve(http.MethodGet, "/summary", "/summary?from=2026-06-01&to=2026-05-01", "", "admin-1", h.Summary)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperatorHandler_ScopesToActor(t *testing.T) {
	ledgerSvc := &stubLedger{entry: sampleResponse()}
	settlementSvc := &stubSettlement{}
	h := NewOperatorHandler(ledgerSvc, settlementSvc, zap.NewNop())

	rec := serve(http.MethodGet, "/entries", "/entries?operator_id=someone-else", "", "op-7", h.Entries)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "op-7", *ledgerSvc.gotFilter.OperatorID)

	rec = serve(http.MethodGet, "/earnings", "/earnings", "", "op-7", h.Earnings)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "op-7", settlementSvc.gotOperator)

	rec = serve(http.MethodGet, "/earnings", "/earnings", "", "", h.Earnings)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportHandler(t *testing.T) {
	svc := &stubExport{}
	h := NewExportHandler(svc, zap.NewNop())

	rec := serve(http.MethodGet, "/export", "/export", "", "admin-1", h.Export)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.FormatCSV, svc.gotFormat)
	assert.Equal(t, "blake2b-256=abc", rec.Header().Get("X-Content-Digest"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "liquidaciones-20260601-150000.csv")
	assert.Equal(t, "date\n", rec.Body.String())

	rec = serve(http.MethodGet, "/export", "/export?format=docx", "", "admin-1", h.Export)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = fmt.Errorf("%w: render pdf: timeout", apperr.ErrExternalService)
	rec = serve(http.MethodGet, "/export", "/export?format=pdf", "", "admin-1", h.Export)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

type stubRate struct {
	gotGross int64
	gotAt    *time.Time
}

func (s *stubRate) Quote(_ context.Context, gross int64) (*response.QuoteResponse, error) {
	s.gotGross = gross
	if gross < 0 {
		return nil, apperr.ErrInvalidAmount
	}
	return &response.QuoteResponse{Currency: "CLP", GrossAmount: gross}, nil
}

func (s *stubRate) CreateRate(_ context.Context, actor string, req *request.CreateRateRequest) (*response.RateResponse, error) {
	return &response.RateResponse{CommissionRate: *req.CommissionRate, CreatedBy: actor}, nil
}

func (s *stubRate) ListRates(context.Context) ([]response.RateResponse, error) {
	return []response.RateResponse{}, nil
}

func (s *stubRate) GetEffectiveRate(_ context.Context, at *time.Time) (*response.RateResponse, error) {
	s.gotAt = at
	return &response.RateResponse{Source: response.RateSourceConfig}, nil
}

func TestRateHandler(t *testing.T) {
	svc := &stubRate{}
	h := &RateHandler{service: svc, log: zap.NewNop()}

	rec := serve(http.MethodGet, "/quote", "/quote?gross=100000", "", "", h.Quote)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(100000), svc.gotGross)

	rec = serve(http.MethodGet, "/quote", "/quote?gross=12.5", "", "", h.Quote)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodGet, "/quote", "/quote?gross=-5", "", "", h.Quote)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodPost, "/rates", "/rates", `{"commission_rate":0.12,"iva_rate":0.19}`, "admin-1", h.CreateRate)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(http.MethodPost, "/rates", "/rates", `{"commission_rate":2,"iva_rate":0.19}`, "admin-1", h.CreateRate)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodGet, "/effective", "/effective?at=2026-01-01", "", "admin-1", h.EffectiveRate)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotAt)

	rec = serve(http.MethodGet, "/effective", "/effective?at=yesterday", "", "admin-1", h.EffectiveRate)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
