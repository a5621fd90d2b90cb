package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var day = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newEntry(id string, status entity.LedgerStatus, gross int64, createdAt time.Time) *entity.LedgerEntry {
	commission := gross * 15 / 100
	iva := commission * 19 / 100
	return &entity.LedgerEntry{
		Base:           entity.Base{ID: uuid.MustParse(id), Version: 1, CreatedAt: createdAt, UpdatedAt: createdAt},
		BookingID:      "bk-" + id[:4],
		OperatorID:     "op-1",
		ResourceType:   entity.ResourceLodging,
		GrossAmount:    gross,
		CommissionBase: commission,
		IVAAmount:      iva,
		OperatorPayout: gross - commission - iva,
		Status:         status,
	}
}

func sampleEntries() []*entity.LedgerEntry {
	return []*entity.LedgerEntry{
		newEntry("22222222-0000-0000-0000-000000000000", entity.LedgerStatusPaid, 100000, day),
		newEntry("11111111-0000-0000-0000-000000000000", entity.LedgerStatusPending, 20000, day),
		newEntry("33333333-0000-0000-0000-000000000000", entity.LedgerStatusDisputed, 40000, day.Add(time.Hour)),
		newEntry("44444444-0000-0000-0000-000000000000", entity.LedgerStatusProcessed, 60000, day.Add(-time.Hour)),
	}
}

func TestToTable_Order(t *testing.T) {
	rows := ToTable(sampleEntries())
	require.Len(t, rows, 4)

	assert.Equal(t, "33333333-0000-0000-0000-000000000000", rows[0].EntryID)
	// same instant, ordered by id
	assert.Equal(t, "11111111-0000-0000-0000-000000000000", rows[1].EntryID)
	assert.Equal(t, "22222222-0000-0000-0000-000000000000", rows[2].EntryID)
	assert.Equal(t, "44444444-0000-0000-0000-000000000000", rows[3].EntryID)

	assert.Equal(t, "En disputa", rows[0].StatusLabel)
	assert.Equal(t, "Pendiente", rows[1].StatusLabel)
	assert.Equal(t, "Pagado", rows[2].StatusLabel)
	assert.Equal(t, "Procesado", rows[3].StatusLabel)
}

func TestToTable_SkipsNil(t *testing.T) {
	rows := ToTable([]*entity.LedgerEntry{nil, sampleEntries()[0]})
	assert.Len(t, rows, 1)
	assert.Empty(t, ToTable(nil))
}

func TestTotal(t *testing.T) {
	totals := Total(ToTable(sampleEntries()))
	assert.Equal(t, int64(220000), totals.GrossAmount)
	assert.Equal(t, totals.GrossAmount, totals.CommissionBase+totals.IVAAmount+totals.OperatorPayout)
}

func TestToCSV(t *testing.T) {
	out, err := ToCSV(ToTable(sampleEntries()))
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"2026-03-10", "22222222-0000-0000-0000-000000000000", "bk-2222", "op-1",
		"100000", "15000", "2850", "82150", "paid", "Pagado",
	}, records[3])
}

func TestToCSV_Empty(t *testing.T) {
	out, err := ToCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(csvHeader, ",")+"\n", out)
}

func TestToXLSX(t *testing.T) {
	rows := ToTable(sampleEntries())
	body, err := ToXLSX(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	header, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Fecha", header)

	entryID, err := f.GetCellValue(SheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, rows[0].EntryID, entryID)

	label, err := f.GetCellValue(SheetName, "A6")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)

	gross, err := f.GetCellValue(SheetName, "E6", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "220000", gross)
}

func TestDigest(t *testing.T) {
	d := Digest([]byte("abc"))
	assert.True(t, strings.HasPrefix(d, "blake2b-256="))
	assert.Len(t, d, len("blake2b-256=")+64)
	assert.Equal(t, d, Digest([]byte("abc")))
	assert.NotEqual(t, d, Digest([]byte("abd")))
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat(" XLSX ")
	assert.True(t, ok)
	assert.Equal(t, FormatXLSX, f)

	_, ok = ParseFormat("docx")
	assert.False(t, ok)

	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func TestHTTPRenderer_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var doc Document
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		assert.Equal(t, "Liquidaciones", doc.Title)
		assert.Len(t, doc.Rows, 4)
		assert.Equal(t, int64(220000), doc.Totals.GrossAmount)

		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, time.Second, 2, zap.NewNop())
	out, err := ToPDF(context.Background(), r, "Liquidaciones", ToTable(sampleEntries()), day)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(out))
}

func TestHTTPRenderer_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, time.Second, 2, zap.NewNop())
	out, err := r.Render(context.Background(), Document{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPRenderer_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, time.Second, 3, zap.NewNop())
	_, err := r.Render(context.Background(), Document{})
	assert.ErrorIs(t, err, apperr.ErrExternalService)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPRenderer_RejectsNonPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, time.Second, 0, zap.NewNop())
	_, err := r.Render(context.Background(), Document{})
	assert.ErrorIs(t, err, apperr.ErrExternalService)
}

func TestDisabledRenderer(t *testing.T) {
	_, err := ToPDF(context.Background(), NewDisabledRenderer(), "x", nil, day)
	assert.ErrorIs(t, err, apperr.ErrExternalService)
}
