package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"settlement-engine/internal/apperr"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Document is the payload sent to a PDF renderer.
type Document struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Rows        []Row     `json:"rows"`
	Totals      Totals    `json:"totals"`
}

// PDFRenderer turns a settlement document into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// ToPDF renders rows through renderer.
func ToPDF(ctx context.Context, renderer PDFRenderer, title string, rows []Row, now time.Time) ([]byte, error) {
	doc := Document{
		Title:       title,
		GeneratedAt: now,
		Rows:        rows,
		Totals:      Total(rows),
	}
	return renderer.Render(ctx, doc)
}

var pdfMagic = []byte("%PDF-")

type httpRenderer struct {
	url        string
	client     *http.Client
	maxRetries uint64
	log        *zap.Logger
}

// NewHTTPRenderer posts documents as JSON to url and expects a PDF body back.
// 5xx responses and transport errors are retried up to maxRetries times.
func NewHTTPRenderer(url string, timeout time.Duration, maxRetries int, log *zap.Logger) PDFRenderer {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &httpRenderer{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		maxRetries: uint64(maxRetries),
		log:        log.With(zap.String("renderer", "pdf")),
	}
}

func (r *httpRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal pdf document: %w", err)
	}

	var out []byte
	attempt := 0
	operation := func() error {
		attempt++
		body, err := r.post(ctx, payload)
		if err != nil {
			r.log.Warn("pdf render attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		out = body
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: render pdf: %v", apperr.ErrExternalService, err)
	}
	return out, nil
}

func (r *httpRenderer) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("renderer returned %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return nil, backoff.Permanent(fmt.Errorf("renderer returned %d", resp.StatusCode))
	}

	if !bytes.HasPrefix(body, pdfMagic) {
		return nil, backoff.Permanent(errors.New("renderer returned a non-pdf body"))
	}
	return body, nil
}

type disabledRenderer struct{}

// NewDisabledRenderer is used when no renderer URL is configured.
func NewDisabledRenderer() PDFRenderer { return disabledRenderer{} }

func (disabledRenderer) Render(context.Context, Document) ([]byte, error) {
	return nil, fmt.Errorf("%w: pdf renderer not configured", apperr.ErrExternalService)
}
