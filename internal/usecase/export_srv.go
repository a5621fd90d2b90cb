package usecase

import (
	"context"
	"fmt"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/report"

	"go.uber.org/zap"
)

const exportTitle = "Liquidaciones"

type ExportService interface {
	Export(ctx context.Context, format report.Format, filter entity.LedgerFilter) (*report.Export, error)
}

type exportService struct {
	ledger repository.LedgerRepository
	pdf    report.PDFRenderer
	now    func() time.Time
	log    *zap.Logger
}

func NewExportService(ledger repository.LedgerRepository, pdf report.PDFRenderer, now func() time.Time, log *zap.Logger) ExportService {
	if pdf == nil {
		pdf = report.NewDisabledRenderer()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &exportService{
		ledger: ledger,
		pdf:    pdf,
		now:    now,
		log:    log.With(zap.String("service", "export")),
	}
}

func (s *exportService) Export(ctx context.Context, format report.Format, filter entity.LedgerFilter) (*report.Export, error) {
	parsed, ok := report.ParseFormat(string(format))
	if !ok {
		return nil, fmt.Errorf("%w: unsupported export format %q", apperr.ErrInvalidInput, format)
	}
	format = parsed

	entries, err := s.ledger.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := report.ToTable(entries)
	now := s.now()

	var body []byte
	switch format {
	case report.FormatCSV:
		out, err := report.ToCSV(rows)
		if err != nil {
			return nil, err
		}
		body = []byte(out)
	case report.FormatXLSX:
		body, err = report.ToXLSX(rows)
		if err != nil {
			return nil, err
		}
	case report.FormatPDF:
		body, err = report.ToPDF(ctx, s.pdf, exportTitle, rows, now)
		if err != nil {
			s.log.Error("PDF export failed", zap.Error(err), zap.Int("rows", len(rows)))
			return nil, err
		}
	}

	export := &report.Export{
		Filename:    fmt.Sprintf("liquidaciones-%s.%s", now.Format("20060102-150405"), format),
		ContentType: format.ContentType(),
		Body:        body,
		Digest:      report.Digest(body),
	}

	s.log.Info("Export generated",
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(body)),
		zap.String("digest", export.Digest),
	)

	return export, nil
}
