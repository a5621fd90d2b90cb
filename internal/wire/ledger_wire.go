package wire

import (
	"settlement-engine/internal/adaptor"
	"settlement-engine/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireLedger(
	r chi.Router,
	ledgerHandler *adaptor.LedgerHandler,
	settlementHandler *adaptor.SettlementHandler,
	exportHandler *adaptor.ExportHandler,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/ledger", func(r chi.Router) {
		r.Use(middleware.Actor(log))
		r.Use(middleware.Admin(log))

		r.Post("/entries", ledgerHandler.CreateEntry)
		r.Get("/entries", ledgerHandler.ListEntries)
		r.Get("/entries/{id}", ledgerHandler.GetEntry)
		r.Get("/entries/{id}/transitions", ledgerHandler.ListTransitions)

		// status transitions
		r.Put("/entries/{id}/process", ledgerHandler.MarkProcessed)
		r.Put("/entries/{id}/pay", ledgerHandler.MarkPaid)
		r.Put("/entries/{id}/dispute", ledgerHandler.MarkDisputed)

		r.Get("/summary", settlementHandler.Summary)
		r.Get("/export", exportHandler.Export)
	})
}
