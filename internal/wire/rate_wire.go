package wire

import (
	"settlement-engine/internal/adaptor"
	"settlement-engine/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireRate(r chi.Router, rateHandler *adaptor.RateHandler, log *zap.Logger) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/commission/quote - checkout breakdown
	r.Get("/api/commission/quote", rateHandler.Quote)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/rates", func(r chi.Router) {
		r.Use(middleware.Actor(log))
		r.Use(middleware.Admin(log))

		r.Get("/", rateHandler.ListRates)
		r.Post("/", rateHandler.CreateRate)
		r.Get("/effective", rateHandler.EffectiveRate)
	})
}
