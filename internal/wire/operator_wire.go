package wire

import (
	"settlement-engine/internal/adaptor"
	"settlement-engine/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireOperator(r chi.Router, operatorHandler *adaptor.OperatorHandler, log *zap.Logger) {
	// ==================== OPERATOR ROUTES ====================
	// any identified actor; data is scoped to the actor
	r.Route("/api/operator", func(r chi.Router) {
		r.Use(middleware.Actor(log))

		r.Get("/earnings", operatorHandler.Earnings)
		r.Get("/entries", operatorHandler.Entries)
	})
}
