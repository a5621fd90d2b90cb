// internal/wire/wire.go
package wire

import (
	"net/http"

	"settlement-engine/internal/adaptor"
	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/middleware"
	"settlement-engine/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring menginisialisasi semua dependencies
func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Deps, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, logger),
		Service: service,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(handler *adaptor.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireRate(r, handler.Rate, logger)
	wireLedger(r, handler.Ledger, handler.Settlement, handler.Export, logger)
	wireOperator(r, handler.Operator, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
