package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/retailops/loyalty-service/internal/middleware"
	"github.com/retailops/loyalty-service/internal/service"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(loyalty *service.Loyalty, logger *slog.Logger) http.Handler {
	handler := NewHandler(loyalty, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1/accounts", func(r chi.Router) {
		r.Post("/", handler.CreateAccount)
		r.Get("/by-customer/{customerID}", handler.GetAccountByCustomerID)
		r.Get("/by-card/{cardID}", handler.GetAccountByCardID)
		r.Get("/lookup", handler.GetAccountByQuery)

		r.Route("/{accountID}", func(r chi.Router) {
			r.Get("/transactions", handler.ListTransactions)
			r.Put("/card", handler.SetCard)
			r.Put("/loyalty-level", handler.SetLoyaltyLevel)
			r.Put("/birthdate", handler.SetBirthdate)
			r.Post("/burn", handler.BurnPoints)
			r.Post("/purchases/close", handler.ClosePurchase)
		})
	})

	return r
}
