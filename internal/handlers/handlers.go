// Package handlers implements the HTTP surface of the loyalty service.
package handlers

import (
	"log/slog"

	"github.com/retailops/loyalty-service/internal/service"
)

// Handler holds the handler dependencies for all endpoints
type Handler struct {
	loyalty *service.Loyalty
	logger  *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(loyalty *service.Loyalty, logger *slog.Logger) *Handler {
	return &Handler{
		loyalty: loyalty,
		logger:  logger,
	}
}
