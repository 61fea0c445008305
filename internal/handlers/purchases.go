package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retailops/loyalty-service/internal/service"
)

// BurnPoints handles POST /api/v1/accounts/{accountID}/burn
func (h *Handler) BurnPoints(w http.ResponseWriter, r *http.Request) {
	var req burnPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeInvalidRequest, "failed to parse request body")
		return
	}

	tx, err := h.loyalty.BurnPoints(r.Context(), chi.URLParam(r, "accountID"), req.PurchaseID, req.PointsToBurn, req.CreatedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// ClosePurchase handles POST /api/v1/accounts/{accountID}/purchases/close
func (h *Handler) ClosePurchase(w http.ResponseWriter, r *http.Request) {
	var req closePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeInvalidRequest, "failed to parse request body")
		return
	}

	accountID := chi.URLParam(r, "accountID")

	summary, err := h.loyalty.ClosePurchase(r.Context(), accountID, req.PurchaseID, req.TotalGross, req.CreatedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	// The account id parsed inside the service; safe to echo it back
	id, _ := uuid.Parse(accountID)

	writeJSON(w, http.StatusOK, purchaseSummaryResponse{
		AccountID:      id,
		PurchaseID:     req.PurchaseID,
		BalanceOpening: summary.BalanceOpening,
		BurnedPoints:   summary.BurnedPoints,
		EarnedPoints:   summary.EarnedPoints,
		BalanceClosing: summary.BalanceClosing,
	})
}
