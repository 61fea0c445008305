package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/retailops/loyalty-service/internal/service"
)

// CreateAccount handles POST /api/v1/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeInvalidRequest, "failed to parse request body")
		return
	}

	account, err := h.loyalty.CreateAccount(r.Context(), req.CustomerID, req.Birthdate, req.CreatedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

// GetAccountByCustomerID handles GET /api/v1/accounts/by-customer/{customerID}
func (h *Handler) GetAccountByCustomerID(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeInvalidID, "invalid customer id")
		return
	}

	account, svcErr := h.loyalty.AccountByCustomerID(r.Context(), customerID)
	if svcErr != nil {
		h.writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// GetAccountByCardID handles GET /api/v1/accounts/by-card/{cardID}
func (h *Handler) GetAccountByCardID(w http.ResponseWriter, r *http.Request) {
	account, err := h.loyalty.AccountByCardID(r.Context(), chi.URLParam(r, "cardID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// GetAccountByQuery handles GET /api/v1/accounts/lookup?customer_id=&birthdate=
func (h *Handler) GetAccountByQuery(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseCustomerID(r.URL.Query().Get("customer_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeInvalidID, "invalid customer id")
		return
	}

	account, svcErr := h.loyalty.AccountByQuery(r.Context(), customerID, r.URL.Query().Get("birthdate"))
	if svcErr != nil {
		h.writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// ListTransactions handles GET /api/v1/accounts/{accountID}/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.loyalty.Transactions(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		// An unparseable account id names no account
		if svcErr := extractServiceError(err); svcErr != nil && svcErr.Code == service.ErrCodeInvalidID {
			writeError(w, http.StatusNotFound, service.ErrCodeAccountNotFound, "account not found")
			return
		}
		h.writeServiceError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		resp = append(resp, toTransactionResponse(tx))
	}

	writeJSON(w, http.StatusOK, resp)
}

// SetCard handles PUT /api/v1/accounts/{accountID}/card
func (h *Handler) SetCard(w http.ResponseWriter, r *http.Request) {
	var req setCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeInvalidRequest, "failed to parse request body")
		return
	}

	account, err := h.loyalty.SetCard(r.Context(), chi.URLParam(r, "accountID"), req.CardID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// SetLoyaltyLevel handles PUT /api/v1/accounts/{accountID}/loyalty-level
func (h *Handler) SetLoyaltyLevel(w http.ResponseWriter, r *http.Request) {
	var req setLoyaltyLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeInvalidRequest, "failed to parse request body")
		return
	}

	account, err := h.loyalty.SetLoyaltyLevel(r.Context(), chi.URLParam(r, "accountID"), req.LoyaltyLevel)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// SetBirthdate handles PUT /api/v1/accounts/{accountID}/birthdate
func (h *Handler) SetBirthdate(w http.ResponseWriter, r *http.Request) {
	var req setBirthdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.ErrCodeInvalidRequest, "failed to parse request body")
		return
	}

	account, err := h.loyalty.SetBirthdate(r.Context(), chi.URLParam(r, "accountID"), req.Birthdate)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func parseCustomerID(value string) (uint32, error) {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(parsed), nil
}
