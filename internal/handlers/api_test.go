package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/loyalty-service/internal/events"
	"github.com/retailops/loyalty-service/internal/luhn"
	"github.com/retailops/loyalty-service/internal/repository"
	"github.com/retailops/loyalty-service/internal/service"
	"github.com/retailops/loyalty-service/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo := repository.New(store.NewMemory())
	loyalty := service.NewLoyalty(repo, luhn.Checker{}, events.Nop{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(NewRouter(loyalty, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reader).Encode(body))
	}

	req, err := http.NewRequest(method, url, &reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func createAccount(t *testing.T, server *httptest.Server, customerID uint32) string {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts", map[string]any{
		"customer_id": customerID,
		"birthdate":   "1990-01-01",
		"created_by":  1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["account_id"].(string)
}

func TestAPI_CreateAccount(t *testing.T) {
	server := newTestServer(t)

	t.Run("created with defaults", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts", map[string]any{
			"customer_id": 42,
			"birthdate":   "1990-01-01",
			"created_by":  1,
		})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "L1", body["loyalty_level"])
		assert.Equal(t, float64(0), body["balance_points"])
		assert.Equal(t, "1990-01-01", body["birthdate"])
	})

	t.Run("duplicate customer conflicts", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts", map[string]any{
			"customer_id": 42,
			"birthdate":   "1990-01-01",
			"created_by":  1,
		})

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, service.ErrCodeAccountExists, body["error"])
	})

	t.Run("bad birthdate", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts", map[string]any{
			"customer_id": 43,
			"birthdate":   "yesterday",
			"created_by":  1,
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, service.ErrCodeInvalidDate, body["error"])
	})
}

func TestAPI_Lookups(t *testing.T) {
	server := newTestServer(t)
	accountID := createAccount(t, server, 42)

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/api/v1/accounts/"+accountID+"/card",
		map[string]any{"card_id": "4532015112830366"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("by customer", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/accounts/by-customer/42", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, accountID, body["account_id"])
	})

	t.Run("unknown customer", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/accounts/by-customer/99", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, service.ErrCodeAccountNotFound, body["error"])
	})

	t.Run("non-numeric customer id", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/accounts/by-customer/abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, service.ErrCodeInvalidID, body["error"])
	})

	t.Run("by card", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/accounts/by-card/4532015112830366", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, accountID, body["account_id"])
	})

	t.Run("by query", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet,
			server.URL+"/api/v1/accounts/lookup?customer_id=42&birthdate=1990-01-01", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, accountID, body["account_id"])
	})

	t.Run("query with wrong birthdate", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet,
			server.URL+"/api/v1/accounts/lookup?customer_id=42&birthdate=1991-01-01", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPI_SetCard(t *testing.T) {
	server := newTestServer(t)
	accountID := createAccount(t, server, 42)

	t.Run("invalid checksum", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut, server.URL+"/api/v1/accounts/"+accountID+"/card",
			map[string]any{"card_id": "4532015112830367"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, service.ErrCodeInvalidCard, body["error"])
	})

	t.Run("unknown account", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut, server.URL+"/api/v1/accounts/"+uuid.NewString()+"/card",
			map[string]any{"card_id": "4532015112830366"})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPI_SetLoyaltyLevel(t *testing.T) {
	server := newTestServer(t)
	accountID := createAccount(t, server, 42)

	t.Run("override to L2", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut, server.URL+"/api/v1/accounts/"+accountID+"/loyalty-level",
			map[string]any{"loyalty_level": "l2"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "L2", body["loyalty_level"])
	})

	t.Run("bad token", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut, server.URL+"/api/v1/accounts/"+accountID+"/loyalty-level",
			map[string]any{"loyalty_level": "platinum"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, service.ErrCodeInvalidLoyaltyLevel, body["error"])
	})
}

func TestAPI_SetBirthdate(t *testing.T) {
	server := newTestServer(t)
	accountID := createAccount(t, server, 42)

	resp, body := doJSON(t, http.MethodPut, server.URL+"/api/v1/accounts/"+accountID+"/birthdate",
		map[string]any{"birthdate": "1991-06-15"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1991-06-15", body["birthdate"])
}

func TestAPI_BurnAndClosePurchase(t *testing.T) {
	server := newTestServer(t)
	accountID := createAccount(t, server, 42)

	t.Run("burn on empty balance", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts/"+accountID+"/burn",
			map[string]any{"purchase_id": uuid.NewString(), "points_to_burn": 10, "created_by": 1})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, service.ErrCodeInsufficientBalance, body["error"])
		assert.Contains(t, body["message"], "current balance: 0")
	})

	t.Run("close purchase credits points", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts/"+accountID+"/purchases/close",
			map[string]any{"purchase_id": uuid.NewString(), "total_gross": 1_000_000, "created_by": 1})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(20_000), body["earned_points"])
		assert.Equal(t, float64(20_000), body["balance_closing"])
		assert.Equal(t, float64(0), body["balance_opening"])
	})

	t.Run("burns against a purchase appear in its closing summary", func(t *testing.T) {
		purchaseID := uuid.NewString()

		for _, points := range []int{5_000, 3_000} {
			resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts/"+accountID+"/burn",
				map[string]any{"purchase_id": purchaseID, "points_to_burn": points, "created_by": 1})
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}

		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts/"+accountID+"/purchases/close",
			map[string]any{"purchase_id": purchaseID, "total_gross": 500_000, "created_by": 1})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(8_000), body["burned_points"])
		closing := body["balance_closing"].(float64)
		earned := body["earned_points"].(float64)
		assert.Equal(t, closing-earned+8_000, body["balance_opening"])
	})
}

func TestAPI_ListTransactions(t *testing.T) {
	server := newTestServer(t)
	accountID := createAccount(t, server, 42)

	purchaseID := uuid.NewString()
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts/"+accountID+"/purchases/close",
		map[string]any{"purchase_id": purchaseID, "total_gross": 1_000_000, "created_by": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/accounts/"+accountID+"/burn",
		map[string]any{"purchase_id": purchaseID, "points_to_burn": 100, "created_by": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("log order preserved", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/accounts/"+accountID+"/transactions", nil)
		require.NoError(t, err)
		httpResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer httpResp.Body.Close()

		require.Equal(t, http.StatusOK, httpResp.StatusCode)

		var transactions []map[string]any
		require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&transactions))
		require.Len(t, transactions, 2)
		assert.Equal(t, "EARN", transactions[0]["kind"])
		assert.Equal(t, "BURN", transactions[1]["kind"])
		assert.Equal(t, float64(0.02), transactions[0]["discount_rate"])
	})

	t.Run("unparseable account id reads as not found", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/accounts/not-a-uuid/transactions", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, service.ErrCodeAccountNotFound, body["error"])
	})

	t.Run("unknown account", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/accounts/%s/transactions", server.URL, uuid.NewString()), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPI_Health(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
