package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailops/loyalty-service/internal/domain"
)

// Request bodies

type createAccountRequest struct {
	CustomerID uint32 `json:"customer_id"`
	Birthdate  string `json:"birthdate"`
	CreatedBy  uint32 `json:"created_by"`
}

type setCardRequest struct {
	CardID string `json:"card_id"`
}

type setLoyaltyLevelRequest struct {
	LoyaltyLevel string `json:"loyalty_level"`
}

type setBirthdateRequest struct {
	Birthdate string `json:"birthdate"`
}

type burnPointsRequest struct {
	PurchaseID   string `json:"purchase_id"`
	PointsToBurn int64  `json:"points_to_burn"`
	CreatedBy    uint32 `json:"created_by"`
}

type closePurchaseRequest struct {
	PurchaseID string `json:"purchase_id"`
	TotalGross int64  `json:"total_gross"`
	CreatedBy  uint32 `json:"created_by"`
}

// Response bodies

type accountResponse struct {
	AccountID           uuid.UUID `json:"account_id"`
	CustomerID          uint32    `json:"customer_id"`
	Birthdate           string    `json:"birthdate"`
	CardID              string    `json:"card_id,omitempty"`
	LoyaltyLevel        string    `json:"loyalty_level"`
	BalancePoints       int64     `json:"balance_points"`
	YearlyGrossTurnover int64     `json:"yearly_gross_turnover"`
	CreatedBy           uint32    `json:"created_by"`
	CreatedAt           time.Time `json:"created_at"`
}

type transactionResponse struct {
	TransactionID      uuid.UUID `json:"transaction_id"`
	AccountID          uuid.UUID `json:"account_id"`
	PurchaseID         uuid.UUID `json:"purchase_id"`
	Kind               string    `json:"kind"`
	Amount             int64     `json:"amount"`
	TotalPayableAmount *int64    `json:"total_payable_amount,omitempty"`
	DiscountRate       *float64  `json:"discount_rate,omitempty"`
	CreatedBy          uint32    `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
}

type purchaseSummaryResponse struct {
	AccountID      uuid.UUID `json:"account_id"`
	PurchaseID     string    `json:"purchase_id"`
	BalanceOpening int64     `json:"balance_opening"`
	BurnedPoints   int64     `json:"burned_points"`
	EarnedPoints   int64     `json:"earned_points"`
	BalanceClosing int64     `json:"balance_closing"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		AccountID:           a.AccountID,
		CustomerID:          a.CustomerID,
		Birthdate:           a.Birthdate.Format("2006-01-02"),
		CardID:              a.CardID,
		LoyaltyLevel:        a.Level.String(),
		BalancePoints:       a.BalancePoints,
		YearlyGrossTurnover: a.YearlyGrossTurnover,
		CreatedBy:           a.CreatedBy,
		CreatedAt:           a.CreatedAt,
	}
}

func toTransactionResponse(tx domain.Transaction) transactionResponse {
	resp := transactionResponse{
		TransactionID: tx.TransactionID,
		AccountID:     tx.AccountID,
		PurchaseID:    tx.PurchaseID,
		Amount:        tx.Amount,
		CreatedBy:     tx.CreatedBy,
		CreatedAt:     tx.CreatedAt,
	}

	switch k := tx.Kind.(type) {
	case domain.Earn:
		resp.Kind = "EARN"
		resp.TotalPayableAmount = &k.TotalPayableAmount
		resp.DiscountRate = &k.DiscountRate
	case domain.Burn:
		resp.Kind = "BURN"
	}

	return resp
}
