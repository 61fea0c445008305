package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeInvalidDate         = "invalid_date"
	ErrCodeInvalidID           = "invalid_id"
	ErrCodeInvalidCard         = "invalid_card"
	ErrCodeInvalidLoyaltyLevel = "invalid_loyalty_level"
	ErrCodeInvalidAmount       = "invalid_amount"
	ErrCodeInsufficientBalance = "insufficient_balance"
	ErrCodeAccountNotFound     = "account_not_found"
	ErrCodeAccountExists       = "account_exists"
	ErrCodeInternalError       = "internal_error"
)
