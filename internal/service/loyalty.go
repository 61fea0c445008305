// Package service orchestrates loyalty operations: it validates untrusted
// input, runs exactly one domain operation through the repository and maps
// the outcome to service errors.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/retailops/loyalty-service/internal/domain"
	"github.com/retailops/loyalty-service/internal/events"
	"github.com/retailops/loyalty-service/internal/repository"
)

// dateLayout is the wire format for birthdates.
const dateLayout = "2006-01-02"

// Loyalty implements the loyalty account operations.
type Loyalty struct {
	repo      *repository.Accounts
	cards     domain.CardChecker
	publisher events.Publisher
	logger    *slog.Logger
}

// NewLoyalty creates the service with its collaborators.
func NewLoyalty(repo *repository.Accounts, cards domain.CardChecker, publisher events.Publisher, logger *slog.Logger) *Loyalty {
	return &Loyalty{
		repo:      repo,
		cards:     cards,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateAccount enrolls a customer. Each customer may hold one account.
func (s *Loyalty) CreateAccount(ctx context.Context, customerID uint32, birthdate string, createdBy uint32) (*domain.Account, error) {
	parsed, err := parseDate(birthdate)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Insert(ctx, domain.NewAccount(customerID, parsed, createdBy))
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	s.logger.Info("account created",
		"account_id", account.AccountID,
		"customer_id", customerID,
	)

	return account, nil
}

// AccountByCustomerID looks up the customer's account.
func (s *Loyalty) AccountByCustomerID(ctx context.Context, customerID uint32) (*domain.Account, error) {
	account, err := s.repo.ByCustomerID(ctx, customerID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return account, nil
}

// AccountByCardID looks up the account a card is attached to.
func (s *Loyalty) AccountByCardID(ctx context.Context, cardID string) (*domain.Account, error) {
	account, err := s.repo.ByCardID(ctx, cardID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return account, nil
}

// AccountByQuery looks up an account by customer id and birthdate together.
func (s *Loyalty) AccountByQuery(ctx context.Context, customerID uint32, birthdate string) (*domain.Account, error) {
	parsed, err := parseDate(birthdate)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.ByQuery(ctx, customerID, parsed)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return account, nil
}

// Transactions returns the account's ledger in insertion order.
func (s *Loyalty) Transactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	id, err := parseID(accountID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.repo.Transactions(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return transactions, nil
}

// SetCard attaches a card to the account after the checksum check.
func (s *Loyalty) SetCard(ctx context.Context, accountID, cardID string) (*domain.Account, error) {
	id, err := parseID(accountID)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Update(ctx, id, func(a *domain.Account) error {
		return a.SetCard(cardID, s.cards)
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return account, nil
}

// SetLoyaltyLevel force-sets the tier, in either direction. The balance is
// left untouched.
func (s *Loyalty) SetLoyaltyLevel(ctx context.Context, accountID, levelToken string) (*domain.Account, error) {
	id, err := parseID(accountID)
	if err != nil {
		return nil, err
	}

	level, err := domain.ParseLoyaltyLevel(levelToken)
	if err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidLoyaltyLevel, Message: err.Error()}
	}

	account, err := s.repo.Update(ctx, id, func(a *domain.Account) error {
		a.SetLoyaltyLevel(level)
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	s.logger.Info("loyalty level overridden",
		"account_id", account.AccountID,
		"loyalty_level", level,
	)

	return account, nil
}

// SetBirthdate replaces the customer birthdate on the account.
func (s *Loyalty) SetBirthdate(ctx context.Context, accountID, birthdate string) (*domain.Account, error) {
	id, err := parseID(accountID)
	if err != nil {
		return nil, err
	}

	parsed, err := parseDate(birthdate)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Update(ctx, id, func(a *domain.Account) error {
		a.SetBirthdate(parsed)
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return account, nil
}

// BurnPoints redeems points against a purchase that may not be closed yet.
func (s *Loyalty) BurnPoints(ctx context.Context, accountID, purchaseID string, points int64, createdBy uint32) (domain.Transaction, error) {
	id, err := parseID(accountID)
	if err != nil {
		return domain.Transaction{}, err
	}

	pid, err := parseID(purchaseID)
	if err != nil {
		return domain.Transaction{}, err
	}

	var tx domain.Transaction
	_, err = s.repo.Update(ctx, id, func(a *domain.Account) error {
		var burnErr error
		tx, burnErr = a.BurnPoints(pid, points, createdBy)
		return burnErr
	})
	if err != nil {
		return domain.Transaction{}, mapRepositoryError(err)
	}

	// Publish after the repository lock is released
	s.publisher.PointsBurned(ctx, tx)

	return tx, nil
}

// ClosePurchase credits the earned points for a purchase and returns its
// summary.
func (s *Loyalty) ClosePurchase(ctx context.Context, accountID, purchaseID string, totalGross int64, createdBy uint32) (domain.PurchaseSummary, error) {
	id, err := parseID(accountID)
	if err != nil {
		return domain.PurchaseSummary{}, err
	}

	pid, err := parseID(purchaseID)
	if err != nil {
		return domain.PurchaseSummary{}, err
	}

	var summary domain.PurchaseSummary
	_, err = s.repo.Update(ctx, id, func(a *domain.Account) error {
		summary = a.ClosePurchase(domain.PurchaseInfo{
			PurchaseID:        pid,
			PayableTotalGross: totalGross,
			CreatedBy:         createdBy,
		})
		return nil
	})
	if err != nil {
		return domain.PurchaseSummary{}, mapRepositoryError(err)
	}

	s.publisher.PurchaseClosed(ctx, id, pid, summary)

	return summary, nil
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &ServiceError{
			Code:    ErrCodeInvalidDate,
			Message: fmt.Sprintf("invalid date %q: expected format %s", value, dateLayout),
		}
	}
	return parsed, nil
}

func parseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, &ServiceError{
			Code:    ErrCodeInvalidID,
			Message: fmt.Sprintf("invalid id %q", value),
		}
	}
	return id, nil
}

// mapRepositoryError classifies repository and domain failures.
func mapRepositoryError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &ServiceError{Code: ErrCodeAccountNotFound, Message: "account not found", Err: err}
	case errors.Is(err, repository.ErrCustomerExists):
		return &ServiceError{Code: ErrCodeAccountExists, Message: "customer already has a loyalty account", Err: err}
	case errors.Is(err, domain.ErrInsufficientBalance):
		return &ServiceError{Code: ErrCodeInsufficientBalance, Message: err.Error(), Err: err}
	case errors.Is(err, domain.ErrInvalidBurnAmount):
		return &ServiceError{Code: ErrCodeInvalidAmount, Message: err.Error(), Err: err}
	case errors.Is(err, domain.ErrInvalidCard):
		return &ServiceError{Code: ErrCodeInvalidCard, Message: err.Error(), Err: err}
	default:
		return &ServiceError{Code: ErrCodeInternalError, Message: "internal error", Err: err}
	}
}
