// Package domain holds the loyalty account aggregate: the account state
// machine, its append-only transaction ledger and the tier logic. It is pure
// data plus state transitions and performs no I/O.
package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// levelUpThreshold is the cumulative point balance that promotes an
// account from L1 to L2.
const levelUpThreshold = 50_000

// Domain errors returned by account state transitions
var (
	// ErrInsufficientBalance indicates a burn larger than the current balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidBurnAmount indicates a negative burn amount
	ErrInvalidBurnAmount = errors.New("points to burn must be non-negative")

	// ErrInvalidCard indicates a card id that failed its checksum check
	ErrInvalidCard = errors.New("invalid card id")
)

// CardChecker validates a card identifier against its checksum scheme.
// The concrete scheme (Luhn) lives outside the domain package.
type CardChecker interface {
	Check(cardID string) error
}

// Account is the aggregate root for one enrolled customer. BalancePoints
// always equals the sum of Earn amounts minus the sum of Burn amounts over
// Transactions; every mutation below preserves that.
type Account struct {
	AccountID           uuid.UUID     `json:"account_id"`
	CustomerID          uint32        `json:"customer_id"`
	Birthdate           time.Time     `json:"birthdate"`
	CardID              string        `json:"card_id,omitempty"`
	Level               LoyaltyLevel  `json:"loyalty_level"`
	BalancePoints       int64         `json:"balance_points"`
	YearlyGrossTurnover int64         `json:"yearly_gross_turnover"`
	Transactions        []Transaction `json:"transactions"`
	CreatedBy           uint32        `json:"created_by"`
	CreatedAt           time.Time     `json:"created_at"`
}

// PurchaseInfo carries the details of a purchase being closed.
type PurchaseInfo struct {
	PurchaseID        uuid.UUID
	PayableTotalGross int64
	CreatedBy         uint32
}

// PurchaseSummary is the point movement of a single purchase, computed at
// close time. BalanceOpening is back-solved from the closing balance rather
// than tracked independently.
type PurchaseSummary struct {
	BalanceOpening int64
	BurnedPoints   int64
	EarnedPoints   int64
	BalanceClosing int64
}

// NewAccount creates an account with a fresh unique id, zero balance, L1
// tier and an empty ledger.
func NewAccount(customerID uint32, birthdate time.Time, createdBy uint32) *Account {
	return &Account{
		AccountID:  uuid.New(),
		CustomerID: customerID,
		Birthdate:  birthdate,
		Level:      LevelL1,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now().UTC(),
	}
}

// SetCard validates cardID through the checker and replaces any existing
// card id. The previous card id is kept on failure.
func (a *Account) SetCard(cardID string, checker CardChecker) error {
	if err := checker.Check(cardID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCard, err)
	}
	a.CardID = cardID
	return nil
}

// SetLoyaltyLevel is a direct operator override. It bypasses the threshold
// logic and makes no balance adjustment.
func (a *Account) SetLoyaltyLevel(level LoyaltyLevel) {
	a.Level = level
}

// SetBirthdate replaces the customer birthdate.
func (a *Account) SetBirthdate(birthdate time.Time) {
	a.Birthdate = birthdate
}

// CheckLoyaltyLevel advances L1 to L2 once the balance reaches the
// threshold. This is the only automatic transition; L2 never auto-reverts
// and repeated calls are no-ops.
func (a *Account) CheckLoyaltyLevel() {
	if a.Level == LevelL1 && a.BalancePoints >= levelUpThreshold {
		a.Level = LevelL2
	}
}

// BurnPoints appends a Burn entry for the purchase and debits the balance.
// It fails before any mutation when points exceeds the current balance.
// Several burns may target the same purchase before it is closed.
func (a *Account) BurnPoints(purchaseID uuid.UUID, points int64, createdBy uint32) (Transaction, error) {
	if points < 0 {
		return Transaction{}, fmt.Errorf("%w: got %d", ErrInvalidBurnAmount, points)
	}
	if points > a.BalancePoints {
		return Transaction{}, fmt.Errorf("%w for burning %d points, current balance: %d",
			ErrInsufficientBalance, points, a.BalancePoints)
	}

	tx := NewTransaction(purchaseID, a.AccountID, Burn{}, points, createdBy)
	a.BalancePoints -= points
	a.Transactions = append(a.Transactions, tx)

	return tx, nil
}

// ClosePurchase credits the points earned on a purchase and reports its
// summary. The sequence is fixed: the tier check before computing the earn
// uses only the balance from prior purchases, and the check afterwards
// affects future purchases only, so the earn rate lags one purchase behind
// the balance that triggers the upgrade.
func (a *Account) ClosePurchase(info PurchaseInfo) PurchaseSummary {
	a.CheckLoyaltyLevel()

	rate := a.Level.DiscountRate()
	earned := int64(math.Round(rate * float64(info.PayableTotalGross)))

	tx := NewTransaction(info.PurchaseID, a.AccountID, Earn{
		TotalPayableAmount: info.PayableTotalGross,
		DiscountRate:       rate,
	}, earned, info.CreatedBy)

	a.Transactions = append(a.Transactions, tx)
	a.BalancePoints += earned
	a.YearlyGrossTurnover += info.PayableTotalGross

	a.CheckLoyaltyLevel()

	burned := a.BurnedPoints(info.PurchaseID)
	closing := a.Balance()

	return PurchaseSummary{
		BalanceOpening: closing - earned + burned,
		BurnedPoints:   burned,
		EarnedPoints:   earned,
		BalanceClosing: closing,
	}
}

// Balance returns the current point balance.
func (a *Account) Balance() int64 {
	return a.BalancePoints
}

// BurnedPoints sums the Burn amounts recorded against a purchase across the
// whole ledger. Per-account ledgers are small, so the full fold is fine.
func (a *Account) BurnedPoints(purchaseID uuid.UUID) int64 {
	var total int64
	for _, tx := range a.Transactions {
		if tx.PurchaseID != purchaseID {
			continue
		}
		if _, ok := tx.Kind.(Burn); ok {
			total += tx.Amount
		}
	}
	return total
}

// Clone returns a deep copy of the account. Copies are what leave the
// repository lock; the ledger slice is never shared.
func (a *Account) Clone() *Account {
	dup := *a
	dup.Transactions = make([]Transaction, len(a.Transactions))
	copy(dup.Transactions, a.Transactions)
	return &dup
}
