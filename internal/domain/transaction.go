package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tags for the wire and storage representation of a transaction
const (
	kindEarn = "EARN"
	kindBurn = "BURN"
)

// TransactionKind is the variant payload of a ledger entry. Earn entries
// carry the purchase details used to compute the credited points; Burn
// entries carry nothing.
type TransactionKind interface {
	kindTag() string
}

// Earn records points credited for a closed purchase.
type Earn struct {
	TotalPayableAmount int64   `json:"total_payable_amount"`
	DiscountRate       float64 `json:"discount_rate"`
}

func (Earn) kindTag() string { return kindEarn }

// Burn records points redeemed against a purchase.
type Burn struct{}

func (Burn) kindTag() string { return kindBurn }

// Transaction is one append-only ledger entry, always attached to exactly
// one account. Amount is non-negative; whether it credits or debits the
// balance is determined by Kind.
type Transaction struct {
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	PurchaseID    uuid.UUID
	Kind          TransactionKind
	Amount        int64
	CreatedBy     uint32
	CreatedAt     time.Time
}

// NewTransaction creates a ledger entry with a fresh unique id.
func NewTransaction(purchaseID, accountID uuid.UUID, kind TransactionKind, amount int64, createdBy uint32) Transaction {
	return Transaction{
		TransactionID: uuid.New(),
		AccountID:     accountID,
		PurchaseID:    purchaseID,
		Kind:          kind,
		Amount:        amount,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now().UTC(),
	}
}

// transactionJSON is the serialized envelope for Transaction. The kind tag
// plus optional earn payload only exists at this boundary; the domain type
// keeps the tagged variant.
type transactionJSON struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     uuid.UUID `json:"account_id"`
	PurchaseID    uuid.UUID `json:"purchase_id"`
	Kind          string    `json:"kind"`
	Earn          *Earn     `json:"earn,omitempty"`
	Amount        int64     `json:"amount"`
	CreatedBy     uint32    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// MarshalJSON implements json.Marshaler.
func (t Transaction) MarshalJSON() ([]byte, error) {
	env := transactionJSON{
		TransactionID: t.TransactionID,
		AccountID:     t.AccountID,
		PurchaseID:    t.PurchaseID,
		Amount:        t.Amount,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
	}

	switch k := t.Kind.(type) {
	case Earn:
		env.Kind = kindEarn
		env.Earn = &k
	case Burn:
		env.Kind = kindBurn
	default:
		return nil, fmt.Errorf("unknown transaction kind %T", t.Kind)
	}

	return json.Marshal(env)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var env transactionJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	switch env.Kind {
	case kindEarn:
		if env.Earn == nil {
			return fmt.Errorf("earn transaction %s is missing its payload", env.TransactionID)
		}
		t.Kind = *env.Earn
	case kindBurn:
		t.Kind = Burn{}
	default:
		return fmt.Errorf("unknown transaction kind %q", env.Kind)
	}

	t.TransactionID = env.TransactionID
	t.AccountID = env.AccountID
	t.PurchaseID = env.PurchaseID
	t.Amount = env.Amount
	t.CreatedBy = env.CreatedBy
	t.CreatedAt = env.CreatedAt

	return nil
}
