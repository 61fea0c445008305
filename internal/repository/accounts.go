// Package repository owns the authoritative in-memory account table. A
// single exclusive lock serializes every account operation, reads included;
// the cross-field invariant between the balance and the ledger holds only
// because no two critical sections ever interleave.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retailops/loyalty-service/internal/domain"
	"github.com/retailops/loyalty-service/internal/store"
)

// Repository errors
var (
	// ErrNotFound indicates no account matched the lookup
	ErrNotFound = errors.New("account not found")

	// ErrCustomerExists indicates the customer already has an account
	ErrCustomerExists = errors.New("customer already has a loyalty account")
)

// Accounts is the id-indexed account collection. All access goes through
// the one mutex; durability is delegated to the store while the lock is
// still held, so memory and disk never diverge.
type Accounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
	store    store.Store
}

// New creates an empty repository backed by the given store.
func New(st store.Store) *Accounts {
	return &Accounts{
		accounts: make(map[uuid.UUID]*domain.Account),
		store:    st,
	}
}

// Load creates a repository seeded with every record the store holds.
func Load(ctx context.Context, st store.Store) (*Accounts, error) {
	persisted, err := st.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	r := New(st)
	for _, account := range persisted {
		r.accounts[account.AccountID] = account
	}
	return r, nil
}

// Insert adds a new account. It fails with ErrCustomerExists when the
// customer already has one; the repository is untouched on any failure.
func (r *Accounts) Insert(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.CustomerID == account.CustomerID {
			return nil, fmt.Errorf("%w: customer %d", ErrCustomerExists, account.CustomerID)
		}
	}

	if err := r.store.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("persisting account %s: %w", account.AccountID, err)
	}

	r.accounts[account.AccountID] = account

	return account.Clone(), nil
}

// Get returns a copy of the account with the given id.
func (r *Accounts) Get(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return account.Clone(), nil
}

// ByCustomerID returns a copy of the customer's account.
func (r *Accounts) ByCustomerID(_ context.Context, customerID uint32) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool {
		return a.CustomerID == customerID
	})
}

// ByCardID returns a copy of the account the card is attached to.
func (r *Accounts) ByCardID(_ context.Context, cardID string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool {
		return a.CardID != "" && a.CardID == cardID
	})
}

// ByQuery returns a copy of the account matching both the customer id and
// the birthdate.
func (r *Accounts) ByQuery(_ context.Context, customerID uint32, birthdate time.Time) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool {
		return a.CustomerID == customerID && sameDate(a.Birthdate, birthdate)
	})
}

// Transactions returns a buffered copy of the account's ledger in insertion
// order. The copy is handed to the caller after the lock is released, so a
// slow consumer never stalls other account operations.
func (r *Accounts) Transactions(_ context.Context, id uuid.UUID) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	transactions := make([]domain.Transaction, len(account.Transactions))
	copy(transactions, account.Transactions)
	return transactions, nil
}

// Update runs one domain mutation against the account under the lock. The
// mutation is applied to a clone which replaces the live record only after
// the store accepted it; a validation or durability failure therefore
// leaves the account exactly as it was.
func (r *Accounts) Update(ctx context.Context, id uuid.UUID, mutate func(*domain.Account) error) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := current.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}

	if err := r.store.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("persisting account %s: %w", id, err)
	}

	r.accounts[id] = updated

	return updated.Clone(), nil
}

func (r *Accounts) find(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if match(account) {
			return account.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
