// Package store provides durability for loyalty accounts. Each account is
// persisted as one whole record, including its embedded transaction ledger,
// and every write replaces that record atomically.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/retailops/loyalty-service/internal/domain"
)

// Store is the durability collaborator of the account repository.
type Store interface {
	// LoadAll returns every persisted account record.
	LoadAll(ctx context.Context) ([]*domain.Account, error)

	// Save replaces the persisted record for the account.
	Save(ctx context.Context, account *domain.Account) error

	// Close releases the underlying resources.
	Close() error
}

// Memory is a map-backed Store for tests and single-run deployments with no
// database attached.
type Memory struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{accounts: make(map[uuid.UUID]*domain.Account)}
}

// LoadAll returns copies of every stored account.
func (m *Memory) LoadAll(_ context.Context) ([]*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		accounts = append(accounts, account.Clone())
	}
	return accounts, nil
}

// Save stores a copy of the account keyed by its id.
func (m *Memory) Save(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[account.AccountID] = account.Clone()
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
