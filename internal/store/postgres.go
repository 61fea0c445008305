package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/retailops/loyalty-service/internal/config"
	"github.com/retailops/loyalty-service/internal/domain"

	// Import postgres driver for registration with database/sql
	_ "github.com/lib/pq"
)

// Postgres persists each account as a single jsonb record. The repository
// treats every Save as replacing the whole record, which the upsert below
// guarantees.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS loyalty_accounts (
	account_id  UUID PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	record      JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// OpenPostgres connects to the database and ensures the accounts table
// exists.
func OpenPostgres(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*Postgres, error) {
	logger.Info("connecting to database",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DBName,
	)

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure accounts table: %w", err)
	}

	logger.Info("successfully connected to database",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)

	return &Postgres{db: db, logger: logger}, nil
}

// LoadAll reads every account record back into memory.
func (p *Postgres) LoadAll(ctx context.Context) ([]*domain.Account, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT record FROM loyalty_accounts`)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan account record: %w", err)
		}

		var account domain.Account
		if err := json.Unmarshal(record, &account); err != nil {
			return nil, fmt.Errorf("failed to decode account record: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read account records: %w", err)
	}

	p.logger.Info("loaded accounts from database", "count", len(accounts))

	return accounts, nil
}

// Save upserts the full account record.
func (p *Postgres) Save(ctx context.Context, account *domain.Account) error {
	record, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account record: %w", err)
	}

	query := `
		INSERT INTO loyalty_accounts (account_id, customer_id, record, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id)
		DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()
	`

	if _, err := p.db.ExecContext(ctx, query, account.AccountID, int64(account.CustomerID), record); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}

	return nil
}

// Close closes the database connection and logs the closure.
func (p *Postgres) Close() error {
	p.logger.Info("closing database connection")
	return p.db.Close()
}
