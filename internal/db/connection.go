package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return p, nil
}

// EnsureSchema creates the ticker_prices table and its indexes if they do
// not exist. Both entry points call it at startup so either process can be
// deployed against a fresh database.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticker_prices (
			id        BIGSERIAL PRIMARY KEY,
			ticker    VARCHAR(20)    NOT NULL,
			price     NUMERIC(20, 8) NOT NULL,
			timestamp BIGINT         NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticker_prices_ticker ON ticker_prices (ticker)`,
		`CREATE INDEX IF NOT EXISTS idx_ticker_prices_timestamp ON ticker_prices (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_ticker_timestamp ON ticker_prices (ticker, timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
