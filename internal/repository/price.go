package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Toni1004/Derbit-JP-Test/internal/models"
)

type PriceRepo struct {
	pool *pgxpool.Pool
}

func NewPriceRepo(pool *pgxpool.Pool) *PriceRepo {
	return &PriceRepo{pool: pool}
}

// Insert appends an observation and returns the stored row including its
// assigned id. Duplicate (ticker, timestamp) pairs are accepted.
func (r *PriceRepo) Insert(ctx context.Context, ticker string, price float64, timestamp int64) (*models.TickerPrice, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO ticker_prices (ticker, price, timestamp)
		 VALUES ($1, $2, $3) RETURNING id, ticker, price, timestamp`,
		ticker, price, timestamp,
	)
	return scanPrice(row)
}

// ListByTicker returns every observation for ticker, newest first.
func (r *PriceRepo) ListByTicker(ctx context.Context, ticker string) ([]models.TickerPrice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ticker, price, timestamp FROM ticker_prices
		 WHERE ticker = $1 ORDER BY timestamp DESC`,
		ticker,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPrices(rows)
}

// LatestByTicker returns the observation with the greatest timestamp, or
// nil when the ticker has no rows. On a timestamp tie the highest id wins.
func (r *PriceRepo) LatestByTicker(ctx context.Context, ticker string) (*models.TickerPrice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, ticker, price, timestamp FROM ticker_prices
		 WHERE ticker = $1 ORDER BY timestamp DESC, id DESC LIMIT 1`,
		ticker,
	)
	p, err := scanPrice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// RangeByTicker returns observations with start <= timestamp <= end, newest
// first. Either bound may be nil; with both nil it matches ListByTicker.
func (r *PriceRepo) RangeByTicker(ctx context.Context, ticker string, start, end *int64) ([]models.TickerPrice, error) {
	query := `SELECT id, ticker, price, timestamp FROM ticker_prices
		 WHERE ticker = $1`
	args := []any{ticker}

	if start != nil {
		args = append(args, *start)
		query += ` AND timestamp >= $2`
	}
	if end != nil {
		args = append(args, *end)
		if start != nil {
			query += ` AND timestamp <= $3`
		} else {
			query += ` AND timestamp <= $2`
		}
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPrices(rows)
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanPrice(row scannable) (*models.TickerPrice, error) {
	var p models.TickerPrice
	if err := row.Scan(&p.ID, &p.Ticker, &p.Price, &p.Timestamp); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPrices(rows pgx.Rows) ([]models.TickerPrice, error) {
	var out []models.TickerPrice
	for rows.Next() {
		var p models.TickerPrice
		if err := rows.Scan(&p.ID, &p.Ticker, &p.Price, &p.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
