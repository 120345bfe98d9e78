// Package postgres implements contenthub.HistoryStore on PostgreSQL with the
// same capacity rule as the in-memory store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// Schema creates the history table.
const Schema = `
CREATE TABLE IF NOT EXISTS price_history (
	id          UUID PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL,
	prices      JSONB NOT NULL DEFAULT '{}'::jsonb,
	eth_price   DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS price_history_recorded_at_idx ON price_history (recorded_at)`

// Store implements contenthub.HistoryStore
type Store struct {
	pool     *pgxpool.Pool
	capacity int
}

// New creates a store keeping at most capacity points. A non-positive
// capacity selects contenthub.DefaultHistoryCapacity.
func New(pool *pgxpool.Pool, capacity int) *Store {
	if capacity <= 0 {
		capacity = contenthub.DefaultHistoryCapacity
	}
	return &Store{pool: pool, capacity: capacity}
}

// Migrate creates the history table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate price history: %w", err)
	}
	return nil
}

// Append inserts a point and trims the oldest beyond capacity in the same
// transaction.
func (s *Store) Append(ctx context.Context, point contenthub.DataPoint) error {
	id, err := pointID(point.ID)
	if err != nil {
		return err
	}
	prices := point.Prices
	if prices == nil {
		prices = map[string]float64{}
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO price_history (id, recorded_at, prices, eth_price)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			id, point.Timestamp.UTC(), prices, point.ETHPrice)
		if err != nil {
			return handlePostgresError("append", err)
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM price_history WHERE id IN (
				SELECT id FROM price_history
				ORDER BY recorded_at DESC, id DESC
				OFFSET $1
			)`, s.capacity)
		if err != nil {
			return handlePostgresError("trim", err)
		}
		return nil
	})
}

// Query returns the points newer than since, oldest first.
func (s *Store) Query(ctx context.Context, since time.Time) ([]contenthub.DataPoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, recorded_at, prices, eth_price
		FROM price_history
		WHERE recorded_at > $1
		ORDER BY recorded_at ASC, id ASC`, since.UTC())
	if err != nil {
		return nil, handlePostgresError("query", err)
	}
	defer rows.Close()

	points := []contenthub.DataPoint{}
	for rows.Next() {
		var (
			p  contenthub.DataPoint
			id uuid.UUID
		)
		if err := rows.Scan(&id, &p.Timestamp, &p.Prices, &p.ETHPrice); err != nil {
			return nil, handlePostgresError("scan", err)
		}
		p.ID = id.String()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("query", err)
	}
	return points, nil
}

// Capacity returns the maximum number of points kept.
func (s *Store) Capacity() int {
	return s.capacity
}

func pointID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.New(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid data point id %q: %w", id, contenthub.ErrInvalidParam)
	}
	return parsed, nil
}

func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "42P01" { // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		}
		return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}
