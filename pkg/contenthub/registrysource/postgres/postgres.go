// Package postgres serves the curated registry from a PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// Schema creates the registry table.
const Schema = `
CREATE TABLE IF NOT EXISTS content_registry (
	address  TEXT NOT NULL,
	chain    TEXT NOT NULL,
	type     TEXT NOT NULL,
	name     TEXT NOT NULL DEFAULT '',
	featured BOOLEAN NOT NULL DEFAULT FALSE,
	extra    JSONB NOT NULL DEFAULT '{}'::jsonb,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (chain, address, type)
)`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

// Source implements contenthub.RegistrySource using PostgreSQL
type Source struct {
	db DBTX
}

// New creates a new PostgreSQL registry source
func New(db DBTX) *Source {
	return &Source{db: db}
}

// NewWithPool creates a new PostgreSQL registry source with connection pool
func NewWithPool(pool *pgxpool.Pool) *Source {
	return &Source{db: pool}
}

// Migrate creates the registry table if it does not exist.
func (s *Source) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return handlePostgresError("migrate", err)
	}
	return nil
}

// GetContracts returns the records of chain, or of every chain for "all",
// in chain priority order and then table position.
func (s *Source) GetContracts(ctx context.Context, chain string) ([]contenthub.ContentRecord, error) {
	chains, err := contenthub.Scope(chain)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(chains))
	for i, c := range chains {
		names[i] = string(c)
	}

	query := `
		SELECT address, chain, type, name, featured, extra
		FROM content_registry
		WHERE chain = ANY($1)
		ORDER BY array_position($1::text[], chain), position, address`

	rows, err := s.db.Query(ctx, query, names)
	if err != nil {
		return nil, handlePostgresError("get contracts", err)
	}
	defer rows.Close()

	var records []contenthub.ContentRecord
	for rows.Next() {
		var (
			rec   contenthub.ContentRecord
			chain string
			kind  string
			extra map[string]any
		)
		if err := rows.Scan(&rec.Address, &chain, &kind, &rec.Name, &rec.Featured, &extra); err != nil {
			return nil, handlePostgresError("scan contract", err)
		}
		rec.Chain = contenthub.Chain(chain)
		rec.Type = contenthub.ContentType(kind)
		rec.Extra = contenthub.Fields(extra)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("get contracts", err)
	}
	return records, nil
}

// Put upserts records, keeping their order as table position.
func (s *Source) Put(ctx context.Context, records []contenthub.ContentRecord) error {
	query := `
		INSERT INTO content_registry (address, chain, type, name, featured, extra, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chain, address, type) DO UPDATE SET
			name = EXCLUDED.name, featured = EXCLUDED.featured,
			extra = EXCLUDED.extra, position = EXCLUDED.position`

	for i, rec := range records {
		extra := rec.Extra
		if extra == nil {
			extra = contenthub.Fields{}
		}
		_, err := s.db.Exec(ctx, query,
			rec.Address, string(rec.Chain), string(rec.Type), rec.Name, rec.Featured, map[string]any(extra), i)
		if err != nil {
			return handlePostgresError("put contract", err)
		}
	}
	return nil
}

func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing: %w", pgErr.ColumnName, contenthub.ErrInvalidParam)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}
