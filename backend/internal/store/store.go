package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"wikigraph/backend/internal/constants"
	apperrors "wikigraph/backend/pkg/errors"
	"wikigraph/backend/pkg/logger"
)

// Store handles all Postgres/pgvector database operations
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects to Postgres and returns a store
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.NewStoreConnectionFailed(dsn, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewStoreConnectionFailed(dsn, err)
	}
	return &Store{
		pool:   pool,
		logger: logger.Get(),
	}, nil
}

// Close releases the connection pool
func (s *Store) Close() {
	s.pool.Close()
}

// InitSchema creates the extension, enum, tables and indexes. Idempotent;
// runs inside a single transaction.
func (s *Store) InitSchema(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`DO $$ BEGIN
			CREATE TYPE link_type AS ENUM ('hyper', 'breakDown', 'hybrid');
		EXCEPTION
			WHEN duplicate_object THEN NULL;
		END $$`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS views (
			id TEXT PRIMARY KEY,
			page_name TEXT NOT NULL UNIQUE,
			summary TEXT,
			desc_img TEXT,
			page_vect vector(%d),
			audio TEXT
		)`, constants.EmbeddingDimensions),

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_views_lower_page_name ON views (lower(page_name))`,

		`CREATE TABLE IF NOT EXISTS links (
			id TEXT PRIMARY KEY,
			view_id TEXT NOT NULL REFERENCES views(id) ON DELETE CASCADE,
			page_name TEXT NOT NULL
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS breakdowns (
			id TEXT PRIMARY KEY,
			view_id TEXT NOT NULL REFERENCES views(id) ON DELETE CASCADE,
			sentence TEXT NOT NULL,
			vect vector(%d)
		)`, constants.EmbeddingDimensions),

		// Edges carry no natural key, so rows get generated ids. Position
		// preserves the ranked order across a read back.
		`CREATE TABLE IF NOT EXISTS edges (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			view_id TEXT NOT NULL REFERENCES views(id) ON DELETE CASCADE,
			origin_page_id TEXT NOT NULL,
			dest_page_name TEXT NOT NULL,
			relevance INT NOT NULL,
			link_type link_type NOT NULL,
			tags TEXT[],
			position INT NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	s.logger.Info("Database schema initialized")
	return nil
}
