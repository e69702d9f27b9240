// Package store reads grant rows from the hosted Postgres bandi table
// and writes back rendered documentation summaries.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phuslu/log"

	"github.com/openbandi/grantdocs/internal/model"
)

// ErrMissingDSN is returned when DATABASE_URL is not set.
var ErrMissingDSN = errors.New("DATABASE_URL environment variable is not set")

// Store wraps the connection pool to the bandi table
type Store struct {
	pool       *pgxpool.Pool
	table      string
	maxRetries int
	retryDelay time.Duration
}

// New connects to the database named by the DATABASE_URL environment
// variable. A missing variable is a configuration error that should
// terminate the run.
func New(ctx context.Context, cfg model.DatabaseConfig) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{
		pool:       pool,
		table:      cfg.Table,
		maxRetries: cfg.MaxWriteRetries,
		retryDelay: cfg.WriteRetryDelay,
	}, nil
}

// Close releases the connection pool
func (s *Store) Close() {
	s.pool.Close()
}

const grantColumns = "id, link_bando, link_sito_bando, nome_bando"

// GetActiveGrants returns the grants that still need processing: rows
// without a documentation summary
func (s *Store) GetActiveGrants(ctx context.Context) ([]model.Grant, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE documentation_summary IS NULL OR documentation_summary = '' ORDER BY id",
		grantColumns, s.table,
	)
	return s.queryGrants(ctx, query)
}

// GetAllGrants returns every grant row regardless of processing state
func (s *Store) GetAllGrants(ctx context.Context) ([]model.Grant, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", grantColumns, s.table)
	return s.queryGrants(ctx, query)
}

// GetGrant returns a single grant by ID
func (s *Store) GetGrant(ctx context.Context, id string) (model.Grant, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", grantColumns, s.table)

	var g model.Grant
	var linkBando, linkSitoBando, nomeBando *string

	err := s.pool.QueryRow(ctx, query, id).Scan(&g.ID, &linkBando, &linkSitoBando, &nomeBando)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Grant{}, fmt.Errorf("grant %s not found", id)
		}
		return model.Grant{}, fmt.Errorf("get grant %s: %w", id, err)
	}

	g.LinkBando = deref(linkBando)
	g.LinkSitoBando = deref(linkSitoBando)
	g.NomeBando = deref(nomeBando)
	return g, nil
}

// GrantExists reports whether a grant row with the given ID exists
func (s *Store) GrantExists(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", s.table)

	var exists bool
	if err := s.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check grant %s: %w", id, err)
	}
	return exists, nil
}

// UpdateDocumentationSummary writes the rendered Markdown back to the
// grant row, retrying transient failures with a fixed delay
func (s *Store) UpdateDocumentationSummary(ctx context.Context, id, summary string) error {
	query := fmt.Sprintf("UPDATE %s SET documentation_summary = $1 WHERE id = $2", s.table)

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		tag, err := s.pool.Exec(ctx, query, summary, id)
		if err == nil {
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("grant %s not found", id)
			}
			return nil
		}
		lastErr = err
		log.Warn().Str("grant_id", id).Int("attempt", attempt).Err(err).Msg("summary write failed")

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}

	return fmt.Errorf("update grant %s after %d attempts: %w", id, s.maxRetries, lastErr)
}

func (s *Store) queryGrants(ctx context.Context, query string) ([]model.Grant, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	var grants []model.Grant
	for rows.Next() {
		var g model.Grant
		var linkBando, linkSitoBando, nomeBando *string

		if err := rows.Scan(&g.ID, &linkBando, &linkSitoBando, &nomeBando); err != nil {
			return nil, fmt.Errorf("scan grant row: %w", err)
		}

		g.LinkBando = deref(linkBando)
		g.LinkSitoBando = deref(linkSitoBando)
		g.NomeBando = deref(nomeBando)
		grants = append(grants, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grant rows: %w", err)
	}
	return grants, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
