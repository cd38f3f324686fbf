// Package postgres saves channel descriptions to PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure Saver implements the interface.
var _ driven.Saver = (*Saver)(nil)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS descriptions (
		id UUID PRIMARY KEY,
		channel_id TEXT NOT NULL,
		description TEXT NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

const insertSQL = `
	INSERT INTO descriptions (id, channel_id, description, saved_at)
	VALUES ($1, $2, $3, $4)`

// pool is the subset of *pgxpool.Pool used by the saver.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// connectFunc opens a pool for a connection string.
type connectFunc func(ctx context.Context, dsn string) (pool, error)

// Saver inserts descriptions into a PostgreSQL table, keeping one pool per
// connection string.
type Saver struct {
	mu      sync.Mutex
	pools   map[string]pool
	connect connectFunc
	now     func() time.Time
}

// NewSaver creates a PostgreSQL saver.
func NewSaver() *Saver {
	return &Saver{
		pools:   make(map[string]pool),
		connect: connectPool,
		now:     time.Now,
	}
}

// Name returns the saver name.
func (s *Saver) Name() string {
	return string(domain.SaveTargetPostgres)
}

// Save inserts the description using destination as the connection string.
func (s *Saver) Save(ctx context.Context, id, content, destination string) error {
	if destination == "" {
		return fmt.Errorf("%w: postgres connection string is required", domain.ErrInvalidInput)
	}

	p, err := s.pool(ctx, destination)
	if err != nil {
		return err
	}
	if _, err := p.Exec(ctx, insertSQL, uuid.New(), id, content, s.now().UTC()); err != nil {
		return fmt.Errorf("insert description: %w", err)
	}
	return nil
}

func (s *Saver) pool(ctx context.Context, dsn string) (pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pools[dsn]; ok {
		return p, nil
	}
	p, err := s.connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := p.Exec(ctx, createTableSQL); err != nil {
		p.Close()
		return nil, fmt.Errorf("create descriptions table: %w", err)
	}
	s.pools[dsn] = p
	return p, nil
}

// Close closes every pool.
func (s *Saver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for dsn, p := range s.pools {
		p.Close()
		delete(s.pools, dsn)
	}
	return nil
}

func connectPool(ctx context.Context, dsn string) (pool, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return p, nil
}
