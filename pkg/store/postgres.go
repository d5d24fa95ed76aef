package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recera/drawflow/pkg/graph"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS drawflow_graphs (
    name       TEXT PRIMARY KEY,
    document   JSON NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PGStore implements Store using PostgreSQL via pgx. Each graph is one
// row holding the exchange document. The column is JSON rather than JSONB
// so node order survives the round trip.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a new PGStore backed by the given pgx connection pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// OpenPG connects a pool to dsn, checks it and creates the schema
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	s := NewPGStore(pool)
	if err := s.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return s, nil
}

// Close releases the pool
func (s *PGStore) Close() {
	s.db.Close()
}

// CreateSchema creates the drawflow_graphs table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the drawflow_graphs table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS drawflow_graphs;`)
	return err
}

// Load reads a graph.
func (s *PGStore) Load(ctx context.Context, name string) (*graph.Drawflow, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT document FROM drawflow_graphs WHERE name = $1`, name,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("store: load %s: %w", name, err)
	}
	g, err := graph.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", name, err)
	}
	return g, nil
}

// Save inserts or replaces a graph.
func (s *PGStore) Save(ctx context.Context, name string, g *graph.Drawflow) error {
	if err := ValidName(name); err != nil {
		return err
	}
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO drawflow_graphs (name, document) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`,
		name, doc,
	); err != nil {
		return fmt.Errorf("store: save %s: %w", name, err)
	}
	return nil
}

// Delete removes a graph.
// Returns ErrNotFound if the graph doesn't exist.
func (s *PGStore) Delete(ctx context.Context, name string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM drawflow_graphs WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", name, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// List returns every stored graph name in order.
func (s *PGStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM drawflow_graphs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return names, nil
}
