package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorageAdapter implements the storage ports on top of a pgx pool.
// The read and write method sets live in their own files.
type PostgresStorageAdapter struct {
	pool *pgxpool.Pool
}

// NewPostgresStorageAdapter creates a new adapter instance.
func NewPostgresStorageAdapter(pool *pgxpool.Pool) (*PostgresStorageAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool is required")
	}
	return &PostgresStorageAdapter{pool: pool}, nil
}
