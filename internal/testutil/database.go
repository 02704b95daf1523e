package testutil

import (
	"context"
	"fmt"

	"github.com/bissquit/meetup-hub/internal/pkg/postgres"
	"github.com/bissquit/meetup-hub/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is a migrated PostgreSQL instance running in a container.
type Database struct {
	Container *PostgresContainer
	Pool      *pgxpool.Pool
}

// NewDatabase starts PostgreSQL, applies migrations and opens a pool.
func NewDatabase(ctx context.Context) (*Database, error) {
	container, err := NewPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(migrations.FS, container.ConnectionString); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	pool, err := pgxpool.New(ctx, container.ConnectionString)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("open pool: %w", err)
	}

	return &Database{Container: container, Pool: pool}, nil
}

// Close releases the pool and stops the container.
func (d *Database) Close(ctx context.Context) {
	d.Pool.Close()
	_ = d.Container.Terminate(ctx)
}
