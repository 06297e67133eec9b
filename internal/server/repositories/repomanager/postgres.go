// Package repomanager wires the repositories to a concrete backend and owns
// transactions and schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/housing/internal/dbx"
	"github.com/dmitrijs2005/housing/internal/server/migrations"
	"github.com/dmitrijs2005/housing/internal/server/repositories/applications"
	"github.com/dmitrijs2005/housing/internal/server/repositories/contactrequests"
	"github.com/dmitrijs2005/housing/internal/server/repositories/listings"
	"github.com/dmitrijs2005/housing/internal/server/repositories/notifications"
	"github.com/dmitrijs2005/housing/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/housing/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// txAttempts bounds re-runs of a unit of work after a serialization failure
// or deadlock.
const txAttempts = 3

type postgresStore struct {
	db dbx.DBTX
}

func (s postgresStore) Users() users.Repository { return users.NewPostgresRepository(s.db) }
func (s postgresStore) RefreshTokens() refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(s.db)
}
func (s postgresStore) Listings() listings.Repository { return listings.NewPostgresRepository(s.db) }
func (s postgresStore) Applications() applications.Repository {
	return applications.NewPostgresRepository(s.db)
}
func (s postgresStore) ContactRequests() contactrequests.Repository {
	return contactrequests.NewPostgresRepository(s.db)
}
func (s postgresStore) Notifications() notifications.Repository {
	return notifications.NewPostgresRepository(s.db)
}

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	postgresStore
	db *sql.DB
}

// NewPostgresRepositoryManager wraps an already opened pool.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{postgresStore: postgresStore{db: db}, db: db}
}

// OpenPostgres opens a pgx-backed pool for dsn and verifies it answers.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}

func (m *PostgresRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	return dbx.WithRetryTx(ctx, m.db, nil, txAttempts, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresStore{db: tx})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

// Ping reports whether the database still answers.
func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
