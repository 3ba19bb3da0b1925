package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/sqlerr"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// IStorage is the ledger's only channel to durable state. Write opens a unit
// of work; Read serves side-effect free lookups outside of one.
type IStorage interface {
	Read() *Reader
	Write(ctx context.Context) (*Writer, error)
}

// Storage is the Postgres implementation of IStorage.
type Storage struct {
	DB          *sql.DB
	exec        bob.DB
	reader      *Reader
	lockTimeout time.Duration
}

var _ IStorage = (*Storage)(nil)

// NewStorage opens the connection pool described by env. Connections are
// established lazily; use Ping to check reachability.
func NewStorage(env *config.Config) (*Storage, error) {
	db, err := sql.Open("postgres", env.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	db.SetMaxOpenConns(env.PostgresMaxOpenConns)
	db.SetMaxIdleConns(env.PostgresMaxIdleConns)
	db.SetConnMaxLifetime(env.PostgresConnMaxLifetime)

	return NewStorageFromDB(db, env.LockTimeout), nil
}

// NewStorageFromDB wraps an existing pool.
func NewStorageFromDB(db *sql.DB, lockTimeout time.Duration) *Storage {
	exec := bob.NewDB(db)
	return &Storage{
		DB:          db,
		exec:        exec,
		reader:      NewReader(exec),
		lockTimeout: lockTimeout,
	}
}

func (s *Storage) Read() *Reader {
	return s.reader
}

// Write begins a database transaction and bounds every row lock wait inside
// it by the configured lock timeout.
func (s *Storage) Write(ctx context.Context) (*Writer, error) {
	tx, err := s.exec.BeginTx(ctx, nil)
	if err != nil {
		return nil, sqlerr.Translate(err, nil)
	}

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, sqlerr.Translate(err, nil)
		}
	}

	return NewWriter(tx, account.NewWriter(tx), transaction.NewWriter(tx)), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return sqlerr.Translate(s.DB.PingContext(ctx), nil)
}

func (s *Storage) Close() error {
	return s.DB.Close()
}
