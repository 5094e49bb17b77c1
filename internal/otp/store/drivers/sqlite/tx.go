package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/otpgate/internal/otp/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the owning Store keeps the database open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Challenges() store.Challenges { return &challengesRepo{q: t.tx} }
func (t *txStore) Identities() store.Identities { return &identitiesRepo{q: t.tx} }

// ApplyMigrations is a no-op; migrations run on the Store before any Tx.
func (t *txStore) ApplyMigrations() error { return nil }
