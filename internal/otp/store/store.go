package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned when a conditional update matched no row
	// because the record is no longer in the expected state.
	ErrConflict = errors.New("store: state changed")
)

// Store is the root data access interface. Sub-repositories are reached
// through methods so a Tx-scoped Store exposes the same surface and nested
// transactions cannot be started by accident.
type Store interface {
	Challenges() Challenges
	Identities() Identities

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Challenges interface {
	// CreateChallenge inserts a new challenge; the id is minted by the caller.
	CreateChallenge(ctx context.Context, c domain.Challenge) error

	// GetChallenge returns a challenge in any status.
	GetChallenge(ctx context.Context, id string) (domain.Challenge, error)

	// CountIssuedSince counts challenges created for target at or after since,
	// whatever their status.
	CountIssuedSince(ctx context.Context, target domain.Target, since time.Time) (int, error)

	// ConsumeAttempt decrements attempts_remaining of an active challenge
	// with attempts left, flipping it to exhausted when the budget reaches
	// zero, and returns the updated row. ErrConflict when no attempt could be
	// consumed.
	ConsumeAttempt(ctx context.Context, id string) (domain.Challenge, error)

	// MarkVerified moves an active challenge to verified. ErrConflict if it
	// was not active.
	MarkVerified(ctx context.Context, id, userID string, at time.Time) error

	// MarkExpired moves an active challenge to expired. ErrConflict if it was
	// not active.
	MarkExpired(ctx context.Context, id string) error

	// MarkSuperseded retires a challenge in favour of successorID. Verified
	// and already superseded challenges are left alone (ErrConflict).
	MarkSuperseded(ctx context.Context, id, successorID string) error

	// DeleteExpiredBefore removes challenges whose expiry is older than
	// cutoff and returns how many went.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Identities interface {
	// UpsertVerifiedIdentity creates the identity for target with id, or
	// bumps verified_at on the existing one. The stored record is returned,
	// so the id is the original one on repeat verifications.
	UpsertVerifiedIdentity(ctx context.Context, id string, target domain.Target, at time.Time) (domain.Identity, error)

	GetIdentity(ctx context.Context, id string) (domain.Identity, error)
	GetIdentityByTarget(ctx context.Context, target domain.Target) (domain.Identity, error)
}
