package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

const identityColumns = `id, target_kind, target, verified_at, created_at, updated_at`

type identitiesRepo struct {
	q querier
}

func scanIdentity(row rowScanner) (domain.Identity, error) {
	var (
		ident                        domain.Identity
		kind                         string
		verifiedAt, created, updated int64
	)
	if err := row.Scan(&ident.ID, &kind, &ident.Target.Value, &verifiedAt, &created, &updated); err != nil {
		return domain.Identity{}, mapNotFound(err)
	}

	ident.Target.Kind = domain.TargetKind(kind)
	ident.VerifiedAt = fromMillis(verifiedAt)
	ident.CreatedAt = fromMillis(created)
	ident.UpdatedAt = fromMillis(updated)
	return ident, nil
}

func (r *identitiesRepo) UpsertVerifiedIdentity(ctx context.Context, id string, target domain.Target, at time.Time) (domain.Identity, error) {
	ms := toMillis(at)
	row := r.q.QueryRowContext(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (target_kind, target) DO UPDATE
		SET verified_at = excluded.verified_at, updated_at = excluded.updated_at
		RETURNING `+identityColumns,
		id, string(target.Kind), target.Value, ms, ms, ms,
	)
	return scanIdentity(row)
}

func (r *identitiesRepo) GetIdentity(ctx context.Context, id string) (domain.Identity, error) {
	return scanIdentity(r.q.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id))
}

func (r *identitiesRepo) GetIdentityByTarget(ctx context.Context, target domain.Target) (domain.Identity, error) {
	return scanIdentity(r.q.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE target_kind = ? AND target = ?`,
		string(target.Kind), target.Value,
	))
}
