package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
)

const challengeColumns = `id, target_kind, target, code_hash, status, attempts_remaining,
	created_at, expires_at, superseded_by, verified_at, user_id`

type challengesRepo struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (domain.Challenge, error) {
	var (
		c                    domain.Challenge
		kind, status         string
		createdAt, expires   int64
		supersededBy, userID sql.NullString
		verifiedAt           sql.NullInt64
	)

	err := row.Scan(
		&c.ID, &kind, &c.Target.Value, &c.CodeHash, &status, &c.AttemptsRemaining,
		&createdAt, &expires, &supersededBy, &verifiedAt, &userID,
	)
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}

	c.Target.Kind = domain.TargetKind(kind)
	c.Status = domain.ChallengeStatus(status)
	c.CreatedAt = fromMillis(createdAt)
	c.ExpiresAt = fromMillis(expires)
	c.SupersededBy = mapNullString(supersededBy)
	c.VerifiedAt = mapNullMillis(verifiedAt)
	c.UserID = mapNullString(userID)
	return c, nil
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.Challenge) error {
	status := c.Status
	if status == "" {
		status = domain.StatusActive
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO challenges (`+challengeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Target.Kind), c.Target.Value, c.CodeHash, string(status), c.AttemptsRemaining,
		toMillis(c.CreatedAt), toMillis(c.ExpiresAt),
		nullString(c.SupersededBy), nullMillis(c.VerifiedAt), nullString(c.UserID),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *challengesRepo) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id)
	return scanChallenge(row)
}

func (r *challengesRepo) CountIssuedSince(ctx context.Context, target domain.Target, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM challenges
		WHERE target_kind = ? AND target = ? AND created_at >= ?`,
		string(target.Kind), target.Value, toMillis(since),
	).Scan(&n)
	return n, err
}

func (r *challengesRepo) ConsumeAttempt(ctx context.Context, id string) (domain.Challenge, error) {
	// SET expressions see the pre-update row, so the CASE tests the value
	// being written.
	row := r.q.QueryRowContext(ctx, `
		UPDATE challenges
		SET attempts_remaining = attempts_remaining - 1,
		    status = CASE WHEN attempts_remaining - 1 <= 0 THEN 'exhausted' ELSE status END
		WHERE id = ? AND status = 'active' AND attempts_remaining > 0
		RETURNING `+challengeColumns, id)

	c, err := scanChallenge(row)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Challenge{}, store.ErrConflict
	}
	return c, err
}

func (r *challengesRepo) MarkVerified(ctx context.Context, id, userID string, at time.Time) error {
	return expectOneRow(r.q.ExecContext(ctx, `
		UPDATE challenges
		SET status = 'verified', verified_at = ?, user_id = ?
		WHERE id = ? AND status = 'active' AND attempts_remaining > 0`,
		toMillis(at), userID, id,
	))
}

func (r *challengesRepo) MarkExpired(ctx context.Context, id string) error {
	return expectOneRow(r.q.ExecContext(ctx, `
		UPDATE challenges SET status = 'expired'
		WHERE id = ? AND status = 'active'`, id,
	))
}

func (r *challengesRepo) MarkSuperseded(ctx context.Context, id, successorID string) error {
	return expectOneRow(r.q.ExecContext(ctx, `
		UPDATE challenges SET status = 'superseded', superseded_by = ?
		WHERE id = ? AND status IN ('active', 'expired', 'exhausted')`,
		successorID, id,
	))
}

func (r *challengesRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM challenges WHERE expires_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
