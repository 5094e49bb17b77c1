package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/metrics"
	"github.com/aussiebroadwan/otpgate/internal/otp/notify"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
	"github.com/aussiebroadwan/otpgate/pkg/validx"
)

const (
	defaultIssueLimit      = 5
	defaultIssueWindow     = time.Hour
	defaultDeliveryTimeout = 15 * time.Second

	deliveryWarning = "the code could not be delivered; request a new code"
)

var (
	ErrInvalidTarget     = errors.New("invalid target")
	ErrInvalidCode       = errors.New("code must be exactly 6 digits")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrAlreadyVerified   = errors.New("challenge already verified")
	ErrRateLimited       = errors.New("too many codes issued for this target")
)

var targetValidator = validx.MustNew()

// ChallengeService issues, verifies and reissues one-time codes. Every
// state change for a challenge runs inside a single store transaction.
type ChallengeService struct {
	Store        store.Store
	Sender       notify.Sender
	Fingerprints *cryptox.Fingerprinter

	// DiagnosticEcho returns the plaintext code in issue responses. Only for
	// development.
	DiagnosticEcho bool

	// IssueLimit caps how many challenges one target may receive within
	// IssueWindow, counting both creates and resends. Negative disables it.
	IssueLimit  int
	IssueWindow time.Duration

	DeliveryTimeout time.Duration

	// Now and GenerateCode default to the wall clock and cryptox.GenerateCode.
	Now          func() time.Time
	GenerateCode func() (string, error)
}

// CreateChallenge mints a challenge for target and hands the code to the
// sender once the challenge is stored. A delivery failure is reported in the
// result, not as an error.
func (s *ChallengeService) CreateChallenge(ctx context.Context, target domain.Target) (domain.IssuedChallenge, error) {
	if err := validateTarget(target); err != nil {
		return domain.IssuedChallenge{}, err
	}

	now := s.now()
	c, code, err := s.newChallenge(target, now)
	if err != nil {
		return domain.IssuedChallenge{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.checkIssueLimit(ctx, tx, target, now); err != nil {
			return err
		}
		if err := tx.Challenges().CreateChallenge(ctx, c); err != nil {
			return fmt.Errorf("failed to create challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.IssuedChallenge{}, err
	}

	metrics.ChallengesIssued.WithLabelValues(string(target.Kind), "create").Inc()
	slogx.FromContext(ctx).Info("challenge issued",
		"challenge_id", c.ID,
		"channel", target.Kind,
		"target", target.Masked(),
	)

	return s.deliver(ctx, c, code, now), nil
}

// Verify checks code against the challenge and returns the verdict. Wrong
// codes, expiry and exhaustion are outcomes rather than errors so that the
// state they imply is committed. A challenge that was already verified
// yields ErrAlreadyVerified and is never accepted twice.
func (s *ChallengeService) Verify(ctx context.Context, challengeID, code string) (domain.VerificationResult, error) {
	if !cryptox.IsCode(code) {
		return domain.VerificationResult{}, ErrInvalidCode
	}

	id, err := idx.Parse(challengeID)
	if err != nil {
		result := domain.VerificationResult{Outcome: domain.OutcomeNotFound, ChallengeID: challengeID}
		metrics.Verifications.WithLabelValues(string(result.Outcome)).Inc()
		return result, nil
	}

	now := s.now()
	var result domain.VerificationResult

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.Challenges().GetChallenge(ctx, id.String())
		if errors.Is(err, store.ErrNotFound) {
			result = domain.VerificationResult{Outcome: domain.OutcomeNotFound, ChallengeID: id.String()}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load challenge: %w", err)
		}

		result = domain.VerificationResult{ChallengeID: c.ID, AttemptsRemaining: c.AttemptsRemaining}

		switch {
		case c.Status == domain.StatusSuperseded:
			result.Outcome = domain.OutcomeNotFound
			result.AttemptsRemaining = 0
			return nil

		case c.Status == domain.StatusVerified:
			return ErrAlreadyVerified

		case c.Status == domain.StatusExpired || c.ExpiredAt(now):
			if c.Status == domain.StatusActive {
				if err := tx.Challenges().MarkExpired(ctx, c.ID); err != nil {
					return fmt.Errorf("failed to expire challenge: %w", err)
				}
			}
			result.Outcome = domain.OutcomeExpired
			return nil

		case c.Status == domain.StatusExhausted || c.AttemptsRemaining <= 0:
			result.Outcome = domain.OutcomeExhausted
			result.AttemptsRemaining = 0
			return nil
		}

		if !s.Fingerprints.Matches(c.ID, code, c.CodeHash) {
			updated, err := tx.Challenges().ConsumeAttempt(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("failed to consume attempt: %w", err)
			}
			result.Outcome = domain.OutcomeWrongCode
			result.AttemptsRemaining = updated.AttemptsRemaining
			return nil
		}

		ident, err := tx.Identities().UpsertVerifiedIdentity(ctx, idx.NewAt(now).String(), c.Target, now)
		if err != nil {
			return fmt.Errorf("failed to record identity: %w", err)
		}
		if err := tx.Challenges().MarkVerified(ctx, c.ID, ident.ID, now); err != nil {
			return fmt.Errorf("failed to mark challenge verified: %w", err)
		}

		result.Outcome = domain.OutcomeAccepted
		result.Identity = &domain.IdentitySnapshot{
			UserID:     ident.ID,
			Target:     c.Target,
			VerifiedAt: now,
		}
		return nil
	})
	if errors.Is(err, ErrAlreadyVerified) {
		metrics.Verifications.WithLabelValues("already_verified").Inc()
		return domain.VerificationResult{}, err
	}
	if err != nil {
		return domain.VerificationResult{}, err
	}

	metrics.Verifications.WithLabelValues(string(result.Outcome)).Inc()
	slogx.FromContext(ctx).Info("code submitted",
		"challenge_id", result.ChallengeID,
		"outcome", result.Outcome,
		"attempts_remaining", result.AttemptsRemaining,
	)
	return result, nil
}

// Resend issues a fresh challenge for the same target and retires the old
// one. Any prior state other than verified or superseded may be replaced;
// the new challenge starts with a full attempt budget and validity window.
func (s *ChallengeService) Resend(ctx context.Context, challengeID string) (domain.IssuedChallenge, error) {
	id, err := idx.Parse(challengeID)
	if err != nil {
		return domain.IssuedChallenge{}, ErrChallengeNotFound
	}

	now := s.now()
	var (
		next domain.Challenge
		code string
	)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		prior, err := tx.Challenges().GetChallenge(ctx, id.String())
		if errors.Is(err, store.ErrNotFound) {
			return ErrChallengeNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load challenge: %w", err)
		}

		switch prior.Status {
		case domain.StatusSuperseded:
			return ErrChallengeNotFound
		case domain.StatusVerified:
			return ErrAlreadyVerified
		}

		if err := s.checkIssueLimit(ctx, tx, prior.Target, now); err != nil {
			return err
		}

		next, code, err = s.newChallenge(prior.Target, now)
		if err != nil {
			return err
		}
		if err := tx.Challenges().CreateChallenge(ctx, next); err != nil {
			return fmt.Errorf("failed to create challenge: %w", err)
		}
		if err := tx.Challenges().MarkSuperseded(ctx, prior.ID, next.ID); err != nil {
			return fmt.Errorf("failed to supersede challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.IssuedChallenge{}, err
	}

	metrics.ChallengesIssued.WithLabelValues(string(next.Target.Kind), "resend").Inc()
	slogx.FromContext(ctx).Info("challenge reissued",
		"challenge_id", next.ID,
		"supersedes", id.String(),
		"channel", next.Target.Kind,
	)

	return s.deliver(ctx, next, code, now), nil
}

func (s *ChallengeService) newChallenge(target domain.Target, now time.Time) (domain.Challenge, string, error) {
	gen := s.GenerateCode
	if gen == nil {
		gen = cryptox.GenerateCode
	}
	code, err := gen()
	if err != nil {
		return domain.Challenge{}, "", fmt.Errorf("failed to generate code: %w", err)
	}

	id := idx.NewAt(now).String()
	return domain.Challenge{
		ID:                id,
		Target:            target,
		CodeHash:          s.Fingerprints.Fingerprint(id, code),
		Status:            domain.StatusActive,
		AttemptsRemaining: domain.MaxAttempts,
		CreatedAt:         now,
		ExpiresAt:         now.Add(domain.ValidityWindow),
	}, code, nil
}

func (s *ChallengeService) checkIssueLimit(ctx context.Context, tx store.Tx, target domain.Target, now time.Time) error {
	limit := s.IssueLimit
	if limit < 0 {
		return nil
	}
	if limit == 0 {
		limit = defaultIssueLimit
	}
	window := s.IssueWindow
	if window <= 0 {
		window = defaultIssueWindow
	}

	n, err := tx.Challenges().CountIssuedSince(ctx, target, now.Add(-window))
	if err != nil {
		return fmt.Errorf("failed to count issued challenges: %w", err)
	}
	if n >= limit {
		metrics.IssueRejected.WithLabelValues(string(target.Kind)).Inc()
		return ErrRateLimited
	}
	return nil
}

func (s *ChallengeService) deliver(ctx context.Context, c domain.Challenge, code string, now time.Time) domain.IssuedChallenge {
	issued := domain.IssuedChallenge{
		Challenge: c.Descriptor(),
		Delivery:  domain.Delivery{Channel: c.Target.Kind, Status: domain.DeliverySent},
	}
	if s.DiagnosticEcho {
		issued.Code = code
	}

	timeout := s.DeliveryTimeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	start := time.Now()
	if s.Sender == nil {
		err = notify.ErrChannelUnavailable
	} else {
		err = s.Sender.Send(ctx, c.Target, code, c.ExpiresAt.Sub(now))
	}
	metrics.DeliveryDuration.WithLabelValues(string(c.Target.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		slogx.FromContext(ctx).Warn("failed to deliver code",
			"challenge_id", c.ID,
			"channel", c.Target.Kind,
			"target", c.Target.Masked(),
			"err", err,
		)
		issued.Delivery.Status = domain.DeliveryFailed
		issued.Delivery.Warning = deliveryWarning
	}
	metrics.Deliveries.WithLabelValues(string(c.Target.Kind), string(issued.Delivery.Status)).Inc()

	return issued
}

func (s *ChallengeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateTarget(t domain.Target) error {
	var tag string
	switch t.Kind {
	case domain.TargetEmail:
		tag = "required,email"
	case domain.TargetPhone:
		tag = "required,phone"
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTarget, t.Kind)
	}
	if err := targetValidator.Var(t.Value, tag); err != nil {
		return fmt.Errorf("%w: %s is not a valid %s", ErrInvalidTarget, t.Value, t.Kind)
	}
	return nil
}
