package domain

import "time"

type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeWrongCode Outcome = "wrong_code"
	OutcomeExpired   Outcome = "expired"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeNotFound  Outcome = "not_found"
)

// VerificationResult is the verdict for one code submission.
type VerificationResult struct {
	Outcome           Outcome
	ChallengeID       string
	AttemptsRemaining int
	Identity          *IdentitySnapshot // set only when accepted
}

func (r VerificationResult) Accepted() bool { return r.Outcome == OutcomeAccepted }

// IdentitySnapshot captures who was verified and when.
type IdentitySnapshot struct {
	UserID     string
	Target     Target
	VerifiedAt time.Time
}

// Identity is the durable record for a verified email or phone.
type Identity struct {
	ID         string
	Target     Target
	VerifiedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
