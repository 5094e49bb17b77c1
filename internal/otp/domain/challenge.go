package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	// MaxAttempts is the number of wrong submissions a challenge tolerates.
	MaxAttempts = 3

	// ValidityWindow is how long a code may be used after it is issued.
	ValidityWindow = 5 * time.Minute
)

type TargetKind string

const (
	TargetEmail TargetKind = "email"
	TargetPhone TargetKind = "phone"
)

func (k TargetKind) Valid() bool { return k == TargetEmail || k == TargetPhone }

// Target is the email address or phone number a challenge proves control of.
type Target struct {
	Kind  TargetKind
	Value string
}

var (
	ErrNoTarget        = errors.New("exactly one of email or phone is required")
	ErrAmbiguousTarget = errors.New("only one of email or phone may be given")
)

// NewTarget picks the single non-empty claim. Emails are lower-cased; format
// validation happens at the API boundary.
func NewTarget(email, phone string) (Target, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	switch {
	case email != "" && phone != "":
		return Target{}, ErrAmbiguousTarget
	case email != "":
		return Target{Kind: TargetEmail, Value: strings.ToLower(email)}, nil
	case phone != "":
		return Target{Kind: TargetPhone, Value: phone}, nil
	default:
		return Target{}, ErrNoTarget
	}
}

func (t Target) String() string { return string(t.Kind) + ":" + t.Value }

// Masked hides most of the target for logs.
func (t Target) Masked() string {
	v := t.Value
	if t.Kind == TargetEmail {
		local, domain, ok := strings.Cut(v, "@")
		if !ok || len(local) == 0 {
			return "***"
		}
		return local[:1] + "***@" + domain
	}
	if len(v) <= 4 {
		return "***"
	}
	return "***" + v[len(v)-4:]
}

type ChallengeStatus string

const (
	StatusActive     ChallengeStatus = "active"
	StatusVerified   ChallengeStatus = "verified"
	StatusExpired    ChallengeStatus = "expired"
	StatusExhausted  ChallengeStatus = "exhausted"
	StatusSuperseded ChallengeStatus = "superseded"
)

// Challenge is one issued code with its own expiry and attempt budget. The
// code itself is only kept as a fingerprint.
type Challenge struct {
	ID                string
	Target            Target
	CodeHash          string
	Status            ChallengeStatus
	AttemptsRemaining int
	CreatedAt         time.Time
	ExpiresAt         time.Time

	SupersededBy string     // successor id once superseded
	VerifiedAt   *time.Time // set once verified
	UserID       string     // identity bound on verification
}

// ExpiredAt reports whether the validity window has closed at now.
func (c Challenge) ExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Usable reports whether a submission may still be checked against the code.
func (c Challenge) Usable(now time.Time) bool {
	return c.Status == StatusActive && !c.ExpiredAt(now) && c.AttemptsRemaining > 0
}

// Descriptor is what a client learns about an issued challenge.
func (c Challenge) Descriptor() ChallengeDescriptor {
	return ChallengeDescriptor{
		ID:                c.ID,
		TargetKind:        c.Target.Kind,
		ExpiresAt:         c.ExpiresAt,
		AttemptsRemaining: c.AttemptsRemaining,
	}
}

type ChallengeDescriptor struct {
	ID                string
	TargetKind        TargetKind
	ExpiresAt         time.Time
	AttemptsRemaining int
}

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// Delivery records what happened when a code was handed to a sender. A
// failed delivery leaves the challenge in place.
type Delivery struct {
	Channel TargetKind
	Status  DeliveryStatus
	Warning string
}

// IssuedChallenge is returned by create and resend. Code is only populated
// when diagnostic echo is enabled.
type IssuedChallenge struct {
	Challenge ChallengeDescriptor
	Code      string
	Delivery  Delivery
}
