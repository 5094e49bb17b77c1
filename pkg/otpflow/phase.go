package otpflow

import "time"

// Phase is where the flow is. It is one of Requesting, Entering or
// Completed; code entry only exists inside Entering, next to the challenge it
// belongs to.
type Phase interface {
	isPhase()
}

// Requesting waits for the user to name an email address or phone number.
type Requesting struct{}

// Entering holds the challenge the user is typing a code for.
type Entering struct {
	Challenge Descriptor
}

// Completed holds the verified identity. Nothing more can be submitted.
type Completed struct {
	Identity Identity
}

func (Requesting) isPhase() {}
func (Entering) isPhase()   {}
func (Completed) isPhase()  {}

// Descriptor is the client's immutable view of one challenge. A resend
// replaces it rather than changing it.
type Descriptor struct {
	ID                string
	TargetKind        string
	Target            string
	ExpiresAt         time.Time
	AttemptsRemaining int
}

// withAttempts returns a copy carrying a new attempt count.
func (d Descriptor) withAttempts(n int) Descriptor {
	d.AttemptsRemaining = n
	return d
}

// Identity is the verified user as reported by the server.
type Identity struct {
	UserID     string
	TargetKind string
	Target     string
	VerifiedAt time.Time
}
