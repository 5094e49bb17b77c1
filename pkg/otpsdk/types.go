package otpsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	// Error is the machine readable code (e.g., "wrong_code", "expired")
	Error string `json:"error" example:"wrong_code"`

	// ErrorDescription is a human readable description of the error
	ErrorDescription string `json:"error_description" example:"the code is incorrect"`

	// ChallengeID echoes the challenge the error refers to, when known
	ChallengeID string `json:"challenge_id,omitempty" example:"01J9Z3YJ3X4M0S5W6Q7R8T9V0A"`

	// AttemptsRemaining is set for wrong_code, expired and exhausted
	AttemptsRemaining *int `json:"attempts_remaining,omitempty" example:"2"`
}

// ============================================================================
// Challenge Types
// ============================================================================

// CreateChallengeRequest asks for a code to be sent to exactly one of Email
// or Phone.
type CreateChallengeRequest struct {
	Email string `json:"email,omitempty" validate:"required_without=Phone,excluded_with=Phone,omitempty,email,max=254" example:"user@example.com"`
	Phone string `json:"phone,omitempty" validate:"required_without=Email,excluded_with=Email,omitempty,phone" example:"+61400000000"`
}

// ResendRequest asks for the challenge to be replaced by a fresh one.
type ResendRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required,max=64" example:"01J9Z3YJ3X4M0S5W6Q7R8T9V0A"`
}

// DeliveryInfo reports how handing the code to its channel went.
type DeliveryInfo struct {
	Channel string `json:"channel" example:"email"`
	Status  string `json:"status" example:"sent"`
	Warning string `json:"warning,omitempty"`
}

// ChallengeResponse describes an issued challenge. It is returned by both
// create and resend.
type ChallengeResponse struct {
	ChallengeID       string    `json:"challenge_id" example:"01J9Z3YJ3X4M0S5W6Q7R8T9V0A"`
	TargetKind        string    `json:"target_kind" example:"email"`
	ExpiresAt         time.Time `json:"expires_at"`
	AttemptsRemaining int       `json:"attempts_remaining" example:"3"`

	// Code is only present when the server runs with diagnostic echo enabled
	Code string `json:"code,omitempty" example:"123456"`

	Delivery DeliveryInfo `json:"delivery"`
}

// ============================================================================
// Verification Types
// ============================================================================

// VerifyRequest submits a code for a challenge.
type VerifyRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required,max=64" example:"01J9Z3YJ3X4M0S5W6Q7R8T9V0A"`
	Code        string `json:"code" validate:"required,otpcode" example:"123456"`
}

// IdentityInfo is the verified identity snapshot.
type IdentityInfo struct {
	UserID     string    `json:"user_id" example:"01J9Z3YJ3X4M0S5W6Q7R8T9V0B"`
	TargetKind string    `json:"target_kind" example:"email"`
	Target     string    `json:"target" example:"user@example.com"`
	VerifiedAt time.Time `json:"verified_at"`
}

// VerifyResponse is returned for an accepted code. Every other outcome is an
// *APIError.
type VerifyResponse struct {
	Outcome     string       `json:"outcome" example:"accepted"`
	ChallengeID string       `json:"challenge_id" example:"01J9Z3YJ3X4M0S5W6Q7R8T9V0A"`
	Identity    IdentityInfo `json:"identity"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime,omitempty" example:"1h23m45s"`
	Version string        `json:"version,omitempty" example:"v0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of each critical dependency.
type HealthChecks struct {
	Database string `json:"database"`
}
