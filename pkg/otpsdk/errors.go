package otpsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/otpgate/pkg/httpx"
)

const (
	ErrorCodeValidation   = "validation_error"
	ErrorCodeWrongCode    = "wrong_code"
	ErrorCodeExpired      = "expired"
	ErrorCodeExhausted    = "exhausted"
	ErrorCodeNotFound     = "not_found"
	ErrorCodeInvalidState = "invalid_state"
	ErrorCodeRateLimited  = "rate_limited"
	ErrorCodeServerError  = "server_error"
)

// APIError is the error body shared by the server (to write responses) and
// the client (to report them).
type APIError struct {
	StatusCode        int
	Code              string
	Description       string
	ChallengeID       string
	AttemptsRemaining *int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Response is the wire form of e.
func (e *APIError) Response() ErrorResponse {
	return ErrorResponse{
		Error:             e.Code,
		ErrorDescription:  e.Description,
		ChallengeID:       e.ChallengeID,
		AttemptsRemaining: e.AttemptsRemaining,
	}
}

// WriteError writes e as a JSON error response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e.Response())
}

// WithChallenge returns a copy of e scoped to a challenge.
func (e *APIError) WithChallenge(id string, attemptsRemaining *int) *APIError {
	cp := *e
	cp.ChallengeID = id
	cp.AttemptsRemaining = attemptsRemaining
	return &cp
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(desc string) *APIError {
	cp := *e
	cp.Description = desc
	return &cp
}

var (
	ErrValidation = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "the request is malformed or missing required fields",
	}

	ErrWrongCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeWrongCode,
		Description: "the code is incorrect",
	}

	ErrExpired = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeExpired,
		Description: "the code has expired; request a new one",
	}

	ErrExhausted = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeExhausted,
		Description: "too many incorrect attempts; request a new code",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "challenge not found or no longer valid",
	}

	ErrInvalidState = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeInvalidState,
		Description: "challenge has already been verified",
	}

	ErrRateLimited = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimited,
		Description: "too many codes requested; try again later",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// ErrorCode returns the API error code carried by err, or "" if err is not
// an *APIError.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:        resp.StatusCode,
			Code:              errResp.Error,
			Description:       errResp.ErrorDescription,
			ChallengeID:       errResp.ChallengeID,
			AttemptsRemaining: errResp.AttemptsRemaining,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
