package otpsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *SDKClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewSDKClient(srv.URL + "/")
}

func TestCreateChallenge(t *testing.T) {
	expires := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/otp/challenges", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateChallengeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "user@example.com", req.Email)
		require.Empty(t, req.Phone)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ChallengeResponse{
			ChallengeID:       "01J9Z3YJ3X4M0S5W6Q7R8T9V0A",
			TargetKind:        "email",
			ExpiresAt:         expires,
			AttemptsRemaining: 3,
			Delivery:          DeliveryInfo{Channel: "email", Status: "sent"},
		})
	})

	res, err := c.CreateChallenge(context.Background(), CreateChallengeRequest{Email: "user@example.com"})
	require.NoError(t, err)
	require.Equal(t, "01J9Z3YJ3X4M0S5W6Q7R8T9V0A", res.ChallengeID)
	require.Equal(t, 3, res.AttemptsRemaining)
	require.True(t, expires.Equal(res.ExpiresAt))
	require.Equal(t, "sent", res.Delivery.Status)
}

func TestVerify_Accepted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/otp/verify", r.URL.Path)

		var req VerifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "123456", req.Code)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(VerifyResponse{
			Outcome:     "accepted",
			ChallengeID: req.ChallengeID,
			Identity: IdentityInfo{
				UserID:     "01J9Z3YJ3X4M0S5W6Q7R8T9V0B",
				TargetKind: "email",
				Target:     "user@example.com",
			},
		})
	})

	res, err := c.Verify(context.Background(), VerifyRequest{ChallengeID: "abc", Code: "123456"})
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Outcome)
	require.Equal(t, "abc", res.ChallengeID)
	require.Equal(t, "user@example.com", res.Identity.Target)
}

func TestVerify_WrongCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		two := 2
		ErrWrongCode.WithChallenge("abc", &two).WriteError(w)
	})

	_, err := c.Verify(context.Background(), VerifyRequest{ChallengeID: "abc", Code: "654321"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, ErrorCodeWrongCode, apiErr.Code)
	require.Equal(t, "abc", apiErr.ChallengeID)
	require.NotNil(t, apiErr.AttemptsRemaining)
	require.Equal(t, 2, *apiErr.AttemptsRemaining)
	require.Equal(t, ErrorCodeWrongCode, ErrorCode(err))
}

func TestResend_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/otp/resend", r.URL.Path)
		ErrNotFound.WriteError(w)
	})

	_, err := c.Resend(context.Background(), ResendRequest{ChallengeID: "gone"})
	require.Equal(t, ErrorCodeNotFound, ErrorCode(err))
}

func TestNonJSONErrorFallsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.CreateChallenge(context.Background(), CreateChallengeRequest{Phone: "+61400000000"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Version: "test"}
		if r.URL.Path == "/readyz" {
			resp.Checks = &HealthChecks{Database: "ok"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	live, err := c.GetLiveness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Nil(t, live.Checks)

	ready, err := c.GetReadiness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
}

func TestReadinessNotReady(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "degraded",
			Checks: &HealthChecks{Database: "unavailable"},
		})
	})

	ready, err := c.GetReadiness(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
	require.NotNil(t, ready)
	require.Equal(t, "unavailable", ready.Checks.Database)
}

func TestErrorCode_NonAPIError(t *testing.T) {
	require.Empty(t, ErrorCode(errors.New("boom")))
	require.Empty(t, ErrorCode(nil))
}
