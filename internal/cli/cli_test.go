package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/otpflow"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/otp/challenges", func(w http.ResponseWriter, r *http.Request) {
		var req otpsdk.CreateChallengeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		httpx.WriteJSON(w, http.StatusCreated, otpsdk.ChallengeResponse{
			ChallengeID:       "c1",
			TargetKind:        "email",
			ExpiresAt:         time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC),
			AttemptsRemaining: 3,
			Code:              "123456",
			Delivery:          otpsdk.DeliveryInfo{Channel: "email", Status: "sent"},
		})
	})

	mux.HandleFunc("POST /v1/otp/verify", func(w http.ResponseWriter, r *http.Request) {
		var req otpsdk.VerifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Code != "123456" {
			remaining := 2
			otpsdk.ErrWrongCode.WithChallenge(req.ChallengeID, &remaining).WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, otpsdk.VerifyResponse{
			Outcome:     "accepted",
			ChallengeID: req.ChallengeID,
			Identity: otpsdk.IdentityInfo{
				UserID:     "u1",
				TargetKind: "email",
				Target:     "user@example.com",
				VerifiedAt: time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC),
			},
		})
	})

	mux.HandleFunc("POST /v1/otp/resend", func(w http.ResponseWriter, _ *http.Request) {
		otpsdk.ErrNotFound.WriteError(w)
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, otpsdk.HealthResponse{
			Status:  "ok",
			Version: "v0.1.0",
			Checks:  &otpsdk.HealthChecks{Database: "ok"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := NewRootCommandWithIO(&bytes.Buffer{}, out, out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRequestCommand(t *testing.T) {
	srv := fakeServer(t)

	out, err := run(t, "--server", srv.URL, "request", "--email", "user@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "challenge_id: c1")
	require.Contains(t, out, "attempts:     3")
	require.Contains(t, out, "delivery:     sent via email")
	require.Contains(t, out, "code:         123456")
}

func TestRequestCommandJSON(t *testing.T) {
	srv := fakeServer(t)

	out, err := run(t, "--server", srv.URL, "-o", "json", "request", "--email", "user@example.com")
	require.NoError(t, err)

	var res otpsdk.ChallengeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, "c1", res.ChallengeID)
}

func TestRequestCommandNeedsOneTarget(t *testing.T) {
	_, err := run(t, "request")
	require.ErrorIs(t, err, otpflow.ErrInvalidTarget)

	_, err = run(t, "request", "--email", "user@example.com", "--phone", "+61400000000")
	require.ErrorIs(t, err, otpflow.ErrInvalidTarget)
}

func TestVerifyCommand(t *testing.T) {
	srv := fakeServer(t)

	out, err := run(t, "--server", srv.URL, "verify", "c1", "123456")
	require.NoError(t, err)
	require.Contains(t, out, "verified email user@example.com")
	require.Contains(t, out, "user_id:     u1")
}

func TestVerifyCommandWrongCode(t *testing.T) {
	srv := fakeServer(t)

	_, err := run(t, "--server", srv.URL, "verify", "c1", "000000")
	require.Error(t, err)
	require.Equal(t, otpsdk.ErrorCodeWrongCode, otpsdk.ErrorCode(err))
	require.Contains(t, err.Error(), "2 attempts remaining")
}

func TestVerifyCommandRejectsBadCodesLocally(t *testing.T) {
	// No server: these must fail before any request is made.
	_, err := run(t, "--server", "http://127.0.0.1:1", "verify", "c1", "12345")
	require.ErrorIs(t, err, otpflow.ErrIncompleteCode)

	_, err = run(t, "--server", "http://127.0.0.1:1", "verify", "c1", "12ab56")
	require.ErrorIs(t, err, otpflow.ErrInvalidPaste)
}

func TestResendCommandNotFound(t *testing.T) {
	srv := fakeServer(t)

	_, err := run(t, "--server", srv.URL, "resend", "c1")
	require.Equal(t, otpsdk.ErrorCodeNotFound, otpsdk.ErrorCode(err))
}

func TestHealthCommand(t *testing.T) {
	srv := fakeServer(t)

	out, err := run(t, "--server", srv.URL, "health")
	require.NoError(t, err)
	require.Contains(t, out, "status:  ok")
	require.Contains(t, out, "database: ok")
}

func TestServerFromEnv(t *testing.T) {
	srv := fakeServer(t)
	t.Setenv("OTPCTL_SERVER", srv.URL)

	out, err := run(t, "health")
	require.NoError(t, err)
	require.Contains(t, out, "status:  ok")
}
