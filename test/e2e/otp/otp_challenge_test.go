package otp_test

import (
	"testing"

	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/stretchr/testify/require"
)

// TestVerifyAccepted issues a code and verifies it.
func TestVerifyAccepted(t *testing.T) {
	baseURL, cleanup := setupOTPContainer(t)
	defer cleanup()

	client := otpsdk.NewSDKClient(baseURL)
	ch := createChallenge(t, client, testEmail)
	require.Equal(t, "email", ch.TargetKind)

	res, err := client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: ch.ChallengeID, Code: ch.Code})
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Outcome)
	require.Equal(t, ch.ChallengeID, res.ChallengeID)
	require.Equal(t, testEmail, res.Identity.Target)
	require.NotEmpty(t, res.Identity.UserID)

	// A verified challenge cannot be used again.
	_, err = client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: ch.ChallengeID, Code: ch.Code})
	assertAPIError(t, err, otpsdk.ErrorCodeInvalidState)
}

// TestVerifySameIdentityTwice checks the identity is stable across challenges
// for the same target.
func TestVerifySameIdentityTwice(t *testing.T) {
	baseURL, cleanup := setupOTPContainer(t)
	defer cleanup()

	client := otpsdk.NewSDKClient(baseURL)

	var userIDs []string
	for range 2 {
		ch := createChallenge(t, client, testEmail)
		res, err := client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: ch.ChallengeID, Code: ch.Code})
		require.NoError(t, err)
		userIDs = append(userIDs, res.Identity.UserID)
	}
	require.Equal(t, userIDs[0], userIDs[1])
}

// TestPhoneTarget issues a challenge to a phone number.
func TestPhoneTarget(t *testing.T) {
	baseURL, cleanup := setupOTPContainer(t)
	defer cleanup()

	client := otpsdk.NewSDKClient(baseURL)

	ch, err := client.CreateChallenge(t.Context(), otpsdk.CreateChallengeRequest{Phone: testPhone})
	require.NoError(t, err)
	assertChallenge(t, ch)
	require.Equal(t, "phone", ch.TargetKind)
}

// TestWrongCodeUntilExhausted spends every attempt with wrong codes.
func TestWrongCodeUntilExhausted(t *testing.T) {
	baseURL, cleanup := setupOTPContainer(t)
	defer cleanup()

	client := otpsdk.NewSDKClient(baseURL)
	ch := createChallenge(t, client, testEmail)
	bad := wrongCode(ch.Code)

	for want := 2; want >= 0; want-- {
		_, err := client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: ch.ChallengeID, Code: bad})
		apiErr := assertAPIError(t, err, otpsdk.ErrorCodeWrongCode)
		require.Equal(t, 400, apiErr.StatusCode)
		require.NotNil(t, apiErr.AttemptsRemaining)
		require.Equal(t, want, *apiErr.AttemptsRemaining)
	}

	// Even the right code is refused now.
	_, err := client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: ch.ChallengeID, Code: ch.Code})
	apiErr := assertAPIError(t, err, otpsdk.ErrorCodeExhausted)
	require.Equal(t, 429, apiErr.StatusCode)
}

// TestResendSupersedes checks that resend replaces the challenge and the old
// id stops working.
func TestResendSupersedes(t *testing.T) {
	baseURL, cleanup := setupOTPContainer(t)
	defer cleanup()

	client := otpsdk.NewSDKClient(baseURL)
	first := createChallenge(t, client, testEmail)

	second, err := client.Resend(t.Context(), otpsdk.ResendRequest{ChallengeID: first.ChallengeID})
	require.NoError(t, err)
	assertChallenge(t, second)
	require.NotEqual(t, first.ChallengeID, second.ChallengeID)

	_, err = client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: first.ChallengeID, Code: first.Code})
	assertAPIError(t, err, otpsdk.ErrorCodeNotFound)

	_, err = client.Resend(t.Context(), otpsdk.ResendRequest{ChallengeID: first.ChallengeID})
	assertAPIError(t, err, otpsdk.ErrorCodeNotFound)

	res, err := client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: second.ChallengeID, Code: second.Code})
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Outcome)
}

// TestResendAfterExhaustion checks an exhausted challenge can be replaced.
func TestResendAfterExhaustion(t *testing.T) {
	baseURL, cleanup := setupOTPContainer(t)
	defer cleanup()

	client := otpsdk.NewSDKClient(baseURL)
	ch := createChallenge(t, client, testEmail)
	for range 3 {
		_, _ = client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: ch.ChallengeID, Code: wrongCode(ch.Code)})
	}

	fresh, err := client.Resend(t.Context(), otpsdk.ResendRequest{ChallengeID: ch.ChallengeID})
	require.NoError(t, err)
	assertChallenge(t, fresh)
}

// TestUnknownChallenge checks verify and resend on an id that never existed.
func TestUnknownChallenge(t *testing.T) {
	baseURL, cleanup := setupOTPContainer(t)
	defer cleanup()

	client := otpsdk.NewSDKClient(baseURL)

	_, err := client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: "01J9Z3YJ3X4M0S5W6Q7R8T9V0A", Code: "123456"})
	apiErr := assertAPIError(t, err, otpsdk.ErrorCodeNotFound)
	require.Equal(t, 404, apiErr.StatusCode)

	_, err = client.Resend(t.Context(), otpsdk.ResendRequest{ChallengeID: "not-an-id"})
	assertAPIError(t, err, otpsdk.ErrorCodeNotFound)
}

// TestValidationErrors checks malformed requests are rejected before any
// state changes.
func TestValidationErrors(t *testing.T) {
	baseURL, cleanup := setupOTPContainer(t)
	defer cleanup()

	client := otpsdk.NewSDKClient(baseURL)

	tests := []struct {
		name string
		req  otpsdk.CreateChallengeRequest
	}{
		{name: "no target", req: otpsdk.CreateChallengeRequest{}},
		{name: "both targets", req: otpsdk.CreateChallengeRequest{Email: testEmail, Phone: testPhone}},
		{name: "bad email", req: otpsdk.CreateChallengeRequest{Email: "not-an-email"}},
		{name: "bad phone", req: otpsdk.CreateChallengeRequest{Phone: "0400 000 000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateChallenge(t.Context(), tt.req)
			apiErr := assertAPIError(t, err, otpsdk.ErrorCodeValidation)
			require.Equal(t, 400, apiErr.StatusCode)
		})
	}

	ch := createChallenge(t, client, testEmail)
	for _, code := range []string{"12345", "1234567", "12ab56"} {
		_, err := client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: ch.ChallengeID, Code: code})
		assertAPIError(t, err, otpsdk.ErrorCodeValidation)
	}

	// Malformed codes must not cost an attempt.
	_, err := client.Verify(t.Context(), otpsdk.VerifyRequest{ChallengeID: ch.ChallengeID, Code: wrongCode(ch.Code)})
	apiErr := assertAPIError(t, err, otpsdk.ErrorCodeWrongCode)
	require.Equal(t, 2, *apiErr.AttemptsRemaining)
}
