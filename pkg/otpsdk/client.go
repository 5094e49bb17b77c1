package otpsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the otpgate service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateChallenge asks the service to send a code to req's email or phone.
func (c *SDKClient) CreateChallenge(ctx context.Context, req CreateChallengeRequest) (*ChallengeResponse, error) {
	var out ChallengeResponse
	if err := c.postJSON(ctx, "/v1/otp/challenges", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify submits a code. Only an accepted code returns a response; wrong,
// expired, exhausted and unknown challenges come back as *APIError.
func (c *SDKClient) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.postJSON(ctx, "/v1/otp/verify", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Resend replaces the challenge with a fresh one for the same target.
func (c *SDKClient) Resend(ctx context.Context, req ResendRequest) (*ChallengeResponse, error) {
	var out ChallengeResponse
	if err := c.postJSON(ctx, "/v1/otp/resend", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}
