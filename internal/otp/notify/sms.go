package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/sethvargo/go-retry"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	// BaseURL overrides the Twilio API host. Empty means api.twilio.com.
	BaseURL    string
	HTTPClient *http.Client

	// MaxRetries bounds retries of transient failures (5xx, 429, transport).
	MaxRetries uint64
}

// TwilioSender delivers codes as SMS through the Twilio Messages API.
type TwilioSender struct {
	cfg TwilioConfig
}

func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &TwilioSender{cfg: cfg}
}

func (s *TwilioSender) Send(ctx context.Context, target domain.Target, code string, ttl time.Duration) error {
	if target.Kind != domain.TargetPhone {
		return fmt.Errorf("sms sender cannot deliver to %s", target.Kind)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, url.PathEscape(s.cfg.AccountSID))
	form := url.Values{}
	form.Set("To", target.Value)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", Message(code, ttl))
	payload := form.Encode()

	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithMaxRetries(s.cfg.MaxRetries, b)
	b = retry.WithCappedDuration(2*time.Second, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		return s.post(ctx, endpoint, payload)
	})
}

func (s *TwilioSender) post(ctx context.Context, endpoint, payload string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return retry.RetryableError(fmt.Errorf("sms request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	err = fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return retry.RetryableError(err)
	}
	return err
}
