package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func newRequest(remote, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.RemoteAddr = remote
	return req
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := newRequest("192.168.1.1:12345", "")
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := newRequest("192.168.1.1:12345", "")
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := newRequest("192.168.1.1:12345", "")
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	t.Run("reads first present field", func(t *testing.T) {
		req := newRequest("", `{"phone":"+919876543210"}`)
		extract := httpx.JSONFieldKeyExtractor("email", "phone")
		require.Equal(t, "+919876543210", extract(req))
	})

	t.Run("normalises case", func(t *testing.T) {
		req := newRequest("", `{"email":" User@Example.com "}`)
		require.Equal(t, "user@example.com", httpx.JSONFieldKeyExtractor("email")(req))
	})

	t.Run("restores body for the handler", func(t *testing.T) {
		req := newRequest("", `{"challenge_id":"abc","code":"123456"}`)
		require.Equal(t, "abc", httpx.JSONFieldKeyExtractor("challenge_id")(req))

		var body struct {
			ChallengeID string `json:"challenge_id"`
			Code        string `json:"code"`
		}
		require.NoError(t, httpx.DecodeJSON(req, &body))
		require.Equal(t, "123456", body.Code)
	})

	t.Run("empty for invalid json or missing field", func(t *testing.T) {
		require.Empty(t, httpx.JSONFieldKeyExtractor("email")(newRequest("", `not json`)))
		require.Empty(t, httpx.JSONFieldKeyExtractor("email")(newRequest("", `{"email":42}`)))
		require.Empty(t, httpx.JSONFieldKeyExtractor("email")(newRequest("", `{}`)))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	extract := httpx.CompositeKeyExtractor(":",
		httpx.IPKeyExtractor,
		httpx.JSONFieldKeyExtractor("challenge_id"),
	)

	t.Run("combines multiple extractors", func(t *testing.T) {
		req := newRequest("192.168.1.1:12345", `{"challenge_id":"abc"}`)
		require.Equal(t, "192.168.1.1:abc", extract(req))
	})

	t.Run("skips empty values", func(t *testing.T) {
		req := newRequest("192.168.1.1:12345", `{}`)
		require.Equal(t, "192.168.1.1", extract(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks requests over limit", func(t *testing.T) {
		limited := httpx.RateLimitMiddleware(httpx.RateLimitConfig{
			RequestsPerWindow: 3,
			Window:            time.Minute,
			Burst:             3,
		}, httpx.IPKeyExtractor)(okHandler)

		for i := range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, newRequest("192.168.1.1:12345", ""))
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}

		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, newRequest("192.168.1.1:12345", ""))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limited")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		limited := httpx.RateLimitByIP(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		})(okHandler)

		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, newRequest("192.168.1.1:12345", ""))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		limited.ServeHTTP(rec, newRequest("192.168.1.1:12345", ""))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		rec = httptest.NewRecorder()
		limited.ServeHTTP(rec, newRequest("192.168.1.2:12345", ""))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("allows request when key extractor returns empty", func(t *testing.T) {
		limited := httpx.RateLimitMiddleware(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}, func(*http.Request) string { return "" })(okHandler)

		for range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, newRequest("", ""))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRateLimitByIPAndJSONField(t *testing.T) {
	limited := httpx.RateLimitByIPAndJSONField(httpx.RateLimitConfig{
		RequestsPerWindow: 2,
		Window:            time.Minute,
		Burst:             2,
	}, "challenge_id")(okHandler)

	for range 2 {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, newRequest("192.168.1.1:12345", `{"challenge_id":"a"}`))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, newRequest("192.168.1.1:12345", `{"challenge_id":"a"}`))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	limited.ServeHTTP(rec, newRequest("192.168.1.1:12345", `{"challenge_id":"b"}`))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_TESTING_REQUESTS", "42")
	t.Setenv("RATELIMIT_TESTING_WINDOW_SEC", "10")
	t.Setenv("RATELIMIT_TESTING_BURST", "-3")

	cfg := httpx.ParseRateLimitFromEnv("TESTING", httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 7})
	require.Equal(t, 42, cfg.RequestsPerWindow)
	require.Equal(t, 10*time.Second, cfg.Window)
	require.Equal(t, 7, cfg.Burst)
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), tag("outer"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), newRequest("", ""))

	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}
	err := httpx.DecodeJSON(newRequest("", `{"email":"a@b.co","extra":1}`), &dst)
	require.ErrorIs(t, err, httpx.ErrInvalidJSON)

	err = httpx.DecodeJSON(newRequest("", `{"email":"a@b.co"}{}`), &dst)
	require.ErrorIs(t, err, httpx.ErrInvalidJSON)
}
