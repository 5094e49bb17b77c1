package notify

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

var (
	emailTarget = domain.Target{Kind: domain.TargetEmail, Value: "alice@example.com"}
	phoneTarget = domain.Target{Kind: domain.TargetPhone, Value: "+61400000000"}
)

func TestMessage(t *testing.T) {
	msg := Message("123456", 5*time.Minute)
	require.Contains(t, msg, "123456")
	require.Contains(t, msg, "5 minutes")

	require.Contains(t, Message("000000", 30*time.Second), "1 minute.")
}

func TestRouter(t *testing.T) {
	var got []domain.TargetKind
	record := SenderFunc(func(_ context.Context, target domain.Target, _ string, _ time.Duration) error {
		got = append(got, target.Kind)
		return nil
	})

	r := &Router{Email: record, SMS: record}
	require.NoError(t, r.Send(context.Background(), emailTarget, "111111", time.Minute))
	require.NoError(t, r.Send(context.Background(), phoneTarget, "222222", time.Minute))
	require.Equal(t, []domain.TargetKind{domain.TargetEmail, domain.TargetPhone}, got)

	r = &Router{Email: record}
	err := r.Send(context.Background(), phoneTarget, "333333", time.Minute)
	require.ErrorIs(t, err, ErrChannelUnavailable)
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestEmailSender(t *testing.T) {
	d := &fakeDialer{}
	s := newEmailSender(d, "noreply@example.com", "")

	require.NoError(t, s.Send(context.Background(), emailTarget, "424242", 5*time.Minute))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	require.Equal(t, []string{"alice@example.com"}, m.GetHeader("To"))
	require.Equal(t, []string{"noreply@example.com"}, m.GetHeader("From"))
	require.Equal(t, []string{"Your verification code"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "424242")
}

func TestEmailSender_Errors(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	s := newEmailSender(d, "noreply@example.com", "Code")

	err := s.Send(context.Background(), emailTarget, "424242", time.Minute)
	require.ErrorContains(t, err, "connection refused")

	err = s.Send(context.Background(), phoneTarget, "424242", time.Minute)
	require.Error(t, err)
}

func TestTwilioSender(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "AC123", user)
		require.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		require.Equal(t, "+61400000000", r.PostForm.Get("To"))
		require.Equal(t, "+15550000000", r.PostForm.Get("From"))
		require.Contains(t, r.PostForm.Get("Body"), "987654")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000000",
		BaseURL:    srv.URL,
	})
	require.NoError(t, s.Send(context.Background(), phoneTarget, "987654", 5*time.Minute))
	require.Equal(t, int32(1), calls.Load())
}

func TestTwilioSender_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewTwilioSender(TwilioConfig{AccountSID: "AC123", AuthToken: "x", BaseURL: srv.URL})
	require.NoError(t, s.Send(context.Background(), phoneTarget, "987654", time.Minute))
	require.Equal(t, int32(3), calls.Load())
}

func TestTwilioSender_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"invalid To number"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender(TwilioConfig{AccountSID: "AC123", AuthToken: "x", BaseURL: srv.URL})
	err := s.Send(context.Background(), phoneTarget, "987654", time.Minute)
	require.ErrorContains(t, err, "status 400")
	require.Equal(t, int32(1), calls.Load())
}
