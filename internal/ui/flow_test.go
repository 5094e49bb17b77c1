package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/otpflow"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type stubClient struct {
	verifyCodes []string
}

func (s *stubClient) CreateChallenge(_ context.Context, req otpsdk.CreateChallengeRequest) (*otpsdk.ChallengeResponse, error) {
	kind := "email"
	if req.Phone != "" {
		kind = "phone"
	}
	return &otpsdk.ChallengeResponse{
		ChallengeID:       "c1",
		TargetKind:        kind,
		ExpiresAt:         testNow.Add(5 * time.Minute),
		AttemptsRemaining: 3,
		Code:              "123456",
		Delivery:          otpsdk.DeliveryInfo{Channel: kind, Status: "sent"},
	}, nil
}

func (s *stubClient) Verify(_ context.Context, req otpsdk.VerifyRequest) (*otpsdk.VerifyResponse, error) {
	s.verifyCodes = append(s.verifyCodes, req.Code)
	if req.Code != "123456" {
		remaining := 2
		return nil, otpsdk.ErrWrongCode.WithChallenge(req.ChallengeID, &remaining)
	}
	return &otpsdk.VerifyResponse{
		Outcome:     "accepted",
		ChallengeID: req.ChallengeID,
		Identity:    otpsdk.IdentityInfo{UserID: "u1", TargetKind: "email", Target: "user@example.com"},
	}, nil
}

func (s *stubClient) Resend(context.Context, otpsdk.ResendRequest) (*otpsdk.ChallengeResponse, error) {
	return nil, otpsdk.ErrNotFound
}

// send feeds msg to m and runs any command it returns until the model settles.
func send(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(model)
	for cmd != nil {
		next := cmd()
		switch next.(type) {
		case requestDoneMsg, verifyDoneMsg, resendDoneMsg:
			updated, cmd = m.Update(next)
			m = updated.(model)
		default:
			cmd = nil
		}
	}
	return m
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func requested(t *testing.T, client *stubClient) model {
	t.Helper()
	m := initialModel(Options{Client: client, Target: "user@example.com", Now: func() time.Time { return testNow }})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.IsType(t, otpflow.Entering{}, m.ctrl.Phase())
	return m
}

func TestFlow_RequestShowsCodeEntry(t *testing.T) {
	m := requested(t, &stubClient{})

	view := m.View()
	require.Contains(t, view, "Enter the code sent to user@example.com")
	require.Contains(t, view, "expires in 5m0s")
	require.Contains(t, view, "3 attempts left")
	require.Contains(t, view, "dev code 123456")
}

func TestFlow_TypingSubmitsWhenComplete(t *testing.T) {
	client := &stubClient{}
	m := requested(t, client)

	m = send(t, m, keys("12345"))
	require.Empty(t, client.verifyCodes)

	m = send(t, m, keys("6"))
	require.Equal(t, []string{"123456"}, client.verifyCodes)
	require.IsType(t, otpflow.Completed{}, m.ctrl.Phase())
	require.Contains(t, m.View(), "Verified user@example.com")
}

func TestFlow_EnterWithIncompleteCodeStaysLocal(t *testing.T) {
	client := &stubClient{}
	m := requested(t, client)

	m = send(t, m, keys("12"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Empty(t, client.verifyCodes)
	require.Contains(t, m.View(), "Enter all 6 digits.")
}

func TestFlow_WrongCodeClearsSlots(t *testing.T) {
	client := &stubClient{}
	m := requested(t, client)

	m = send(t, m, keys("000000"))
	require.Equal(t, "______", m.ctrl.Input().String())
	require.Contains(t, m.View(), "2 attempts remaining")
}

func TestFlow_PasteRejectsLetters(t *testing.T) {
	client := &stubClient{}
	m := requested(t, client)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("12ab56"), Paste: true})
	require.Equal(t, "______", m.ctrl.Input().String())
	require.Empty(t, client.verifyCodes)
	require.Contains(t, m.View(), "Paste only the digits")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" 123456 "), Paste: true})
	require.Equal(t, "123456", m.ctrl.Input().String())
}

func TestFlow_BackspaceAndArrows(t *testing.T) {
	m := requested(t, &stubClient{})

	m = send(t, m, keys("12"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, 1, m.ctrl.Input().Focus())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	require.Equal(t, 0, m.ctrl.Input().Focus())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, 1, m.ctrl.Input().Focus())
	require.Equal(t, "12____", m.ctrl.Input().String())
}

func TestFlow_ResendNotFoundReturnsToPrompt(t *testing.T) {
	m := requested(t, &stubClient{})

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, otpflow.Requesting{}, m.ctrl.Phase())
	require.True(t, strings.Contains(m.View(), "Where should we send your code?"))
}

func TestFlow_EscStartsOver(t *testing.T) {
	m := requested(t, &stubClient{})

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, otpflow.Requesting{}, m.ctrl.Phase())
}

func TestSplitTarget(t *testing.T) {
	email, phone := splitTarget(" user@example.com ")
	require.Equal(t, "user@example.com", email)
	require.Empty(t, phone)

	email, phone = splitTarget("+61400000000")
	require.Empty(t, email)
	require.Equal(t, "+61400000000", phone)
}
