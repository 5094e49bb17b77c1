package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/otpflow"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Options struct {
	Client  otpflow.Client
	Timeout time.Duration

	// Target prefills the email or phone prompt.
	Target string

	In  io.Reader
	Out io.Writer
	Now func() time.Time
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	hintStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	slotStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	focusStyle   = slotStyle.BorderForeground(lipgloss.Color("12"))
)

type model struct {
	opts   Options
	ctrl   *otpflow.Controller
	target textinput.Model
}

type requestDoneMsg struct {
	req otpsdk.CreateChallengeRequest
	res *otpsdk.ChallengeResponse
	err error
}

type verifyDoneMsg struct {
	req otpsdk.VerifyRequest
	res *otpsdk.VerifyResponse
	err error
}

type resendDoneMsg struct {
	req otpsdk.ResendRequest
	res *otpsdk.ChallengeResponse
	err error
}

type tickMsg time.Time

// Run drives one verification flow in the terminal and returns the verified
// identity, or nil if the user quit first.
func Run(opts Options) (*otpflow.Identity, error) {
	progOpts := []tea.ProgramOption{}
	if opts.In != nil {
		progOpts = append(progOpts, tea.WithInput(opts.In))
	}
	if opts.Out != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Out))
	}

	final, err := tea.NewProgram(initialModel(opts), progOpts...).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(model)
	if !ok {
		return nil, nil
	}
	if done, ok := m.ctrl.Phase().(otpflow.Completed); ok {
		return &done.Identity, nil
	}
	return nil, nil
}

func initialModel(opts Options) model {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ti := textinput.New()
	ti.Placeholder = "email or phone (+61...)"
	ti.CharLimit = 254
	ti.Width = 40
	ti.SetValue(opts.Target)
	ti.Focus()

	return model{opts: opts, ctrl: otpflow.New(opts.Client), target: ti}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.ctrl.Phase().(type) {
		case otpflow.Requesting:
			return m.updateRequesting(msg)
		case otpflow.Entering:
			return m.updateEntering(msg)
		case otpflow.Completed:
			return m, tea.Quit
		}
	case requestDoneMsg:
		m.ctrl.ApplyRequest(msg.req, msg.res, msg.err)
	case verifyDoneMsg:
		m.ctrl.ApplyVerify(msg.req, msg.res, msg.err)
		if _, ok := m.ctrl.Phase().(otpflow.Requesting); ok {
			m.target.Focus()
		}
	case resendDoneMsg:
		m.ctrl.ApplyResend(msg.req, msg.res, msg.err)
		if _, ok := m.ctrl.Phase().(otpflow.Requesting); ok {
			m.target.Focus()
		}
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m model) updateRequesting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		email, phone := splitTarget(m.target.Value())
		req, err := m.ctrl.BeginRequest(email, phone)
		if err != nil {
			return m, nil
		}
		m.target.Blur()
		return m, m.request(req)
	}

	var cmd tea.Cmd
	m.target, cmd = m.target.Update(msg)
	return m, cmd
}

func (m model) updateEntering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		_ = m.ctrl.Paste(string(msg.Runes))
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.ctrl.Restart()
		m.target.Focus()
		return m, textinput.Blink
	case tea.KeyBackspace:
		m.ctrl.Backspace()
	case tea.KeyLeft:
		m.ctrl.MoveLeft()
	case tea.KeyRight:
		m.ctrl.MoveRight()
	case tea.KeyCtrlR:
		req, err := m.ctrl.BeginResend()
		if err != nil {
			return m, nil
		}
		return m, m.resend(req)
	case tea.KeyEnter:
		req, err := m.ctrl.BeginVerify()
		if err != nil {
			return m, nil
		}
		return m, m.verify(req)
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.ctrl.TypeDigit(r)
		}
		if m.ctrl.CanSubmit() {
			req, err := m.ctrl.BeginVerify()
			if err == nil {
				return m, m.verify(req)
			}
		}
	}
	return m, nil
}

func (m model) request(req otpsdk.CreateChallengeRequest) tea.Cmd {
	client, timeout := m.opts.Client, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := client.CreateChallenge(ctx, req)
		return requestDoneMsg{req: req, res: res, err: err}
	}
}

func (m model) verify(req otpsdk.VerifyRequest) tea.Cmd {
	client, timeout := m.opts.Client, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := client.Verify(ctx, req)
		return verifyDoneMsg{req: req, res: res, err: err}
	}
}

func (m model) resend(req otpsdk.ResendRequest) tea.Cmd {
	client, timeout := m.opts.Client, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := client.Resend(ctx, req)
		return resendDoneMsg{req: req, res: res, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// splitTarget treats anything with an @ as an email address.
func splitTarget(s string) (email, phone string) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "@") {
		return s, ""
	}
	return "", s
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("otpctl verify") + "\n\n")

	switch p := m.ctrl.Phase().(type) {
	case otpflow.Requesting:
		b.WriteString("Where should we send your code?\n\n")
		b.WriteString(m.target.View() + "\n\n")
		if m.ctrl.RequestPending() {
			b.WriteString(hintStyle.Render("Sending...") + "\n")
		}
		b.WriteString(m.noticeView())
		b.WriteString(hintStyle.Render("enter send • esc quit") + "\n")

	case otpflow.Entering:
		b.WriteString(fmt.Sprintf("Enter the code sent to %s\n\n", p.Challenge.Target))
		b.WriteString(m.slotsView() + "\n\n")
		b.WriteString(m.statusView(p.Challenge))
		b.WriteString(m.noticeView())
		b.WriteString(hintStyle.Render("enter verify • ctrl+r new code • esc start over • ctrl+c quit") + "\n")

	case otpflow.Completed:
		b.WriteString(successStyle.Render("Verified "+p.Identity.Target) + "\n")
		b.WriteString(fmt.Sprintf("user id: %s\n\n", p.Identity.UserID))
		b.WriteString(hintStyle.Render("press any key to exit") + "\n")
	}
	return b.String()
}

func (m model) slotsView() string {
	in := m.ctrl.Input()
	slots := make([]string, otpflow.CodeLength)
	for i := range otpflow.CodeLength {
		ch := " "
		if d, ok := in.Digit(i); ok {
			ch = string(d)
		}
		style := slotStyle
		if i == in.Focus() {
			style = focusStyle
		}
		slots[i] = style.Render(ch)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, slots...)
}

func (m model) statusView(d otpflow.Descriptor) string {
	var parts []string
	switch {
	case m.ctrl.ResendPending():
		parts = append(parts, "Requesting a new code...")
	case m.ctrl.VerifyPending():
		parts = append(parts, "Checking...")
	}

	left := d.ExpiresAt.Sub(m.opts.Now()).Truncate(time.Second)
	if left > 0 && !m.ctrl.ResendRequired() {
		parts = append(parts, fmt.Sprintf("expires in %s", left))
	}
	parts = append(parts, fmt.Sprintf("%d attempts left", d.AttemptsRemaining))
	if code := m.ctrl.EchoedCode(); code != "" {
		parts = append(parts, "dev code "+code)
	}
	return hintStyle.Render(strings.Join(parts, " • ")) + "\n"
}

func (m model) noticeView() string {
	n := m.ctrl.Notice()
	switch n.Kind {
	case otpflow.NoticeNone:
		return ""
	case otpflow.NoticeSent, otpflow.NoticeResent, otpflow.NoticeAccepted:
		return successStyle.Render(n.Message) + "\n\n"
	default:
		return errorStyle.Render(n.Message) + "\n\n"
	}
}
