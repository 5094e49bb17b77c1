package otpflow

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
)

var (
	ErrWrongPhase     = errors.New("action not available in the current phase")
	ErrInvalidTarget  = errors.New("enter exactly one of an email address or a phone number")
	ErrRequestPending = errors.New("a code request is already in flight")
	ErrVerifyPending  = errors.New("a code is already being verified")
	ErrResendPending  = errors.New("a new code is being requested")
	ErrResendRequired = errors.New("request a new code to continue")
)

// Client is the subset of *otpsdk.SDKClient the controller talks to.
type Client interface {
	CreateChallenge(ctx context.Context, req otpsdk.CreateChallengeRequest) (*otpsdk.ChallengeResponse, error)
	Verify(ctx context.Context, req otpsdk.VerifyRequest) (*otpsdk.VerifyResponse, error)
	Resend(ctx context.Context, req otpsdk.ResendRequest) (*otpsdk.ChallengeResponse, error)
}

// Controller drives one verification flow. It is not safe for concurrent use;
// an event loop is expected to own it.
//
// Every network action comes in two halves. Begin* checks the current state
// and returns the request to send, and Apply* takes the response back. The
// caller may run the request on another goroutine as long as the Apply* call
// happens on the owning one. Request, Submit and Resend do both halves inline.
type Controller struct {
	client Client

	phase  Phase
	input  CodeInput
	notice Notice

	// resendRequired blocks submission after expired or exhausted.
	resendRequired bool

	requestPending bool
	verifyPending  string
	resendPending  string

	// code is the echoed code of the held challenge, if the server sent one.
	code string
}

// New returns a controller in the Requesting phase.
func New(client Client) *Controller {
	return &Controller{client: client, phase: Requesting{}}
}

func (c *Controller) Phase() Phase { return c.phase }
func (c *Controller) Notice() Notice { return c.notice }
func (c *Controller) Input() CodeInput { return c.input }
func (c *Controller) EchoedCode() string { return c.code }
func (c *Controller) RequestPending() bool { return c.requestPending }
func (c *Controller) VerifyPending() bool { return c.verifyPending != "" }
func (c *Controller) ResendPending() bool { return c.resendPending != "" }

// ResendRequired reports whether the held challenge can no longer be used.
func (c *Controller) ResendRequired() bool { return c.resendRequired }

// CanSubmit reports whether BeginVerify would produce a request.
func (c *Controller) CanSubmit() bool {
	_, entering := c.phase.(Entering)
	return entering && c.input.Complete() && !c.resendRequired &&
		c.verifyPending == "" && c.resendPending == ""
}

// held returns the descriptor being entered, if any.
func (c *Controller) held() (Descriptor, bool) {
	e, ok := c.phase.(Entering)
	return e.Challenge, ok
}

// Restart abandons the current challenge and returns to Requesting.
func (c *Controller) Restart() {
	*c = Controller{client: c.client, phase: Requesting{}}
}

// ----------------------------------------------------------------------------
// Code entry
// ----------------------------------------------------------------------------

func (c *Controller) editable() bool {
	_, ok := c.phase.(Entering)
	return ok
}

func (c *Controller) edited() {
	if c.notice.transient() {
		c.notice = Notice{}
	}
}

// TypeDigit enters r at the focused slot. Non-digits are ignored.
func (c *Controller) TypeDigit(r rune) bool {
	if !c.editable() || !c.input.Type(r) {
		return false
	}
	c.edited()
	return true
}

func (c *Controller) Backspace() {
	if !c.editable() {
		return
	}
	c.input.Backspace()
	c.edited()
}

func (c *Controller) MoveLeft() {
	if c.editable() {
		c.input.Left()
	}
}

func (c *Controller) MoveRight() {
	if c.editable() {
		c.input.Right()
	}
}

// Paste fills the slots from s. A paste with anything other than digits is
// rejected whole and leaves the slots unchanged.
func (c *Controller) Paste(s string) error {
	if !c.editable() {
		return ErrWrongPhase
	}
	if err := c.input.Paste(s); err != nil {
		c.notice = noticeInvalidPaste
		return err
	}
	c.edited()
	return nil
}

// ----------------------------------------------------------------------------
// Request
// ----------------------------------------------------------------------------

// BeginRequest validates the identity the user typed. Exactly one of email or
// phone must be non-empty.
func (c *Controller) BeginRequest(email, phone string) (otpsdk.CreateChallengeRequest, error) {
	if _, ok := c.phase.(Requesting); !ok {
		return otpsdk.CreateChallengeRequest{}, ErrWrongPhase
	}
	if c.requestPending {
		return otpsdk.CreateChallengeRequest{}, ErrRequestPending
	}

	email, phone = strings.TrimSpace(email), strings.TrimSpace(phone)
	if (email == "") == (phone == "") {
		c.notice = Notice{Kind: NoticeValidation, Message: ErrInvalidTarget.Error()}
		return otpsdk.CreateChallengeRequest{}, ErrInvalidTarget
	}

	c.requestPending = true
	return otpsdk.CreateChallengeRequest{Email: email, Phone: phone}, nil
}

// ApplyRequest moves to Entering on success. Failures leave the controller in
// Requesting with a notice.
func (c *Controller) ApplyRequest(req otpsdk.CreateChallengeRequest, res *otpsdk.ChallengeResponse, err error) {
	if !c.requestPending {
		return
	}
	c.requestPending = false

	if err != nil {
		c.notice = requestFailure(err)
		return
	}

	target := req.Email
	if target == "" {
		target = req.Phone
	}
	c.enter(descriptorFrom(res, target), res, NoticeSent)
}

// Request sends a code to email or phone and waits for the answer.
func (c *Controller) Request(ctx context.Context, email, phone string) error {
	req, err := c.BeginRequest(email, phone)
	if err != nil {
		return err
	}
	res, err := c.client.CreateChallenge(ctx, req)
	c.ApplyRequest(req, res, err)
	return err
}

// ----------------------------------------------------------------------------
// Verify
// ----------------------------------------------------------------------------

// BeginVerify returns the verify request for the held challenge. An
// incomplete code fails locally with ErrIncompleteCode.
func (c *Controller) BeginVerify() (otpsdk.VerifyRequest, error) {
	d, ok := c.held()
	switch {
	case !ok:
		return otpsdk.VerifyRequest{}, ErrWrongPhase
	case c.resendPending != "":
		return otpsdk.VerifyRequest{}, ErrResendPending
	case c.resendRequired:
		return otpsdk.VerifyRequest{}, ErrResendRequired
	case c.verifyPending != "":
		return otpsdk.VerifyRequest{}, ErrVerifyPending
	}

	code, err := c.input.Code()
	if err != nil {
		c.notice = noticeIncomplete
		return otpsdk.VerifyRequest{}, err
	}

	c.verifyPending = d.ID
	return otpsdk.VerifyRequest{ChallengeID: d.ID, Code: code}, nil
}

// ApplyVerify applies the outcome of req. The outcome is only used when both
// the request and the response name the challenge currently held and no
// resend of it is pending; anything else is stale and ApplyVerify returns
// false without changing state.
func (c *Controller) ApplyVerify(req otpsdk.VerifyRequest, res *otpsdk.VerifyResponse, err error) bool {
	if c.verifyPending == req.ChallengeID {
		c.verifyPending = ""
	}
	// A resend of the same challenge is in flight and supersedes it.
	if c.resendPending == req.ChallengeID {
		return false
	}

	d, ok := c.held()
	if !ok || req.ChallengeID != d.ID {
		return false
	}
	if id := responseChallenge(res, err); id != "" && id != d.ID {
		return false
	}

	if err == nil {
		if res == nil || res.Outcome != "accepted" {
			c.notice = noticeUnavailable
			return true
		}
		c.phase = Completed{Identity: Identity{
			UserID:     res.Identity.UserID,
			TargetKind: res.Identity.TargetKind,
			Target:     res.Identity.Target,
			VerifiedAt: res.Identity.VerifiedAt,
		}}
		c.input.Reset()
		c.code = ""
		c.notice = noticeAccepted
		return true
	}

	var apiErr *otpsdk.APIError
	if !errors.As(err, &apiErr) {
		c.notice = noticeUnavailable
		return true
	}

	switch apiErr.Code {
	case otpsdk.ErrorCodeWrongCode:
		remaining := d.AttemptsRemaining - 1
		if apiErr.AttemptsRemaining != nil {
			remaining = *apiErr.AttemptsRemaining
		}
		c.phase = Entering{Challenge: d.withAttempts(max(remaining, 0))}
		c.input.Reset()
		c.notice = wrongCodeNotice(max(remaining, 0))
	case otpsdk.ErrorCodeExpired:
		c.resendRequired = true
		c.notice = noticeExpired
	case otpsdk.ErrorCodeExhausted:
		c.phase = Entering{Challenge: d.withAttempts(0)}
		c.resendRequired = true
		c.notice = noticeExhausted
	case otpsdk.ErrorCodeNotFound:
		c.Restart()
		c.notice = noticeNotFound
	case otpsdk.ErrorCodeInvalidState:
		c.Restart()
		c.notice = noticeInvalidState
	case otpsdk.ErrorCodeRateLimited:
		c.notice = noticeRateLimited
	case otpsdk.ErrorCodeValidation:
		c.notice = Notice{Kind: NoticeValidation, Message: apiErr.Description}
	default:
		c.notice = noticeUnavailable
	}
	return true
}

// Submit verifies the assembled code and waits for the answer.
func (c *Controller) Submit(ctx context.Context) error {
	req, err := c.BeginVerify()
	if err != nil {
		return err
	}
	res, err := c.client.Verify(ctx, req)
	c.ApplyVerify(req, res, err)
	return err
}

// ----------------------------------------------------------------------------
// Resend
// ----------------------------------------------------------------------------

// BeginResend returns the resend request for the held challenge. Submission
// stays disabled until ApplyResend is called.
func (c *Controller) BeginResend() (otpsdk.ResendRequest, error) {
	d, ok := c.held()
	if !ok {
		return otpsdk.ResendRequest{}, ErrWrongPhase
	}
	if c.resendPending != "" {
		return otpsdk.ResendRequest{}, ErrResendPending
	}
	c.resendPending = d.ID
	return otpsdk.ResendRequest{ChallengeID: d.ID}, nil
}

// ApplyResend swaps the held challenge for the new one on success. It
// returns false if req no longer matches the pending resend.
func (c *Controller) ApplyResend(req otpsdk.ResendRequest, res *otpsdk.ChallengeResponse, err error) bool {
	if c.resendPending == "" || c.resendPending != req.ChallengeID {
		return false
	}
	c.resendPending = ""

	d, ok := c.held()
	if !ok || d.ID != req.ChallengeID {
		return false
	}

	if err != nil {
		switch otpsdk.ErrorCode(err) {
		case otpsdk.ErrorCodeNotFound:
			c.Restart()
			c.notice = noticeNotFound
		case otpsdk.ErrorCodeInvalidState:
			c.Restart()
			c.notice = noticeInvalidState
		default:
			c.notice = requestFailure(err)
		}
		return true
	}

	// The old challenge is gone; a verify still in flight for it is stale.
	c.verifyPending = ""
	c.enter(descriptorFrom(res, d.Target), res, NoticeResent)
	return true
}

// Resend replaces the held challenge and waits for the answer.
func (c *Controller) Resend(ctx context.Context) error {
	req, err := c.BeginResend()
	if err != nil {
		return err
	}
	res, err := c.client.Resend(ctx, req)
	c.ApplyResend(req, res, err)
	return err
}

// ----------------------------------------------------------------------------
// helpers
// ----------------------------------------------------------------------------

func (c *Controller) enter(d Descriptor, res *otpsdk.ChallengeResponse, sent NoticeKind) {
	c.phase = Entering{Challenge: d}
	c.input.Reset()
	c.resendRequired = false
	c.code = res.Code

	if res.Delivery.Status != "sent" {
		msg := "We could not send your code. Request a new one to try again."
		if res.Delivery.Warning != "" {
			msg = res.Delivery.Warning
		}
		c.notice = Notice{Kind: NoticeDeliveryFailed, Message: msg}
		return
	}

	msg := "We sent a 6-digit code to " + d.Target + "."
	if sent == NoticeResent {
		msg = "We sent a new code to " + d.Target + "."
	}
	c.notice = Notice{Kind: sent, Message: msg}
}

func descriptorFrom(res *otpsdk.ChallengeResponse, target string) Descriptor {
	return Descriptor{
		ID:                res.ChallengeID,
		TargetKind:        res.TargetKind,
		Target:            target,
		ExpiresAt:         res.ExpiresAt,
		AttemptsRemaining: res.AttemptsRemaining,
	}
}

// responseChallenge is the challenge id the server answered for, if it said.
func responseChallenge(res *otpsdk.VerifyResponse, err error) string {
	if res != nil {
		return res.ChallengeID
	}
	var apiErr *otpsdk.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ChallengeID
	}
	return ""
}

func requestFailure(err error) Notice {
	var apiErr *otpsdk.APIError
	if !errors.As(err, &apiErr) {
		return noticeUnavailable
	}
	switch apiErr.Code {
	case otpsdk.ErrorCodeRateLimited:
		return noticeRateLimited
	case otpsdk.ErrorCodeValidation:
		return Notice{Kind: NoticeValidation, Message: apiErr.Description}
	default:
		return noticeUnavailable
	}
}
