package otpflow

import "fmt"

// NoticeKind names what a notice is about. Server outcomes keep their API
// error code.
type NoticeKind string

const (
	NoticeNone           NoticeKind = ""
	NoticeSent           NoticeKind = "sent"
	NoticeResent         NoticeKind = "resent"
	NoticeDeliveryFailed NoticeKind = "delivery_failed"
	NoticeAccepted       NoticeKind = "accepted"
	NoticeWrongCode      NoticeKind = "wrong_code"
	NoticeExpired        NoticeKind = "expired"
	NoticeExhausted      NoticeKind = "exhausted"
	NoticeNotFound       NoticeKind = "not_found"
	NoticeInvalidState   NoticeKind = "invalid_state"
	NoticeRateLimited    NoticeKind = "rate_limited"
	NoticeValidation     NoticeKind = "validation_error"
	NoticeIncompleteCode NoticeKind = "incomplete_code"
	NoticeInvalidPaste   NoticeKind = "invalid_paste"
	NoticeUnavailable    NoticeKind = "unavailable"
)

// Notice is the message shown to the user after an event.
type Notice struct {
	Kind    NoticeKind
	Message string

	// AttemptsRemaining is set for wrong_code.
	AttemptsRemaining int
}

// transient notices go away as soon as the user edits the code.
func (n Notice) transient() bool {
	return n.Kind == NoticeIncompleteCode || n.Kind == NoticeInvalidPaste
}

func wrongCodeNotice(remaining int) Notice {
	msg := fmt.Sprintf("That code is incorrect. %d attempts remaining.", remaining)
	if remaining == 1 {
		msg = "That code is incorrect. 1 attempt remaining."
	}
	return Notice{Kind: NoticeWrongCode, Message: msg, AttemptsRemaining: remaining}
}

var (
	noticeAccepted     = Notice{Kind: NoticeAccepted, Message: "Verified."}
	noticeExpired      = Notice{Kind: NoticeExpired, Message: "This code has expired. Request a new code to continue."}
	noticeExhausted    = Notice{Kind: NoticeExhausted, Message: "Too many incorrect attempts. Request a new code to continue."}
	noticeNotFound     = Notice{Kind: NoticeNotFound, Message: "This verification is no longer valid. Please start again."}
	noticeInvalidState = Notice{Kind: NoticeInvalidState, Message: "This code was already used. Please start again."}
	noticeRateLimited  = Notice{Kind: NoticeRateLimited, Message: "Too many requests. Please wait a moment and try again."}
	noticeIncomplete   = Notice{Kind: NoticeIncompleteCode, Message: "Enter all 6 digits."}
	noticeInvalidPaste = Notice{Kind: NoticeInvalidPaste, Message: "Paste only the digits of your code."}
	noticeUnavailable  = Notice{Kind: NoticeUnavailable, Message: "Could not reach the server. Please try again."}
)
