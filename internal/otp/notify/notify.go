// Package notify delivers one-time codes over email and SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

// ErrChannelUnavailable is returned when no sender is configured for the
// target's channel.
var ErrChannelUnavailable = errors.New("notify: channel not configured")

// Sender hands a code to the user behind target.
type Sender interface {
	Send(ctx context.Context, target domain.Target, code string, ttl time.Duration) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, target domain.Target, code string, ttl time.Duration) error

func (f SenderFunc) Send(ctx context.Context, target domain.Target, code string, ttl time.Duration) error {
	return f(ctx, target, code, ttl)
}

// Router dispatches to the sender for the target's channel.
type Router struct {
	Email Sender
	SMS   Sender
}

func (r *Router) Send(ctx context.Context, target domain.Target, code string, ttl time.Duration) error {
	var s Sender
	switch target.Kind {
	case domain.TargetEmail:
		s = r.Email
	case domain.TargetPhone:
		s = r.SMS
	}
	if s == nil {
		return fmt.Errorf("%w: %s", ErrChannelUnavailable, target.Kind)
	}
	return s.Send(ctx, target, code, ttl)
}

// Message is the plain-text body shared by every channel.
func Message(code string, ttl time.Duration) string {
	return fmt.Sprintf(
		"Your verification code is: %s\n\nThis code will expire in %s.\n\nDo not share this code with anyone.",
		code, humanMinutes(ttl),
	)
}

func humanMinutes(d time.Duration) string {
	m := int(math.Ceil(d.Minutes()))
	if m <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
