package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

// LogSender writes codes to the log instead of delivering them. It stands in
// for unconfigured channels in development.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, target domain.Target, code string, ttl time.Duration) error {
	s.Logger.WarnContext(ctx, "otp code not delivered, logging instead",
		"channel", target.Kind,
		"target", target.Masked(),
		"code", code,
		"ttl", ttl,
	)
	return nil
}
