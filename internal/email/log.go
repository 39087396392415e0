package email

import (
	"context"
	"log/slog"
)

// LogSender writes emails to the log instead of delivering them. Used
// in development when no provider key is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that logs instead of sending.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
		"bytes", len(msg.HTML))
	return nil
}
