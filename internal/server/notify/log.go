package notify

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/logging"
)

// Log records that a message would have been sent. Bodies may carry secrets
// such as reset codes and are not written out.
type Log struct {
	log logging.Logger
}

func NewLog(log logging.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(ctx context.Context, destination, subject, body string) error {
	l.log.Info(ctx, "notification (log only)", "destination", destination, "subject", subject, "body_bytes", len(body))
	return nil
}
