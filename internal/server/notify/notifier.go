// Package notify delivers messages to users over side channels (email, the
// in-app inbox) under a best-effort contract: delivery failures are logged
// and never abort the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/housing/internal/logging"
)

// Notifier delivers one message. destination is channel specific: an e-mail
// address for SMTP, a user id for the inbox.
type Notifier interface {
	Notify(ctx context.Context, destination, subject, body string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, destination, subject, body string) error

func (f NotifierFunc) Notify(ctx context.Context, destination, subject, body string) error {
	return f(ctx, destination, subject, body)
}

// BestEffort wraps a Notifier. Delivery failures are logged, never returned.
type BestEffort struct {
	next Notifier
	log  logging.Logger
	wg   sync.WaitGroup
}

func NewBestEffort(next Notifier, log logging.Logger) *BestEffort {
	return &BestEffort{next: next, log: log}
}

// Send delivers synchronously and reports whether it succeeded.
func (b *BestEffort) Send(ctx context.Context, destination, subject, body string) (delivered bool) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error(ctx, "notifier panicked", "subject", subject, "panic", fmt.Sprint(p))
			delivered = false
		}
	}()

	if err := b.next.Notify(ctx, destination, subject, body); err != nil {
		b.log.Warn(ctx, "notification not delivered", "subject", subject, "error", err)
		return false
	}
	return true
}

// Dispatch delivers in the background. The request context's cancellation is
// dropped so a finished request does not abort its own notifications.
func (b *BestEffort) Dispatch(ctx context.Context, destination, subject, body string) {
	ctx = context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.Send(ctx, destination, subject, body)
	}()
}

// Wait blocks until every dispatched notification has finished.
func (b *BestEffort) Wait() {
	b.wg.Wait()
}
