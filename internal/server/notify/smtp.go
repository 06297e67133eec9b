package notify

import (
	"context"

	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// SMTPConfig describes the outgoing mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// PerSecond caps messages sent per second; Burst allows short spikes.
	PerSecond float64
	Burst     int
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTP sends plain-text e-mail through a relay, paced by a token bucket.
type SMTP struct {
	sender  mailSender
	from    string
	limiter *rate.Limiter
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	return newSMTP(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg)
}

func newSMTP(sender mailSender, cfg SMTPConfig) *SMTP {
	limit := rate.Inf
	if cfg.PerSecond > 0 {
		limit = rate.Limit(cfg.PerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &SMTP{sender: sender, from: cfg.From, limiter: rate.NewLimiter(limit, burst)}
}

func (s *SMTP) Notify(ctx context.Context, to, subject, body string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return s.sender.DialAndSend(m)
}
