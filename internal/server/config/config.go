// Package config handles configuration for the server, layered as defaults,
// then .env and environment variables, then an optional JSON file, then
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/housing/internal/server/ratelimit"
)

// RateLimits is the policy table for the credential endpoints.
type RateLimits struct {
	LoginPerIP      ratelimit.Policy
	LoginPerAccount ratelimit.Policy
	ForgotPerIP     ratelimit.Policy
	ForgotPerEmail  ratelimit.Policy
	VerifyPerIP     ratelimit.Policy
	VerifyPerEmail  ratelimit.Policy
}

func (r RateLimits) named() map[string]ratelimit.Policy {
	return map[string]ratelimit.Policy{
		"login_per_ip":      r.LoginPerIP,
		"login_per_account": r.LoginPerAccount,
		"forgot_per_ip":     r.ForgotPerIP,
		"forgot_per_email":  r.ForgotPerEmail,
		"verify_per_ip":     r.VerifyPerIP,
		"verify_per_email":  r.VerifyPerEmail,
	}
}

// Config holds runtime settings for the housing server.
//
// DatabaseDSN selects the store: a pgx DSN for PostgreSQL, or empty for the
// in-memory store. SMTPHost empty means mail is only logged.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	DatabaseDSN string
	SecretKey   string
	LogLevel    string

	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	ResetTokenValidityDuration   time.Duration

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFrom      string
	MailPerSecond float64

	AdminEmail    string
	AdminPassword string

	// TrustProxyHeaders takes the client IP from X-Forwarded-For.
	TrustProxyHeaders bool

	RateLimits RateLimits
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure for production and must be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "devsecret"
	c.LogLevel = "info"
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.RefreshTokenValidityDuration = 30 * 24 * time.Hour
	c.ResetTokenValidityDuration = 15 * time.Minute
	c.SMTPPort = 587
	c.SMTPFrom = "no-reply@housing.local"
	c.MailPerSecond = 5
	c.RateLimits = RateLimits{
		LoginPerIP:      ratelimit.Policy{Limit: 30, Window: 15 * time.Minute},
		LoginPerAccount: ratelimit.Policy{Limit: 5, Window: 15 * time.Minute},
		ForgotPerIP:     ratelimit.Policy{Limit: 10, Window: time.Hour},
		ForgotPerEmail:  ratelimit.Policy{Limit: 3, Window: time.Hour},
		VerifyPerIP:     ratelimit.Policy{Limit: 30, Window: 15 * time.Minute},
		VerifyPerEmail:  ratelimit.Policy{Limit: 10, Window: 15 * time.Minute},
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is empty"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is empty"))
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 || c.ResetTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	for name, p := range c.RateLimits.named() {
		if p.Limit < 1 || p.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate limit %s is invalid: %s", name, p))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then the environment,
// then an optional JSON file and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseJson(cfg); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
