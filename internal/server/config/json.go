package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/housing/internal/flagx"
	"github.com/dmitrijs2005/housing/internal/server/ratelimit"
	"github.com/dmitrijs2005/housing/internal/timex"
)

// JsonPolicy is a rate-limit policy as written in the config file.
type JsonPolicy struct {
	Limit  int            `json:"limit"`
	Window timex.Duration `json:"window"`
}

// JsonConfig is the on-disk shape of the config file. Durations accept both
// strings such as "15m" and integer nanoseconds. Absent or zero fields keep
// the value from the earlier layers.
type JsonConfig struct {
	HTTPAddr                     string                `json:"http_addr"`
	GRPCAddr                     string                `json:"grpc_addr"`
	DatabaseDSN                  string                `json:"database_dsn"`
	SecretKey                    string                `json:"secret_key"`
	LogLevel                     string                `json:"log_level"`
	AccessTokenValidityDuration  timex.Duration        `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration        `json:"refresh_token_validity_duration"`
	ResetTokenValidityDuration   timex.Duration        `json:"reset_token_validity_duration"`
	SMTPHost                     string                `json:"smtp_host"`
	SMTPPort                     int                   `json:"smtp_port"`
	SMTPUser                     string                `json:"smtp_user"`
	SMTPPassword                 string                `json:"smtp_password"`
	SMTPFrom                     string                `json:"smtp_from"`
	MailPerSecond                float64               `json:"mail_per_second"`
	AdminEmail                   string                `json:"admin_email"`
	AdminPassword                string                `json:"admin_password"`
	TrustProxyHeaders            *bool                 `json:"trust_proxy_headers"`
	RateLimits                   map[string]JsonPolicy `json:"rate_limits"`
}

// parseJson overlays the file named by -c/-config (or $HOUSING_CONFIG).
// No path means nothing to load.
func parseJson(config *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setStr(&config.HTTPAddr, c.HTTPAddr)
	setStr(&config.GRPCAddr, c.GRPCAddr)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.SecretKey, c.SecretKey)
	setStr(&config.LogLevel, c.LogLevel)
	setDur(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDur(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDur(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	setStr(&config.SMTPHost, c.SMTPHost)
	setStr(&config.SMTPUser, c.SMTPUser)
	setStr(&config.SMTPPassword, c.SMTPPassword)
	setStr(&config.SMTPFrom, c.SMTPFrom)
	setStr(&config.AdminEmail, c.AdminEmail)
	setStr(&config.AdminPassword, c.AdminPassword)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.MailPerSecond != 0 {
		config.MailPerSecond = c.MailPerSecond
	}
	if c.TrustProxyHeaders != nil {
		config.TrustProxyHeaders = *c.TrustProxyHeaders
	}

	for name, dst := range map[string]*ratelimit.Policy{
		"login_per_ip":      &config.RateLimits.LoginPerIP,
		"login_per_account": &config.RateLimits.LoginPerAccount,
		"forgot_per_ip":     &config.RateLimits.ForgotPerIP,
		"forgot_per_email":  &config.RateLimits.ForgotPerEmail,
		"verify_per_ip":     &config.RateLimits.VerifyPerIP,
		"verify_per_email":  &config.RateLimits.VerifyPerEmail,
	} {
		p, ok := c.RateLimits[name]
		if !ok {
			continue
		}
		if p.Limit != 0 {
			dst.Limit = p.Limit
		}
		setDur(&dst.Window, p.Window)
	}
	return nil
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDur(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
