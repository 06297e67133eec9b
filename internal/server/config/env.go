package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded if present. Variables already set in the process win.
var envFile = ".env"

// parseEnv overlays environment variables, after loading envFile into the
// process environment.
func parseEnv(config *Config) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("HTTP_ADDR", &config.HTTPAddr)
	str("GRPC_ADDR", &config.GRPCAddr)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("LOG_LEVEL", &config.LogLevel)
	str("SMTP_HOST", &config.SMTPHost)
	str("SMTP_USER", &config.SMTPUser)
	str("SMTP_PASSWORD", &config.SMTPPassword)
	str("SMTP_FROM", &config.SMTPFrom)
	str("ADMIN_EMAIL", &config.AdminEmail)
	str("ADMIN_PASSWORD", &config.AdminPassword)

	var errs []error
	minutes := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = time.Duration(n) * time.Minute
		}
	}
	minutes("ACCESS_TOKEN_EXPIRE_MINUTES", &config.AccessTokenValidityDuration)
	minutes("REFRESH_TOKEN_EXPIRE_MINUTES", &config.RefreshTokenValidityDuration)
	minutes("RESET_TOKEN_EXPIRE_MINUTES", &config.ResetTokenValidityDuration)

	if v, ok := os.LookupEnv("SMTP_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SMTP_PORT: %w", err))
		} else {
			config.SMTPPort = n
		}
	}
	if v, ok := os.LookupEnv("MAIL_PER_SECOND"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAIL_PER_SECOND: %w", err))
		} else {
			config.MailPerSecond = f
		}
	}
	if v, ok := os.LookupEnv("TRUST_PROXY_HEADERS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TRUST_PROXY_HEADERS: %w", err))
		} else {
			config.TrustProxyHeaders = b
		}
	}
	return errors.Join(errs...)
}
