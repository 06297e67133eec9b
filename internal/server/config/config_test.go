package config

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/housing/internal/flagx"
	"github.com/dmitrijs2005/housing/internal/server/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every layer at nothing so tests see only what they set.
func isolate(t *testing.T) {
	t.Helper()
	origArgs := os.Args
	origEnvFile := envFile
	t.Cleanup(func() {
		os.Args = origArgs
		envFile = origEnvFile
	})
	os.Args = []string{"testbin"}
	envFile = t.TempDir() + "/missing.env"
	t.Setenv(flagx.ConfigEnvVar, "")
	for _, k := range []string{
		"HTTP_ADDR", "GRPC_ADDR", "DATABASE_URL", "SECRET_KEY", "LOG_LEVEL",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM",
		"MAIL_PER_SECOND", "ADMIN_EMAIL", "ADMIN_PASSWORD", "TRUST_PROXY_HEADERS",
		"ACCESS_TOKEN_EXPIRE_MINUTES", "REFRESH_TOKEN_EXPIRE_MINUTES", "RESET_TOKEN_EXPIRE_MINUTES",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Empty(t, c.DatabaseDSN)
	assert.Equal(t, "devsecret", c.SecretKey)
	assert.Equal(t, 60*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 30*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 15*time.Minute, c.ResetTokenValidityDuration)
	assert.Equal(t, ratelimit.Policy{Limit: 5, Window: 15 * time.Minute}, c.RateLimits.LoginPerAccount)
	assert.Equal(t, ratelimit.Policy{Limit: 3, Window: time.Hour}, c.RateLimits.ForgotPerEmail)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	isolate(t)

	c, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, c)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestLoadConfig_Precedence(t *testing.T) {
	isolate(t)

	path := writeTempJSON(t, "", "", map[string]any{
		"http_addr":  ":7000",
		"secret_key": "from-json",
	})
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env")
	os.Args = []string{"testbin", "-c", path, "-s", "from-flag"}

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", c.DatabaseDSN)
	assert.Equal(t, ":7000", c.HTTPAddr)
	assert.Equal(t, "from-flag", c.SecretKey)
}

func TestLoadConfig_InvalidSettings(t *testing.T) {
	isolate(t)
	os.Args = []string{"testbin", "-s", ""}

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key is empty")
}

func TestValidate(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.RateLimits.VerifyPerEmail = ratelimit.Policy{Limit: 0, Window: time.Minute}
	c.AccessTokenValidityDuration = 0

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify_per_email")
	assert.Contains(t, err.Error(), "token lifetimes must be positive")
}
