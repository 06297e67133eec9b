package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/auth"
	"github.com/dmitrijs2005/housing/internal/server/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func tightLimits() RateLimits {
	l := DefaultRateLimits()
	l.LoginPerAccount = ratelimit.Policy{Limit: 3, Window: time.Minute}
	l.LoginPerIP = ratelimit.Policy{Limit: 5, Window: time.Minute}
	l.ForgotPerEmail = ratelimit.Policy{Limit: 2, Window: time.Hour}
	l.VerifyPerEmail = ratelimit.Policy{Limit: 4, Window: time.Minute}
	return l
}

func requireKind(t *testing.T, err error, kind common.Kind) *common.Error {
	t.Helper()
	var ce *common.Error
	require.True(t, errors.As(err, &ce), "want *common.Error, got %v", err)
	require.Equal(t, kind, ce.Kind, "message: %s", ce.Message)
	return ce
}

func TestLogin_Success(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "ann@example.com", "", false)

	pair, err := e.gateway.Login(context.Background(), "10.0.0.1", "  Ann@Example.com ", strongPassword)
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := e.tokens.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Zero(t, e.delays.count())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	_, wrongPw := e.gateway.Login(ctx, "10.0.0.1", "ann@example.com", "nope")
	_, unknown := e.gateway.Login(ctx, "10.0.0.1", "bob@example.com", strongPassword)

	a := requireKind(t, wrongPw, common.KindInvalidArgument)
	b := requireKind(t, unknown, common.KindInvalidArgument)
	assert.Equal(t, "incorrect username or password", a.Message)
	assert.Equal(t, a.Message, b.Message)

	require.Equal(t, 2, e.delays.count())
	for _, c := range e.delays.calls {
		assert.Equal(t, [2]time.Duration{auth.LoginDelayMin, auth.LoginDelayMax}, c)
	}
}

func TestLogin_PerAccountLimit(t *testing.T) {
	e := newEnv(t, WithRateLimits(tightLimits()))
	e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.gateway.Login(ctx, "10.0.0."+string(rune('1'+i)), "ann@example.com", "bad")
		requireKind(t, err, common.KindInvalidArgument)
	}

	// Even the right password is refused once the account is locked out.
	_, err := e.gateway.Login(ctx, "10.0.0.9", "ann@example.com", strongPassword)
	ce := requireKind(t, err, common.KindRateLimited)
	assert.Equal(t, time.Minute, ce.RetryAfter)

	e.clock.Advance(time.Minute)
	_, err = e.gateway.Login(ctx, "10.0.0.9", "ann@example.com", strongPassword)
	require.NoError(t, err)
}

func TestLogin_PerIPLimitSpansAccounts(t *testing.T) {
	e := newEnv(t, WithRateLimits(tightLimits()))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := e.gateway.Login(ctx, "10.0.0.1", "user"+string(rune('a'+i))+"@x", "bad")
		requireKind(t, err, common.KindInvalidArgument)
	}
	_, err := e.gateway.Login(ctx, "10.0.0.1", "fresh@x", "bad")
	requireKind(t, err, common.KindRateLimited)

	_, err = e.gateway.Login(ctx, "10.0.0.2", "fresh@x", "bad")
	requireKind(t, err, common.KindInvalidArgument)
}

func TestLogin_SuccessClearsAccountWindow(t *testing.T) {
	e := newEnv(t, WithRateLimits(tightLimits()))
	e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = e.gateway.Login(ctx, "10.0.0.1", "ann@example.com", "bad")
	}
	_, err := e.gateway.Login(ctx, "10.0.0.2", "ann@example.com", strongPassword)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := e.gateway.Login(ctx, "10.0.0.3", "ann@example.com", "bad")
		requireKind(t, err, common.KindInvalidArgument)
	}
}

func TestLogin_UpgradesLegacyBcryptHash(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("old-school-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.rm.Users().UpdatePassword(ctx, u.ID, string(legacy)))

	_, err = e.gateway.Login(ctx, "10.0.0.1", "ann@example.com", "old-school-pass")
	require.NoError(t, err)

	stored, _ := e.rm.Users().GetByID(ctx, u.ID)
	assert.False(t, e.hasher.NeedsRehash(stored.PasswordHash))

	_, err = e.gateway.Login(ctx, "10.0.0.1", "ann@example.com", "old-school-pass")
	require.NoError(t, err)
}

func TestForgotPassword_GenericForUnknownEmail(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.gateway.ForgotPassword(context.Background(), "10.0.0.1", "ghost@x"))
	e.mailBE.Wait()
	assert.Empty(t, e.mail.all())
}

func TestForgotPassword_SendsCode(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "ann@example.com", "", false)

	require.NoError(t, e.gateway.ForgotPassword(context.Background(), "10.0.0.1", "ANN@example.com"))
	code := e.lastCode(t)

	msgs := e.mail.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ann@example.com", msgs[0].dest)
	assert.Equal(t, "Your password reset code", msgs[0].subject)
	assert.Contains(t, msgs[0].body, "expires in 10 minutes")

	outcome, err := e.codes.Verify(context.Background(), u.ID, code)
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, outcome)
}

func TestForgotPassword_MailFailureKeepsCode(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "ann@example.com", "", false)
	e.mail.err = errors.New("relay down")

	require.NoError(t, e.gateway.ForgotPassword(context.Background(), "10.0.0.1", "ann@example.com"))
	code := e.lastCode(t)

	outcome, err := e.codes.Verify(context.Background(), u.ID, code)
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, outcome)
}

func TestForgotPassword_RateLimitedPerEmail(t *testing.T) {
	e := newEnv(t, WithRateLimits(tightLimits()))
	ctx := context.Background()

	require.NoError(t, e.gateway.ForgotPassword(ctx, "10.0.0.1", "ghost@x"))
	require.NoError(t, e.gateway.ForgotPassword(ctx, "10.0.0.2", "ghost@x"))

	err := e.gateway.ForgotPassword(ctx, "10.0.0.3", "ghost@x")
	ce := requireKind(t, err, common.KindRateLimited)
	assert.Positive(t, ce.RetryAfter)
}

func TestForgotPassword_EmptyEmail(t *testing.T) {
	e := newEnv(t)
	err := e.gateway.ForgotPassword(context.Background(), "10.0.0.1", "   ")
	requireKind(t, err, common.KindInvalidArgument)
}

func TestVerifyResetCode_GenericFailures(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	require.NoError(t, e.gateway.ForgotPassword(ctx, "10.0.0.1", "ann@example.com"))
	code := e.lastCode(t)
	wrong := "999999"
	if code == wrong {
		wrong = "888888"
	}

	var msgs []string
	for _, c := range []struct{ email, code string }{
		{"ann@example.com", wrong},
		{"ann@example.com", "12"},
		{"ghost@example.com", code},
	} {
		_, err := e.gateway.VerifyResetCode(ctx, "10.0.0.1", c.email, c.code)
		ce := requireKind(t, err, common.KindInvalidArgument)
		msgs = append(msgs, ce.Message)
	}
	assert.Equal(t, []string{"invalid or expired code", "invalid or expired code", "invalid or expired code"}, msgs)

	require.Equal(t, 3, e.delays.count())
	for _, c := range e.delays.calls {
		assert.Equal(t, [2]time.Duration{auth.VerifyDelayMin, auth.VerifyDelayMax}, c)
	}
}

func TestVerifyResetCode_ExpiredLooksLikeWrong(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	require.NoError(t, e.gateway.ForgotPassword(ctx, "10.0.0.1", "ann@example.com"))
	code := e.lastCode(t)
	e.clock.Advance(ResetCodeValidity + time.Second)

	_, err := e.gateway.VerifyResetCode(ctx, "10.0.0.1", "ann@example.com", code)
	ce := requireKind(t, err, common.KindInvalidArgument)
	assert.Equal(t, "invalid or expired code", ce.Message)
}

func TestVerifyResetCode_RateLimited(t *testing.T) {
	e := newEnv(t, WithRateLimits(tightLimits()))
	e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := e.gateway.VerifyResetCode(ctx, "10.0.0.1", "ann@example.com", "000000")
		requireKind(t, err, common.KindInvalidArgument)
	}
	_, err := e.gateway.VerifyResetCode(ctx, "10.0.0.1", "ann@example.com", "000000")
	requireKind(t, err, common.KindRateLimited)
}

func TestPasswordResetFlow(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	session, err := e.gateway.Login(ctx, "10.0.0.1", "ann@example.com", strongPassword)
	require.NoError(t, err)

	require.NoError(t, e.gateway.ForgotPassword(ctx, "10.0.0.1", "ann@example.com"))
	code := e.lastCode(t)

	resetToken, err := e.gateway.VerifyResetCode(ctx, "10.0.0.1", "ann@example.com", code)
	require.NoError(t, err)

	_, err = e.tokens.Authenticate(resetToken)
	assert.Error(t, err, "reset token must not work as a session")

	const newPassword = "Another-Long-Passphrase-77"
	require.NoError(t, e.gateway.ResetPassword(ctx, resetToken, newPassword))

	err = e.gateway.ResetPassword(ctx, resetToken, "Yet-Another-Passphrase-88")
	ce := requireKind(t, err, common.KindInvalidArgument)
	assert.Equal(t, "invalid or expired reset token", ce.Message)

	_, err = e.gateway.Login(ctx, "10.0.0.1", "ann@example.com", strongPassword)
	requireKind(t, err, common.KindInvalidArgument)
	_, err = e.gateway.Login(ctx, "10.0.0.1", "ann@example.com", newPassword)
	require.NoError(t, err)

	_, err = e.tokens.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "old sessions are revoked")

	e.mailBE.Wait()
	msgs := e.mail.all()
	assert.Equal(t, "Your password was changed", msgs[len(msgs)-1].subject)

	stored, _ := e.rm.Users().GetByID(ctx, u.ID)
	assert.Nil(t, stored.Reset)
}

func TestResetPassword_RejectsSessionTokenAndWeakPassword(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	pair, err := e.gateway.Login(ctx, "10.0.0.1", "ann@example.com", strongPassword)
	require.NoError(t, err)
	err = e.gateway.ResetPassword(ctx, pair.AccessToken, "Another-Long-Passphrase-77")
	requireKind(t, err, common.KindInvalidArgument)

	require.NoError(t, e.gateway.ForgotPassword(ctx, "10.0.0.1", "ann@example.com"))
	tok, err := e.gateway.VerifyResetCode(ctx, "10.0.0.1", "ann@example.com", e.lastCode(t))
	require.NoError(t, err)

	err = e.gateway.ResetPassword(ctx, tok, "short")
	requireKind(t, err, common.KindInvalidArgument)

	require.NoError(t, e.gateway.ResetPassword(ctx, tok, "Another-Long-Passphrase-77"))
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "ann@example.com", "", false)
	ctx := context.Background()

	require.NoError(t, e.gateway.ForgotPassword(ctx, "10.0.0.1", "ann@example.com"))
	tok, err := e.gateway.VerifyResetCode(ctx, "10.0.0.1", "ann@example.com", e.lastCode(t))
	require.NoError(t, err)

	e.clock.Advance(16 * time.Minute)
	err = e.gateway.ResetPassword(ctx, tok, "Another-Long-Passphrase-77")
	requireKind(t, err, common.KindInvalidArgument)
}
