package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/auth"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/notify"
	"github.com/dmitrijs2005/housing/internal/server/ratelimit"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
)

// RateLimits is the policy table of the credential endpoints.
type RateLimits struct {
	LoginPerIP      ratelimit.Policy
	LoginPerAccount ratelimit.Policy
	ForgotPerIP     ratelimit.Policy
	ForgotPerEmail  ratelimit.Policy
	VerifyPerIP     ratelimit.Policy
	VerifyPerEmail  ratelimit.Policy
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		LoginPerIP:      ratelimit.Policy{Limit: 30, Window: 15 * time.Minute},
		LoginPerAccount: ratelimit.Policy{Limit: 5, Window: 15 * time.Minute},
		ForgotPerIP:     ratelimit.Policy{Limit: 10, Window: time.Hour},
		ForgotPerEmail:  ratelimit.Policy{Limit: 3, Window: time.Hour},
		VerifyPerIP:     ratelimit.Policy{Limit: 30, Window: 15 * time.Minute},
		VerifyPerEmail:  ratelimit.Policy{Limit: 10, Window: 15 * time.Minute},
	}
}

const (
	scopeLoginIP      = "login:ip"
	scopeLoginAccount = "login:account"
	scopeForgotIP     = "forgot:ip"
	scopeForgotEmail  = "forgot:email"
	scopeVerifyIP     = "verify:ip"
	scopeVerifyEmail  = "verify:email"
)

// Messages shown for every credential failure, whatever the cause.
const (
	msgBadCredentials = "incorrect username or password"
	msgInvalidCode    = "invalid or expired code"
	msgInvalidReset   = "invalid or expired reset token"
)

// AuthGateway fronts the credential flows: login and the three steps of a
// password reset. It applies the rate limits and the anti-timing delays.
type AuthGateway struct {
	repomanager repomanager.RepositoryManager
	limiter     *ratelimit.Limiter
	limits      RateLimits
	hasher      *auth.PasswordHasher
	codes       *ResetCodeService
	tokens      *TokenService
	mail        *notify.BestEffort
	delay       auth.Delayer
	log         logging.Logger
}

type AuthGatewayOption func(*AuthGateway)

// WithDelayer replaces the sleeping delayer, mostly for tests.
func WithDelayer(d auth.Delayer) AuthGatewayOption {
	return func(g *AuthGateway) { g.delay = d }
}

func WithRateLimits(l RateLimits) AuthGatewayOption {
	return func(g *AuthGateway) { g.limits = l }
}

func NewAuthGateway(
	m repomanager.RepositoryManager,
	limiter *ratelimit.Limiter,
	hasher *auth.PasswordHasher,
	codes *ResetCodeService,
	tokens *TokenService,
	mail *notify.BestEffort,
	log logging.Logger,
	opts ...AuthGatewayOption,
) *AuthGateway {
	g := &AuthGateway{
		repomanager: m,
		limiter:     limiter,
		limits:      DefaultRateLimits(),
		hasher:      hasher,
		codes:       codes,
		tokens:      tokens,
		mail:        mail,
		delay:       auth.SleepDelayer,
		log:         log.With("module", "authgateway"),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Login checks credentials from ip and returns a session. Unknown accounts
// and wrong passwords are indistinguishable to the caller.
func (g *AuthGateway) Login(ctx context.Context, ip, email, password string) (*TokenPair, error) {
	account := common.NormalizeEmail(email)

	if err := g.allow(ctx, scopeLoginIP, ip, g.limits.LoginPerIP); err != nil {
		return nil, err
	}
	if err := g.allow(ctx, scopeLoginAccount, account, g.limits.LoginPerAccount); err != nil {
		return nil, err
	}

	user, err := g.repomanager.Users().GetByEmail(ctx, account)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error loading user: %w", err)
		}
		g.hasher.VerifyDummy(password)
		return nil, g.badCredentials()
	}

	ok, err := g.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		g.log.Error(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
	}
	if !ok {
		return nil, g.badCredentials()
	}

	g.limiter.Forget(scopeLoginAccount, account)
	g.upgradeHash(ctx, user, password)

	pair, err := g.tokens.IssuePair(ctx, g.repomanager, user.ID)
	if err != nil {
		return nil, err
	}
	g.log.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

func (g *AuthGateway) badCredentials() error {
	g.delay(auth.LoginDelayMin, auth.LoginDelayMax)
	return common.InvalidArgument(msgBadCredentials)
}

// upgradeHash rewrites a legacy or outdated hash after a successful login.
func (g *AuthGateway) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !g.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := g.hasher.Hash(password)
	if err == nil {
		err = g.repomanager.Users().UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		g.log.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err)
	}
}

// ForgotPassword e-mails a reset code when email belongs to an account. The
// caller gets the same acknowledgement either way.
func (g *AuthGateway) ForgotPassword(ctx context.Context, ip, email string) error {
	account := common.NormalizeEmail(email)
	if account == "" {
		return common.InvalidArgument("email is required")
	}

	if err := g.allow(ctx, scopeForgotIP, ip, g.limits.ForgotPerIP); err != nil {
		return err
	}
	if err := g.allow(ctx, scopeForgotEmail, account, g.limits.ForgotPerEmail); err != nil {
		return err
	}

	user, err := g.repomanager.Users().GetByEmail(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			g.log.Debug(ctx, "password reset for unknown account")
			return nil
		}
		return fmt.Errorf("error loading user: %w", err)
	}

	code, err := g.codes.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	g.mail.Dispatch(ctx, user.Email, "Your password reset code", resetCodeEmail(code))
	g.log.Info(ctx, "password reset code issued", "user_id", user.ID)
	return nil
}

func resetCodeEmail(code string) string {
	return fmt.Sprintf("Your password reset code is:\n\n%s\n\n"+
		"This code expires in %d minutes. If you didn't request this, you can ignore this email.\n",
		code, int(ResetCodeValidity/time.Minute))
}

// VerifyResetCode exchanges a correct code for a password_reset token.
func (g *AuthGateway) VerifyResetCode(ctx context.Context, ip, email, code string) (string, error) {
	account := common.NormalizeEmail(email)

	if err := g.allow(ctx, scopeVerifyIP, ip, g.limits.VerifyPerIP); err != nil {
		return "", err
	}
	if err := g.allow(ctx, scopeVerifyEmail, account, g.limits.VerifyPerEmail); err != nil {
		return "", err
	}

	user, err := g.repomanager.Users().GetByEmail(ctx, account)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("error loading user: %w", err)
		}
		return "", g.invalidCode()
	}

	outcome, err := g.codes.Verify(ctx, user.ID, code)
	if err != nil {
		return "", err
	}
	if outcome != VerifyOK {
		return "", g.invalidCode()
	}

	return g.tokens.IssueReset(user)
}

func (g *AuthGateway) invalidCode() error {
	g.delay(auth.VerifyDelayMin, auth.VerifyDelayMax)
	return common.InvalidArgument(msgInvalidCode)
}

// ResetPassword sets a new password using a token from VerifyResetCode.
// Once the password changes the token no longer matches and is spent.
func (g *AuthGateway) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := g.tokens.ParseReset(resetToken)
	if err != nil {
		return common.InvalidArgument(msgInvalidReset)
	}
	if err := auth.CheckPasswordStrength(newPassword); err != nil {
		return err
	}

	var user *models.User
	err = g.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		u, err := st.Users().GetByIDForUpdate(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.InvalidArgument(msgInvalidReset)
			}
			return err
		}
		if !g.tokens.ResetBoundTo(claims, u.PasswordHash) {
			return common.InvalidArgument(msgInvalidReset)
		}

		hash, err := g.hasher.Hash(newPassword)
		if err != nil {
			return common.Internal(err)
		}
		if err := st.Users().UpdatePassword(ctx, u.ID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		if err := st.Users().SetResetChallenge(ctx, u.ID, nil); err != nil {
			return fmt.Errorf("error clearing reset challenge: %w", err)
		}
		if err := st.RefreshTokens().DeleteByUser(ctx, u.ID); err != nil {
			return fmt.Errorf("error revoking sessions: %w", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return err
	}

	g.mail.Dispatch(ctx, user.Email, "Your password was changed",
		"Your password was just reset. If this wasn't you, contact support immediately.\n")
	g.log.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

func (g *AuthGateway) allow(ctx context.Context, scope, key string, p ratelimit.Policy) error {
	d := g.limiter.Check(scope, key, p)
	if d.Allowed {
		return nil
	}
	g.log.Warn(ctx, "rate limited", "scope", scope, "policy", p.String(), "retry_after", d.RetryAfter)
	return common.RateLimited("too many attempts, try again later", d.RetryAfter)
}
