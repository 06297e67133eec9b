package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/auth"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/housing/internal/timex"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenTTLs are the lifetimes of the three kinds of credentials.
type TokenTTLs struct {
	Access  time.Duration
	Refresh time.Duration
	Reset   time.Duration
}

// TokenService mints and checks every credential the server hands out.
type TokenService struct {
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	tagKey      []byte
	ttl         TokenTTLs
	now         timex.Clock
}

func NewTokenService(m repomanager.RepositoryManager, keys auth.Keys, ttl TokenTTLs, now timex.Clock) *TokenService {
	if now == nil {
		now = timex.SystemClock
	}
	return &TokenService{
		repomanager: m,
		issuer:      auth.NewIssuer(keys.JWT, now),
		tagKey:      keys.PasswordTag,
		ttl:         ttl,
		now:         now,
	}
}

// IssuePair mints a session access token and stores a new refresh token
// through st, so it can join the caller's transaction.
func (t *TokenService) IssuePair(ctx context.Context, st repomanager.Store, userID string) (*TokenPair, error) {
	access, err := t.issuer.Issue(userID, auth.PurposeSession, t.ttl.Access, "")
	if err != nil {
		return nil, common.Internal(err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.Internal(err)
	}
	if err := st.RefreshTokens().Create(ctx, userID, refresh, t.now().Add(t.ttl.Refresh)); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token, rotates it transactionally, and returns
// a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (t *TokenService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := t.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		token, err := st.RefreshTokens().Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if token.Expires.Before(t.now()) {
			return errExpiredRefresh
		}
		if err := st.RefreshTokens().Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		pair, err = t.IssuePair(ctx, st, token.UserID)
		return err
	})
	if errors.Is(err, errExpiredRefresh) {
		_ = t.repomanager.RefreshTokens().Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}
	if err != nil {
		return nil, err
	}
	return pair, nil
}

var errExpiredRefresh = errors.New("refresh token expired")

// Authenticate resolves a session access token to its user id.
func (t *TokenService) Authenticate(accessToken string) (string, error) {
	claims, err := t.issuer.Parse(accessToken, auth.PurposeSession)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IssueReset mints a password_reset token bound to user's current password.
func (t *TokenService) IssueReset(user *models.User) (string, error) {
	tok, err := t.issuer.Issue(user.ID, auth.PurposePasswordReset, t.ttl.Reset, auth.PasswordTag(t.tagKey, user.PasswordHash))
	if err != nil {
		return "", common.Internal(err)
	}
	return tok, nil
}

// ParseReset returns the user id of a password_reset token.
func (t *TokenService) ParseReset(token string) (*auth.Claims, error) {
	return t.issuer.Parse(token, auth.PurposePasswordReset)
}

// ResetBoundTo reports whether claims were issued against passwordHash.
func (t *TokenService) ResetBoundTo(claims *auth.Claims, passwordHash string) bool {
	return claims.PasswordTag != "" && claims.PasswordTag == auth.PasswordTag(t.tagKey, passwordHash)
}
