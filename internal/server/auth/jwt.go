package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose restricts what a token may be used for.
type Purpose string

const (
	PurposeSession       Purpose = "session"
	PurposePasswordReset Purpose = "password_reset"
)

// Claims are the registered claims plus the purpose tag. Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Purpose     Purpose `json:"purpose"`
	PasswordTag string  `json:"ptag,omitempty"`
}

// Issuer signs and parses HS256 tokens with one key.
type Issuer struct {
	key []byte
	now timex.Clock
}

func NewIssuer(key []byte, now timex.Clock) *Issuer {
	if now == nil {
		now = timex.SystemClock
	}
	return &Issuer{key: key, now: now}
}

// Issue mints a token for userID restricted to purpose.
func (i *Issuer) Issue(userID string, purpose Purpose, ttl time.Duration, passwordTag string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose:     purpose,
		PasswordTag: passwordTag,
	})
	return token.SignedString(i.key)
}

// Parse validates tokenString and requires it to carry purpose. Expired
// tokens yield common.ErrTokenExpired, everything else common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.Purpose != purpose {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
