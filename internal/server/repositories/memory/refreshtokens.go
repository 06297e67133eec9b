package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/models"
)

type refreshTokenRepo Store

func (r *refreshTokenRepo) Create(_ context.Context, userID string, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.st.refreshTokens[token] = models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt, CreatedAt: r.now()}
	return nil
}

func (r *refreshTokenRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.st.refreshTokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (r *refreshTokenRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.st.refreshTokens, token)
	return nil
}

func (r *refreshTokenRepo) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, rt := range r.st.refreshTokens {
		if rt.UserID == userID {
			delete(r.st.refreshTokens, k)
		}
	}
	return nil
}
