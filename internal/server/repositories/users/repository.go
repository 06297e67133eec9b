// Package users declares and implements persistence for user accounts,
// including the embedded password-reset challenge and phone state.
package users

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/server/models"
)

type Repository interface {
	// Create inserts user; a taken e-mail yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByIDForUpdate is GetByID that also locks the row for the rest of
	// the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)

	// SetResetChallenge stores c, overwriting any prior challenge. A nil c
	// clears it. Hash and expiry are always written together.
	SetResetChallenge(ctx context.Context, id string, c *models.ResetChallenge) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, fullName string) error
	// UpdatePhone stores phone and marks it unverified.
	UpdatePhone(ctx context.Context, id string, phone string) error
	SetPhoneVerified(ctx context.Context, id string, verified bool) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
}
