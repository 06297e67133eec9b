// Package services contains the server's business logic. Every service takes
// a RepositoryManager and runs multi-step changes inside one InTx unit of work.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/auth"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RegisterInput is what a new account is created from.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// PhoneStatus is a user's phone number and whether an admin verified it.
type PhoneStatus struct {
	PhoneNumber   string
	PhoneVerified bool
}

// UserService manages accounts: registration, profile, password and phone.
type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *TokenService
	log         logging.Logger
}

func NewUserService(m repomanager.RepositoryManager, hasher *auth.PasswordHasher, tokens *TokenService, log logging.Logger) *UserService {
	return &UserService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log.With("module", "users"),
	}
}

// Register creates an account with an unverified phone.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := common.NormalizeEmail(in.Email)
	if email == "" {
		return nil, common.InvalidArgument("email is required")
	}
	if err := auth.CheckPasswordStrength(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, common.Internal(err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		PhoneNumber:  strings.TrimSpace(in.Phone),
	}
	u, err := s.repomanager.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.Conflict("email already registered")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, fullName string) (*models.User, error) {
	if err := s.repomanager.Users().UpdateProfile(ctx, userID, strings.TrimSpace(fullName)); err != nil {
		return nil, userLookupError(err)
	}
	return s.Me(ctx, userID)
}

// ChangePassword replaces the password after checking the current one and
// signs the user out everywhere else.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := auth.CheckPasswordStrength(next); err != nil {
		return err
	}

	return s.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		u, err := st.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return userLookupError(err)
		}

		ok, err := s.hasher.Verify(u.PasswordHash, current)
		if err != nil {
			return common.Internal(err)
		}
		if !ok {
			return common.InvalidArgument("incorrect password")
		}

		hash, err := s.hasher.Hash(next)
		if err != nil {
			return common.Internal(err)
		}
		if err := st.Users().UpdatePassword(ctx, userID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		return st.RefreshTokens().DeleteByUser(ctx, userID)
	})
}

// SetPhone stores a new number, which always starts unverified. An empty
// number clears it.
func (s *UserService) SetPhone(ctx context.Context, userID, phone string) (*PhoneStatus, error) {
	phone = strings.TrimSpace(phone)
	if err := s.repomanager.Users().UpdatePhone(ctx, userID, phone); err != nil {
		return nil, userLookupError(err)
	}
	return &PhoneStatus{PhoneNumber: phone}, nil
}

func (s *UserService) GetPhone(ctx context.Context, userID string) (*PhoneStatus, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PhoneStatus{PhoneNumber: u.PhoneNumber, PhoneVerified: u.PhoneVerified}, nil
}

// SetPhoneVerified lets an admin mark userID's current number as verified
// or revoke that mark.
func (s *UserService) SetPhoneVerified(ctx context.Context, adminID, userID string, verified bool) (*PhoneStatus, error) {
	var status *PhoneStatus
	err := s.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		admin, err := st.Users().GetByID(ctx, adminID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return err
		}
		if !admin.IsAdmin {
			return common.PermissionDenied("admin only")
		}

		u, err := st.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return userLookupError(err)
		}
		if verified && u.PhoneNumber == "" {
			return common.InvalidArgument("user has no phone number")
		}
		if err := st.Users().SetPhoneVerified(ctx, userID, verified); err != nil {
			return fmt.Errorf("error updating phone verification: %w", err)
		}
		status = &PhoneStatus{PhoneNumber: u.PhoneNumber, PhoneVerified: verified}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "phone verification changed", "admin_id", adminID, "user_id", userID, "verified", verified)
	return status, nil
}

// RefreshToken rotates a refresh token.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.tokens.Refresh(ctx, refreshToken)
}

// SeedAdmin makes sure an admin account for email exists. An existing
// account is promoted and keeps its password.
func (s *UserService) SeedAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = common.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.InvalidArgument("admin email and password are required")
	}

	var admin *models.User
	err := s.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		u, err := st.Users().GetByEmail(ctx, email)
		switch {
		case err == nil:
			if !u.IsAdmin {
				if err := st.Users().SetAdmin(ctx, u.ID, true); err != nil {
					return err
				}
				u.IsAdmin = true
			}
			admin = u
			return nil
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		hash, err := s.hasher.Hash(password)
		if err != nil {
			return common.Internal(err)
		}
		admin, err = st.Users().Create(ctx, &models.User{
			ID:           uuid.NewString(),
			Email:        email,
			FullName:     "Administrator",
			PasswordHash: hash,
			IsAdmin:      true,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error seeding admin: %w", err)
	}

	if auth.CheckPasswordStrength(password) != nil {
		s.log.Warn(ctx, "admin password is weak", "user_id", admin.ID)
	}
	return admin, nil
}

func userLookupError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NotFound("user not found")
	}
	return err
}
