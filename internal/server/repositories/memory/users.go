package memory

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/models"
)

type userRepo Store

// detach copies u so that its Reset no longer points into the store.
func detach(u models.User) *models.User {
	if u.Reset != nil {
		c := *u.Reset
		u.Reset = &c
	}
	return &u
}

func (r *userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.st.users {
		if u.Email == user.Email {
			return nil, common.ErrorConflict
		}
	}
	if _, ok := r.st.users[user.ID]; ok {
		return nil, common.ErrorConflict
	}
	user.CreatedAt = r.now()
	r.st.users[user.ID] = *detach(*user)
	return user, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return detach(u), nil
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.st.users {
		if u.Email == email {
			return detach(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) update(id string, fn func(u *models.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.st.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	r.st.users[id] = u
	return nil
}

func (r *userRepo) SetResetChallenge(_ context.Context, id string, c *models.ResetChallenge) error {
	return r.update(id, func(u *models.User) error {
		if c == nil {
			u.Reset = nil
			return nil
		}
		cp := *c
		u.Reset = &cp
		return nil
	})
}

func (r *userRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	return r.update(id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (r *userRepo) UpdateProfile(_ context.Context, id string, fullName string) error {
	return r.update(id, func(u *models.User) error {
		u.FullName = fullName
		return nil
	})
}

func (r *userRepo) UpdatePhone(_ context.Context, id string, phone string) error {
	return r.update(id, func(u *models.User) error {
		u.PhoneNumber = phone
		u.PhoneVerified = false
		return nil
	})
}

func (r *userRepo) SetPhoneVerified(_ context.Context, id string, verified bool) error {
	return r.update(id, func(u *models.User) error {
		if verified && u.PhoneNumber == "" {
			return common.InvalidArgument("phone number is empty")
		}
		u.PhoneVerified = verified
		return nil
	})
}

func (r *userRepo) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	return r.update(id, func(u *models.User) error {
		u.IsAdmin = isAdmin
		return nil
	})
}
