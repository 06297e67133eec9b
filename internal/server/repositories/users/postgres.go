package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/dbx"
	"github.com/dmitrijs2005/housing/internal/server/models"
)

const userColumns = `id, email, full_name, password_hash, phone_number, phone_verified, is_admin,
		 reset_code_hash, reset_expires_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, full_name, password_hash, phone_number, is_admin)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.FullName, user.PasswordHash, user.PhoneNumber, user.IsAdmin).Scan(&user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE email = $1`
	return r.get(ctx, query, email)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE id = $1
		 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var codeHash sql.NullString
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.PhoneNumber,
		&user.PhoneVerified, &user.IsAdmin, &codeHash, &expiresAt, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if codeHash.Valid && expiresAt.Valid {
		user.Reset = &models.ResetChallenge{CodeHash: codeHash.String, ExpiresAt: expiresAt.Time}
	}
	return user, nil
}

func (r *PostgresRepository) SetResetChallenge(ctx context.Context, id string, c *models.ResetChallenge) error {
	var codeHash sql.NullString
	var expiresAt sql.NullTime
	if c != nil {
		codeHash = sql.NullString{String: c.CodeHash, Valid: true}
		expiresAt = sql.NullTime{Time: c.ExpiresAt, Valid: true}
	}

	query :=
		`UPDATE users SET reset_code_hash = $2, reset_expires_at = $3
		 WHERE id = $1`
	return r.exec(ctx, query, id, codeHash, expiresAt)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2
		 WHERE id = $1`
	return r.exec(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, fullName string) error {
	query :=
		`UPDATE users SET full_name = $2
		 WHERE id = $1`
	return r.exec(ctx, query, id, fullName)
}

func (r *PostgresRepository) UpdatePhone(ctx context.Context, id string, phone string) error {
	query :=
		`UPDATE users SET phone_number = $2, phone_verified = FALSE
		 WHERE id = $1`
	return r.exec(ctx, query, id, phone)
}

func (r *PostgresRepository) SetPhoneVerified(ctx context.Context, id string, verified bool) error {
	query :=
		`UPDATE users SET phone_verified = $2
		 WHERE id = $1`
	return r.exec(ctx, query, id, verified)
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	query :=
		`UPDATE users SET is_admin = $2
		 WHERE id = $1`
	return r.exec(ctx, query, id, isAdmin)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
