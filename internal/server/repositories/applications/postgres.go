package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/dbx"
	"github.com/dmitrijs2005/housing/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (id, listing_id, applicant_id, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, a.ID, a.ListingID, a.ApplicantID, a.Message, a.Status).Scan(&a.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := `
		SELECT id, listing_id, applicant_id, message, status, created_at
		FROM applications
		WHERE id = $1
	`
	return r.get(ctx, query, id)
}

func (r *PostgresRepository) Find(ctx context.Context, listingID, applicantID string) (*models.Application, error) {
	query := `
		SELECT id, listing_id, applicant_id, message, status, created_at
		FROM applications
		WHERE listing_id = $1 AND applicant_id = $2
	`
	return r.get(ctx, query, listingID, applicantID)
}

func (r *PostgresRepository) get(ctx context.Context, query string, args ...any) (*models.Application, error) {
	a := &models.Application{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.ListingID, &a.ApplicantID, &a.Message, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	query := `
		UPDATE applications SET status = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, status)
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

func (r *PostgresRepository) ListByApplicant(ctx context.Context, applicantID string) ([]*models.Application, error) {
	query := `
		SELECT id, listing_id, applicant_id, message, status, created_at
		FROM applications
		WHERE applicant_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, applicantID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Application
	for rows.Next() {
		a := &models.Application{}
		if err := rows.Scan(&a.ID, &a.ListingID, &a.ApplicantID, &a.Message, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) ListForOwner(ctx context.Context, ownerID string) ([]*models.OwnerApplication, error) {
	query := `
		SELECT a.id, a.listing_id, a.applicant_id, a.message, a.status, a.created_at,
		       l.title, u.email, u.full_name, u.phone_number, u.phone_verified
		FROM applications a
		JOIN listings l ON l.id = a.listing_id
		JOIN users u ON u.id = a.applicant_id
		WHERE l.owner_id = $1
		ORDER BY a.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.OwnerApplication
	for rows.Next() {
		a := &models.OwnerApplication{}
		if err := rows.Scan(&a.ID, &a.ListingID, &a.ApplicantID, &a.Message, &a.Status, &a.CreatedAt,
			&a.ListingTitle, &a.ApplicantEmail, &a.ApplicantName, &a.ApplicantPhone, &a.ApplicantPhoneVerified); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
