package contactrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/dbx"
	"github.com/dmitrijs2005/housing/internal/server/models"
)

const columns = `id, requester_id, target_id, listing_id, status, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, cr *models.ContactRequest) (*models.ContactRequest, error) {
	query := `
		INSERT INTO contact_requests (id, requester_id, target_id, listing_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, cr.ID, cr.RequesterID, cr.TargetID, cr.ListingID, cr.Status).Scan(&cr.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cr, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.ContactRequest, error) {
	query := `SELECT ` + columns + `
		FROM contact_requests
		WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.ContactRequest, error) {
	query := `SELECT ` + columns + `
		FROM contact_requests
		WHERE id = $1
		FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *PostgresRepository) FindByTriple(ctx context.Context, requesterID, targetID, listingID string) (*models.ContactRequest, error) {
	query := `SELECT ` + columns + `
		FROM contact_requests
		WHERE requester_id = $1 AND target_id = $2 AND listing_id = $3`
	return r.get(ctx, query, requesterID, targetID, listingID)
}

func (r *PostgresRepository) get(ctx context.Context, query string, args ...any) (*models.ContactRequest, error) {
	cr := &models.ContactRequest{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&cr.ID, &cr.RequesterID, &cr.TargetID, &cr.ListingID, &cr.Status, &cr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cr, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.ContactStatus) error {
	query := `
		UPDATE contact_requests SET status = $2
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

func (r *PostgresRepository) ListByTarget(ctx context.Context, targetID string) ([]*models.ContactRequest, error) {
	query := `SELECT ` + columns + `
		FROM contact_requests
		WHERE target_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, targetID)
}

func (r *PostgresRepository) ListByRequester(ctx context.Context, requesterID string) ([]*models.ContactRequest, error) {
	query := `SELECT ` + columns + `
		FROM contact_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, requesterID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]*models.ContactRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ContactRequest
	for rows.Next() {
		cr := &models.ContactRequest{}
		if err := rows.Scan(&cr.ID, &cr.RequesterID, &cr.TargetID, &cr.ListingID, &cr.Status, &cr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, cr)
	}
	return result, rows.Err()
}
