// Package contactrequests stores consent requests for exchanging phone
// numbers between a listing's creator and an interested user.
package contactrequests

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/server/models"
)

type Repository interface {
	// Create inserts r; an existing (requester, target, listing) triple
	// yields common.ErrorConflict.
	Create(ctx context.Context, r *models.ContactRequest) (*models.ContactRequest, error)
	GetByID(ctx context.Context, id string) (*models.ContactRequest, error)
	// GetByIDForUpdate also locks the row for the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*models.ContactRequest, error)
	FindByTriple(ctx context.Context, requesterID, targetID, listingID string) (*models.ContactRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.ContactStatus) error
	ListByTarget(ctx context.Context, targetID string) ([]*models.ContactRequest, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*models.ContactRequest, error)
}
