// Package applications stores applications from users to listings.
package applications

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/server/models"
)

type Repository interface {
	// Create inserts a; an existing (listing, applicant) pair yields
	// common.ErrorConflict.
	Create(ctx context.Context, a *models.Application) (*models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	Find(ctx context.Context, listingID, applicantID string) (*models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	ListByApplicant(ctx context.Context, applicantID string) ([]*models.Application, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*models.OwnerApplication, error)
}
