// Package listings stores apartment listings.
package listings

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/server/models"
)

// Filter narrows List. An empty Location matches everything.
type Filter struct {
	Location string
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, l *models.Listing) (*models.Listing, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	List(ctx context.Context, f Filter) ([]*models.Listing, error)
}
