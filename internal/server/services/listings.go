package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/repositories/listings"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 100
)

type ListingInput struct {
	Title       string
	Description string
	Location    string
	Rooms       int
	Rent        int
}

type ListingService struct {
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewListingService(m repomanager.RepositoryManager, log logging.Logger) *ListingService {
	return &ListingService{repomanager: m, log: log.With("module", "listings")}
}

func (s *ListingService) Create(ctx context.Context, ownerID string, in ListingInput) (*models.Listing, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	switch {
	case in.Title == "":
		return nil, common.InvalidArgument("title is required")
	case in.Rooms < 1:
		return nil, common.InvalidArgument("rooms must be at least 1")
	case in.Rent < 0:
		return nil, common.InvalidArgument("rent must not be negative")
	}

	if _, err := s.repomanager.Users().GetByID(ctx, ownerID); err != nil {
		return nil, userLookupError(err)
	}

	l, err := s.repomanager.Listings().Create(ctx, &models.Listing{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Rooms:       in.Rooms,
		Rent:        in.Rent,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating listing: %w", err)
	}
	s.log.Info(ctx, "listing created", "listing_id", l.ID, "owner_id", ownerID)
	return l, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	l, err := s.repomanager.Listings().GetByID(ctx, id)
	if err != nil {
		return nil, listingLookupError(err)
	}
	return l, nil
}

// List pages through listings, newest first, optionally in one location.
// A non-positive limit means DefaultPageSize.
func (s *ListingService) List(ctx context.Context, location string, limit, offset int) ([]*models.Listing, error) {
	if offset < 0 {
		return nil, common.InvalidArgument("offset must not be negative")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.repomanager.Listings().List(ctx, listings.Filter{
		Location: strings.TrimSpace(location),
		Limit:    limit,
		Offset:   offset,
	})
}

func listingLookupError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NotFound("listing not found")
	}
	return err
}
