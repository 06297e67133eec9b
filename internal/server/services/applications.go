package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/notify"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ApplicationService handles tenants applying to listings and owners
// accepting them.
type ApplicationService struct {
	repomanager repomanager.RepositoryManager
	inbox       *notify.BestEffort
	log         logging.Logger
}

func NewApplicationService(m repomanager.RepositoryManager, inbox *notify.BestEffort, log logging.Logger) *ApplicationService {
	return &ApplicationService{repomanager: m, inbox: inbox, log: log.With("module", "applications")}
}

// Apply files an application, or returns the one applicantID already filed.
func (s *ApplicationService) Apply(ctx context.Context, applicantID, listingID, message string) (*models.Application, error) {
	listing, err := s.repomanager.Listings().GetByID(ctx, listingID)
	if err != nil {
		return nil, listingLookupError(err)
	}
	if listing.OwnerID == applicantID {
		return nil, common.InvalidArgument("cannot apply to your own listing")
	}

	apps := s.repomanager.Applications()
	if existing, err := apps.Find(ctx, listingID, applicantID); err == nil {
		return existing, nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching application: %w", err)
	}

	a, err := apps.Create(ctx, &models.Application{
		ID:          uuid.NewString(),
		ListingID:   listingID,
		ApplicantID: applicantID,
		Message:     strings.TrimSpace(message),
		Status:      models.ApplicationPending,
	})
	if errors.Is(err, common.ErrorConflict) {
		return apps.Find(ctx, listingID, applicantID)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating application: %w", err)
	}

	s.log.Info(ctx, "application filed", "application_id", a.ID, "listing_id", listingID)
	s.inbox.Dispatch(ctx, listing.OwnerID, "New application", "Someone applied to \""+listing.Title+"\".")
	return a, nil
}

// Accept marks an application on one of ownerID's listings as accepted.
// Applications on other owners' listings are reported as not found.
func (s *ApplicationService) Accept(ctx context.Context, ownerID, applicationID string) (*models.Application, error) {
	var (
		app     *models.Application
		listing *models.Listing
		changed bool
	)
	err := s.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		var err error
		app, err = st.Applications().GetByID(ctx, applicationID)
		if err != nil {
			return applicationLookupError(err)
		}
		listing, err = st.Listings().GetByID(ctx, app.ListingID)
		if err != nil {
			return applicationLookupError(err)
		}
		if listing.OwnerID != ownerID {
			return common.NotFound("application not found")
		}
		if app.Status == models.ApplicationAccepted {
			return nil
		}
		if err := st.Applications().UpdateStatus(ctx, app.ID, models.ApplicationAccepted); err != nil {
			return fmt.Errorf("error updating application: %w", err)
		}
		app.Status = models.ApplicationAccepted
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info(ctx, "application accepted", "application_id", app.ID)
		s.inbox.Dispatch(ctx, app.ApplicantID, "Application accepted", "Your application to \""+listing.Title+"\" was accepted.")
	}
	return app, nil
}

// ListForOwner returns applications on ownerID's listings. An applicant's
// phone is shown only once accepted and only while verified.
func (s *ApplicationService) ListForOwner(ctx context.Context, ownerID string) ([]*models.OwnerApplication, error) {
	list, err := s.repomanager.Applications().ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		if a.Status != models.ApplicationAccepted || !a.ApplicantPhoneVerified || a.ApplicantPhone == "" {
			a.ApplicantPhone = ""
		}
	}
	return list, nil
}

// ListMine returns the applications applicantID filed.
func (s *ApplicationService) ListMine(ctx context.Context, applicantID string) ([]*models.Application, error) {
	return s.repomanager.Applications().ListByApplicant(ctx, applicantID)
}

func applicationLookupError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NotFound("application not found")
	}
	return err
}
