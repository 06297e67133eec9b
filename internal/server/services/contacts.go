package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/notify"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ContactService runs the consent protocol that lets a prospective tenant
// and a listing owner see each other's phone numbers.
type ContactService struct {
	repomanager repomanager.RepositoryManager
	inbox       *notify.BestEffort
	log         logging.Logger
}

func NewContactService(m repomanager.RepositoryManager, inbox *notify.BestEffort, log logging.Logger) *ContactService {
	return &ContactService{repomanager: m, inbox: inbox, log: log.With("module", "contacts")}
}

// Request asks targetID, who must own listingID, to share contact details.
// Repeating a request returns the original record.
func (s *ContactService) Request(ctx context.Context, requesterID, targetID, listingID string) (*models.ContactRequest, error) {
	if requesterID == targetID {
		return nil, common.InvalidArgument("cannot request contact with yourself")
	}

	st := s.repomanager
	if _, err := st.Users().GetByID(ctx, requesterID); err != nil {
		return nil, userLookupError(err)
	}
	if _, err := st.Users().GetByID(ctx, targetID); err != nil {
		return nil, userLookupError(err)
	}
	listing, err := st.Listings().GetByID(ctx, listingID)
	if err != nil {
		return nil, listingLookupError(err)
	}
	if listing.OwnerID != targetID {
		return nil, common.PermissionDenied("contact can only be requested from the listing owner")
	}

	existing, err := st.ContactRequests().FindByTriple(ctx, requesterID, targetID, listingID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching contact request: %w", err)
	}

	cr, err := st.ContactRequests().Create(ctx, &models.ContactRequest{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		TargetID:    targetID,
		ListingID:   listingID,
		Status:      models.ContactPending,
	})
	if errors.Is(err, common.ErrorConflict) {
		// Lost a race with an identical request.
		return st.ContactRequests().FindByTriple(ctx, requesterID, targetID, listingID)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating contact request: %w", err)
	}

	s.log.Info(ctx, "contact requested", "request_id", cr.ID, "listing_id", listingID)
	s.inbox.Dispatch(ctx, targetID, "New contact request", "Someone asked to exchange contact details about \""+listing.Title+"\".")
	return cr, nil
}

// Accept moves a pending request to accepted. Only the target may do so and
// both parties must have a verified phone at this moment.
func (s *ContactService) Accept(ctx context.Context, requestID, actingUserID string) (*models.ContactRequest, error) {
	var (
		cr      *models.ContactRequest
		changed bool
	)
	err := s.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		var err error
		cr, err = s.loadForTarget(ctx, st, requestID, actingUserID)
		if err != nil {
			return err
		}
		if cr.Status == models.ContactDeclined {
			return common.Conflict("contact request was declined")
		}
		if _, _, err := bothVerified(ctx, st, cr); err != nil {
			return err
		}
		if cr.Status == models.ContactAccepted {
			return nil
		}
		if err := st.ContactRequests().UpdateStatus(ctx, cr.ID, models.ContactAccepted); err != nil {
			return fmt.Errorf("error updating contact request: %w", err)
		}
		cr.Status = models.ContactAccepted
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info(ctx, "contact request accepted", "request_id", cr.ID)
		s.inbox.Dispatch(ctx, cr.RequesterID, "Contact request accepted", "You can now see the owner's phone number.")
	}
	return cr, nil
}

// Decline moves a pending request to declined. Phone state is irrelevant.
func (s *ContactService) Decline(ctx context.Context, requestID, actingUserID string) (*models.ContactRequest, error) {
	var (
		cr      *models.ContactRequest
		changed bool
	)
	err := s.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		var err error
		changed = false
		cr, err = s.loadForTarget(ctx, st, requestID, actingUserID)
		if err != nil {
			return err
		}
		switch cr.Status {
		case models.ContactDeclined:
			return nil
		case models.ContactAccepted:
			return common.Conflict("contact request was already accepted")
		}
		if err := st.ContactRequests().UpdateStatus(ctx, cr.ID, models.ContactDeclined); err != nil {
			return fmt.Errorf("error updating contact request: %w", err)
		}
		cr.Status = models.ContactDeclined
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info(ctx, "contact request declined", "request_id", cr.ID)
	}
	return cr, nil
}

// GetContactInfo returns both phone numbers to either party of an accepted
// request, provided both numbers are still verified.
func (s *ContactService) GetContactInfo(ctx context.Context, requestID, actingUserID string) (*models.ContactInfo, error) {
	cr, err := s.repomanager.ContactRequests().GetByID(ctx, requestID)
	if err != nil {
		return nil, contactLookupError(err)
	}
	if !cr.IsParty(actingUserID) {
		return nil, common.PermissionDenied("not a party to this contact request")
	}
	if cr.Status != models.ContactAccepted {
		return nil, common.PermissionDenied("contact request is not accepted")
	}

	requester, target, err := bothVerified(ctx, s.repomanager, cr)
	if err != nil {
		return nil, err
	}
	return &models.ContactInfo{RequesterPhone: requester.PhoneNumber, TargetPhone: target.PhoneNumber}, nil
}

// ListIncoming returns requests addressed to userID.
func (s *ContactService) ListIncoming(ctx context.Context, userID string) ([]*models.ContactRequest, error) {
	return s.repomanager.ContactRequests().ListByTarget(ctx, userID)
}

// ListOutgoing returns requests sent by userID.
func (s *ContactService) ListOutgoing(ctx context.Context, userID string) ([]*models.ContactRequest, error) {
	return s.repomanager.ContactRequests().ListByRequester(ctx, userID)
}

func (s *ContactService) loadForTarget(ctx context.Context, st repomanager.Store, requestID, actingUserID string) (*models.ContactRequest, error) {
	cr, err := st.ContactRequests().GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, contactLookupError(err)
	}
	if cr.TargetID != actingUserID {
		return nil, common.NotFound("contact request not found")
	}
	return cr, nil
}

func bothVerified(ctx context.Context, st repomanager.Store, cr *models.ContactRequest) (*models.User, *models.User, error) {
	requester, err := st.Users().GetByID(ctx, cr.RequesterID)
	if err != nil {
		return nil, nil, userLookupError(err)
	}
	target, err := st.Users().GetByID(ctx, cr.TargetID)
	if err != nil {
		return nil, nil, userLookupError(err)
	}
	if !requester.HasVerifiedPhone() || !target.HasVerifiedPhone() {
		return nil, nil, common.PermissionDenied("both parties need a verified phone number")
	}
	return requester, target, nil
}

func contactLookupError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NotFound("contact request not found")
	}
	return err
}
