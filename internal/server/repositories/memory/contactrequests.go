package memory

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/models"
)

type contactRepo Store

func (r *contactRepo) Create(_ context.Context, cr *models.ContactRequest) (*models.ContactRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cr.RequesterID == cr.TargetID {
		return nil, common.InvalidArgument("requester and target must differ")
	}
	for _, existing := range r.st.contacts {
		if existing.RequesterID == cr.RequesterID && existing.TargetID == cr.TargetID && existing.ListingID == cr.ListingID {
			return nil, common.ErrorConflict
		}
	}
	cr.CreatedAt = r.now()
	r.st.contacts[cr.ID] = *cr
	return cr, nil
}

func (r *contactRepo) GetByID(_ context.Context, id string) (*models.ContactRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cr, ok := r.st.contacts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &cr, nil
}

func (r *contactRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.ContactRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *contactRepo) FindByTriple(_ context.Context, requesterID, targetID, listingID string) (*models.ContactRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cr := range r.st.contacts {
		if cr.RequesterID == requesterID && cr.TargetID == targetID && cr.ListingID == listingID {
			return &cr, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *contactRepo) UpdateStatus(_ context.Context, id string, status models.ContactStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cr, ok := r.st.contacts[id]
	if !ok {
		return common.ErrorNotFound
	}
	cr.Status = status
	r.st.contacts[id] = cr
	return nil
}

func (r *contactRepo) ListByTarget(_ context.Context, targetID string) ([]*models.ContactRequest, error) {
	return r.list(func(cr models.ContactRequest) bool { return cr.TargetID == targetID }), nil
}

func (r *contactRepo) ListByRequester(_ context.Context, requesterID string) ([]*models.ContactRequest, error) {
	return r.list(func(cr models.ContactRequest) bool { return cr.RequesterID == requesterID }), nil
}

func (r *contactRepo) list(match func(models.ContactRequest) bool) []*models.ContactRequest {
	r.mu.Lock()
	var result []*models.ContactRequest
	for _, cr := range r.st.contacts {
		if match(cr) {
			cr := cr
			result = append(result, &cr)
		}
	}
	r.mu.Unlock()

	sortNewestFirst(result,
		func(cr *models.ContactRequest) int64 { return cr.CreatedAt.UnixNano() },
		func(cr *models.ContactRequest) string { return cr.ID })
	return result
}
