package memory

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/models"
)

type applicationRepo Store

func (r *applicationRepo) Create(_ context.Context, a *models.Application) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.st.applications {
		if existing.ListingID == a.ListingID && existing.ApplicantID == a.ApplicantID {
			return nil, common.ErrorConflict
		}
	}
	a.CreatedAt = r.now()
	r.st.applications[a.ID] = *a
	return a, nil
}

func (r *applicationRepo) GetByID(_ context.Context, id string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.st.applications[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *applicationRepo) Find(_ context.Context, listingID, applicantID string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.st.applications {
		if a.ListingID == listingID && a.ApplicantID == applicantID {
			return &a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *applicationRepo) UpdateStatus(_ context.Context, id string, status models.ApplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.st.applications[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Status = status
	r.st.applications[id] = a
	return nil
}

func (r *applicationRepo) ListByApplicant(_ context.Context, applicantID string) ([]*models.Application, error) {
	r.mu.Lock()
	var result []*models.Application
	for _, a := range r.st.applications {
		if a.ApplicantID == applicantID {
			a := a
			result = append(result, &a)
		}
	}
	r.mu.Unlock()

	sortNewestFirst(result,
		func(a *models.Application) int64 { return a.CreatedAt.UnixNano() },
		func(a *models.Application) string { return a.ID })
	return result, nil
}

func (r *applicationRepo) ListForOwner(_ context.Context, ownerID string) ([]*models.OwnerApplication, error) {
	r.mu.Lock()
	var result []*models.OwnerApplication
	for _, a := range r.st.applications {
		l, ok := r.st.listings[a.ListingID]
		if !ok || l.OwnerID != ownerID {
			continue
		}
		u := r.st.users[a.ApplicantID]
		result = append(result, &models.OwnerApplication{
			Application:            a,
			ListingTitle:           l.Title,
			ApplicantEmail:         u.Email,
			ApplicantName:          u.FullName,
			ApplicantPhone:         u.PhoneNumber,
			ApplicantPhoneVerified: u.PhoneVerified,
		})
	}
	r.mu.Unlock()

	sortNewestFirst(result,
		func(a *models.OwnerApplication) int64 { return a.CreatedAt.UnixNano() },
		func(a *models.OwnerApplication) string { return a.ID })
	return result, nil
}
