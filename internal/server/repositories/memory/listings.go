package memory

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/repositories/listings"
)

type listingRepo Store

func (r *listingRepo) Create(_ context.Context, l *models.Listing) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.st.listings[l.ID]; ok {
		return nil, common.ErrorConflict
	}
	l.CreatedAt = r.now()
	r.st.listings[l.ID] = *l
	return l, nil
}

func (r *listingRepo) GetByID(_ context.Context, id string) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.st.listings[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &l, nil
}

func (r *listingRepo) List(_ context.Context, f listings.Filter) ([]*models.Listing, error) {
	r.mu.Lock()
	var all []*models.Listing
	for _, l := range r.st.listings {
		if f.Location != "" && !strings.EqualFold(l.Location, f.Location) {
			continue
		}
		l := l
		all = append(all, &l)
	}
	r.mu.Unlock()

	sortNewestFirst(all,
		func(l *models.Listing) int64 { return l.CreatedAt.UnixNano() },
		func(l *models.Listing) string { return l.ID })

	if f.Offset >= len(all) {
		return nil, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, nil
}
