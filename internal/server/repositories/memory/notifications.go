package memory

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/models"
)

type notificationRepo Store

func (r *notificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.CreatedAt = r.now()
	r.st.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string) ([]*models.Notification, error) {
	r.mu.Lock()
	var result []*models.Notification
	for _, n := range r.st.notifications {
		if n.UserID == userID {
			n := n
			result = append(result, &n)
		}
	}
	r.mu.Unlock()

	sortNewestFirst(result,
		func(n *models.Notification) int64 { return n.CreatedAt.UnixNano() },
		func(n *models.Notification) string { return n.ID })
	return result, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.st.notifications[id]
	if !ok || n.UserID != userID {
		return common.ErrorNotFound
	}
	n.Read = true
	r.st.notifications[id] = n
	return nil
}
