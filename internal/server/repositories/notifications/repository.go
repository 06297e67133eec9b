// Package notifications stores in-app inbox messages.
package notifications

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
	// MarkRead flags one of userID's notifications as read. Someone else's
	// notification is reported as common.ErrorNotFound.
	MarkRead(ctx context.Context, userID, id string) error
}
