package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
)

// NotificationService reads a user's in-app inbox.
type NotificationService struct {
	repomanager repomanager.RepositoryManager
}

func NewNotificationService(m repomanager.RepositoryManager) *NotificationService {
	return &NotificationService{repomanager: m}
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.repomanager.Notifications().ListByUser(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	err := s.repomanager.Notifications().MarkRead(ctx, userID, id)
	if errors.Is(err, common.ErrorNotFound) {
		return common.NotFound("notification not found")
	}
	return err
}
