package notify

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/repositories/notifications"
	"github.com/google/uuid"
)

// Inbox stores the message as an in-app notification for the user whose id
// is the destination.
type Inbox struct {
	repo notifications.Repository
}

func NewInbox(repo notifications.Repository) *Inbox {
	return &Inbox{repo: repo}
}

func (i *Inbox) Notify(ctx context.Context, userID, subject, body string) error {
	msg := subject
	switch {
	case msg == "":
		msg = body
	case body != "":
		msg = subject + ": " + body
	}
	return i.repo.Create(ctx, &models.Notification{ID: uuid.NewString(), UserID: userID, Message: msg})
}
