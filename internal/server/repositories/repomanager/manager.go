package repomanager

import (
	"context"

	"github.com/dmitrijs2005/housing/internal/server/repositories/applications"
	"github.com/dmitrijs2005/housing/internal/server/repositories/contactrequests"
	"github.com/dmitrijs2005/housing/internal/server/repositories/listings"
	"github.com/dmitrijs2005/housing/internal/server/repositories/notifications"
	"github.com/dmitrijs2005/housing/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/housing/internal/server/repositories/users"
)

// Store hands out repositories bound to a single handle: the pool outside a
// transaction, or the transaction inside InTx.
type Store interface {
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Listings() listings.Repository
	Applications() applications.Repository
	ContactRequests() contactrequests.Repository
	Notifications() notifications.Repository
}

// RepositoryManager is the persistence entry point used by the services.
type RepositoryManager interface {
	Store

	// InTx runs fn as one atomic unit of work. Any error returned by fn
	// rolls every write back. fn may be invoked more than once when the
	// backend asks for a retry.
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error

	RunMigrations(ctx context.Context) error
	Close() error
}
