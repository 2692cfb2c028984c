// Package repomanager selects a storage backend and vends the repositories
// bound to it. Each manager owns its connection and releases it on Close.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/rentals/internal/server/repositories/listings"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Listings() listings.Repository
	Close(ctx context.Context) error
}
