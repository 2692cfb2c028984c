package repomanager

import (
	"context"

	"github.com/dmitrijs2005/rentals/internal/server/repositories/listings"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process memory. Data does
// not survive a restart.
type InMemoryRepositoryManager struct {
	users    *users.InMemoryRepository
	listings *listings.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:    users.NewInMemoryRepository(),
		listings: listings.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Listings() listings.Repository {
	return m.listings
}

func (m *InMemoryRepositoryManager) Close(context.Context) error {
	return nil
}
