package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/listings"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/users"
	"github.com/dmitrijs2005/rentals/internal/server/search"
)

// fakeManager lets a test swap single repositories for failing ones.
type fakeManager struct {
	users    users.Repository
	listings listings.Repository
}

func (m *fakeManager) RunMigrations(context.Context) error { return nil }
func (m *fakeManager) Users() users.Repository { return m.users }
func (m *fakeManager) Listings() listings.Repository { return m.listings }
func (m *fakeManager) Close(context.Context) error { return nil }

var _ repomanager.RepositoryManager = (*fakeManager)(nil)

type failingUsers struct {
	users.Repository
	err        error
	getByIDHit int
}

func (f *failingUsers) GetByEmail(context.Context, string) (*models.User, error) { return nil, f.err }
func (f *failingUsers) GetByID(context.Context, string) (*models.User, error) {
	f.getByIDHit++
	return nil, f.err
}

// countingUsers counts GetByID lookups on top of a real repository.
type countingUsers struct {
	users.Repository
	hits map[string]int
}

func (c *countingUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	c.hits[id]++
	return c.Repository.GetByID(ctx, id)
}

type failingListings struct {
	listings.Repository
	err error
}

func (f *failingListings) Create(context.Context, *models.Listing) (*models.Listing, error) {
	return nil, f.err
}

func (f *failingListings) Find(context.Context, search.Criteria) ([]*models.Listing, error) {
	return nil, f.err
}

// fixClock pins now for the duration of a test.
func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	origNow := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = origNow })
}

func searchAll() search.Criteria { return search.All() }
