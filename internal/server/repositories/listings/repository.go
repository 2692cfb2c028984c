// Package listings persists rental listings and evaluates search.Criteria
// against them.
package listings

import (
	"context"

	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/search"
)

// MutateFunc edits a listing in place during Update. Returning an error
// aborts the update and leaves the stored listing untouched. A store may
// call it more than once for one Update.
type MutateFunc func(l *models.Listing) error

// Repository stores listings. Find returns matches in insertion order.
type Repository interface {
	Create(ctx context.Context, l *models.Listing) (*models.Listing, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	Find(ctx context.Context, c search.Criteria) ([]*models.Listing, error)
	Update(ctx context.Context, id string, mutate MutateFunc) (*models.Listing, error)
	Delete(ctx context.Context, id string) error
}
