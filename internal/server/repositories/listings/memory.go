package listings

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/search"
)

// InMemoryRepository keeps listings in process memory. Stored values are
// cloned on the way in and out so callers never share them.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Listing
	order []string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*models.Listing)}
}

func (r *InMemoryRepository) Create(_ context.Context, l *models.Listing) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[l.ID]; ok {
		return nil, common.ErrorConflict
	}

	stored := l.Clone()
	stored.Creator = nil
	r.items[l.ID] = stored
	r.order = append(r.order, l.ID)

	return l, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return l.Clone(), nil
}

func (r *InMemoryRepository) Find(_ context.Context, c search.Criteria) ([]*models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]*models.Listing, 0, len(r.order))
	for _, id := range r.order {
		ordered = append(ordered, r.items[id])
	}

	matched := search.Filter(ordered, c)
	result := make([]*models.Listing, 0, len(matched))
	for _, l := range matched {
		result = append(result, l.Clone())
	}
	return result, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id string, mutate MutateFunc) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	l := current.Clone()
	if err := mutate(l); err != nil {
		return nil, err
	}

	// id and creator are not replaceable
	l.ID = current.ID
	l.CreatorID = current.CreatorID

	stored := l.Clone()
	stored.Creator = nil
	r.items[id] = stored

	return l, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, id)

	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored listings.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
