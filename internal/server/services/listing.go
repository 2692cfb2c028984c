package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rentals/internal/server/search"
	"github.com/dmitrijs2005/rentals/internal/server/uploads"
	"github.com/google/uuid"
)

type ListingService struct {
	repomanager repomanager.RepositoryManager
}

func NewListingService(m repomanager.RepositoryManager) *ListingService {
	return &ListingService{repomanager: m}
}

func photoPaths(photos []uploads.Attachment) []string {
	paths := make([]string, len(photos))
	for i, p := range photos {
		paths[i] = p.Path
	}
	return paths
}

// validID reports whether id can name a listing. Malformed ids are treated
// as missing listings.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create stores a new listing owned by creatorID. At least one photo is
// required; photo paths keep the order of photos.
func (s *ListingService) Create(ctx context.Context, creatorID string, in models.ListingInput, photos []uploads.Attachment) (*models.Listing, error) {
	if len(photos) == 0 {
		return nil, fmt.Errorf("%w: no photos uploaded", common.ErrorBadRequest)
	}

	ts := now().UTC()
	l := &models.Listing{
		ID:         newID(),
		CreatorID:  creatorID,
		PhotoPaths: photoPaths(photos),
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	in.Apply(l)

	created, err := s.repomanager.Listings().Create(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorConflict, err)
	}
	return created, nil
}

// Update replaces every field of in on the listing. Photos are replaced only
// when a non-empty set is given.
func (s *ListingService) Update(ctx context.Context, id string, in models.ListingInput, photos []uploads.Attachment) (*models.Listing, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	return s.repomanager.Listings().Update(ctx, id, func(l *models.Listing) error {
		in.Apply(l)
		if len(photos) > 0 {
			l.PhotoPaths = photoPaths(photos)
		}
		l.UpdatedAt = now().UTC()
		return nil
	})
}

func (s *ListingService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	return s.repomanager.Listings().Delete(ctx, id)
}

// Get returns a listing with its creator resolved.
func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	l, err := s.repomanager.Listings().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.resolveCreators(ctx, []*models.Listing{l}); err != nil {
		return nil, err
	}
	return l, nil
}

// List returns listings whose category equals category exactly, or all of
// them when category is empty.
func (s *ListingService) List(ctx context.Context, category string) ([]*models.Listing, error) {
	return s.find(ctx, search.ByCategory(category))
}

// Search returns listings matching term; search.Wildcard returns all.
func (s *ListingService) Search(ctx context.Context, term string) ([]*models.Listing, error) {
	return s.find(ctx, search.ByTerm(term))
}

func (s *ListingService) find(ctx context.Context, c search.Criteria) ([]*models.Listing, error) {
	ls, err := s.repomanager.Listings().Find(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := s.resolveCreators(ctx, ls); err != nil {
		return nil, err
	}
	return ls, nil
}

// resolveCreators looks up each distinct creator once. Listings whose
// creator no longer exists are returned with a nil Creator.
func (s *ListingService) resolveCreators(ctx context.Context, ls []*models.Listing) error {
	repo := s.repomanager.Users()
	seen := make(map[string]*models.PublicUser)

	for _, l := range ls {
		creator, ok := seen[l.CreatorID]
		if !ok {
			u, err := repo.GetByID(ctx, l.CreatorID)
			switch {
			case err == nil:
				creator = u.Public()
			case errors.Is(err, common.ErrorNotFound):
				creator = nil
			default:
				return fmt.Errorf("error resolving creator: %w", err)
			}
			seen[l.CreatorID] = creator
		}
		l.Creator = creator
	}
	return nil
}
