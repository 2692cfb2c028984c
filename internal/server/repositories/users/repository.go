// Package users persists user accounts. Every implementation enforces a
// unique email and reports a duplicate as common.ErrorConflict.
package users

import (
	"context"

	"github.com/dmitrijs2005/rentals/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
