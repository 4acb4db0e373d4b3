// Package users persists user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
)

// Repository stores users. Lookups by email expect an already normalized
// address. Missing rows are reported as common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
