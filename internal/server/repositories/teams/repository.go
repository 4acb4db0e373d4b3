// Package teams persists teams together with their admin and member rosters.
package teams

import (
	"context"

	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
)

// Repository stores teams.
//
// Update and ReplaceRoster are optimistic: they only succeed when the stored
// version equals team.Version, bump it by one and return the new state.
// A stale version yields common.ErrVersionConflict.
type Repository interface {
	Create(ctx context.Context, team *models.Team) (*models.Team, error)
	GetByID(ctx context.Context, id string) (*models.Team, error)
	GetByNameAndOwner(ctx context.Context, name, ownerID string) (*models.Team, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Team, error)
	ListByMember(ctx context.Context, userID string) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) (*models.Team, error)
	ReplaceRoster(ctx context.Context, team *models.Team) (*models.Team, error)
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	RemoveUserEverywhere(ctx context.Context, userID string) error
}
