package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
)

type TeamRepository struct {
	s *Store
}

// nameTaken must be called with mu held.
func (r *TeamRepository) nameTaken(name, ownerID, exceptID string) bool {
	for id, t := range r.s.teams {
		if id != exceptID && t.OwnerID == ownerID && t.Name == name {
			return true
		}
	}
	return false
}

func (r *TeamRepository) Create(ctx context.Context, team *models.Team) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(team.Name, team.OwnerID, "") {
		return nil, common.ErrDuplicateTeam
	}

	now := r.s.now()
	stored := team.Clone()
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.s.teams[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.teams[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t.Clone(), nil
}

func (r *TeamRepository) GetByNameAndOwner(ctx context.Context, name, ownerID string) (*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.teams {
		if t.OwnerID == ownerID && t.Name == name {
			return t.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *TeamRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Team, error) {
	return r.filter(func(t *models.Team) bool { return t.OwnerID == ownerID }), nil
}

func (r *TeamRepository) ListByMember(ctx context.Context, userID string) ([]*models.Team, error) {
	return r.filter(func(t *models.Team) bool {
		return t.OwnerID == userID || slices.Contains(t.Members, userID) || slices.Contains(t.Admins, userID)
	}), nil
}

func (r *TeamRepository) filter(keep func(*models.Team) bool) []*models.Team {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*models.Team, 0)
	for _, t := range r.s.teams {
		if keep(t) {
			result = append(result, t.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// current returns the stored team if team.Version is still current.
// Must be called with mu held.
func (r *TeamRepository) current(team *models.Team) (*models.Team, error) {
	t, ok := r.s.teams[team.ID]
	if !ok || t.Version != team.Version {
		return nil, common.ErrVersionConflict
	}
	return t, nil
}

func (r *TeamRepository) Update(ctx context.Context, team *models.Team) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, err := r.current(team)
	if err != nil {
		return nil, err
	}
	if r.nameTaken(team.Name, stored.OwnerID, stored.ID) {
		return nil, common.ErrDuplicateTeam
	}

	stored.Name = team.Name
	stored.Description = team.Description
	stored.Version++
	stored.UpdatedAt = r.s.now()
	return stored.Clone(), nil
}

func (r *TeamRepository) ReplaceRoster(ctx context.Context, team *models.Team) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, err := r.current(team)
	if err != nil {
		return nil, err
	}

	stored.Admins = slices.Clone(team.Admins)
	stored.Members = slices.Clone(team.Members)
	stored.Version++
	stored.UpdatedAt = r.s.now()
	return stored.Clone(), nil
}

func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.teams[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.teams, id)
	return nil
}

func (r *TeamRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, t := range r.s.teams {
		if t.OwnerID == ownerID {
			delete(r.s.teams, id)
		}
	}
	return nil
}

func (r *TeamRepository) RemoveUserEverywhere(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	drop := func(ids []string) ([]string, bool) {
		out := slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == userID })
		return out, len(out) != len(ids)
	}

	for _, t := range r.s.teams {
		admins, a := drop(t.Admins)
		members, m := drop(t.Members)
		if a || m {
			t.Admins = admins
			t.Members = members
			t.Version++
			t.UpdatedAt = r.s.now()
		}
	}
	return nil
}
