package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/logging"
	"github.com/dmitrijs2005/teamkeeper/internal/server/locks"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/teams"
)

// TeamPatch carries the fields an owner may change. Nil means unchanged.
type TeamPatch struct {
	Name        *string
	Description *string
}

// TeamService enforces who may see and change a team.
//
// Writes to one team are serialized through locker and, underneath, rely on
// the store's version check. A stale write is retried with backoff.
type TeamService struct {
	repomanager repomanager.RepositoryManager
	locker      locks.Locker
	backoff     func() retry.Backoff
	log         logging.Logger
}

func NewTeamService(rm repomanager.RepositoryManager, locker locks.Locker, log logging.Logger) *TeamService {
	return &TeamService{
		repomanager: rm,
		locker:      locker,
		backoff:     defaultBackoff,
		log:         log.With("module", "teams"),
	}
}

func defaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(10*time.Millisecond))
}

func validTeamID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create makes owner the first admin and member of a new team.
func (s *TeamService) Create(ctx context.Context, owner *models.User, name, description string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Problems: []string{"Name is required"}}
	}

	if _, err := s.repomanager.Teams().GetByNameAndOwner(ctx, name, owner.ID); err == nil {
		return nil, common.ErrDuplicateTeam
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("lookup team: %w", err)
	}

	var created *models.Team
	err := s.repomanager.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		var err error
		created, err = tx.Teams().Create(ctx, &models.Team{
			ID:          uuid.NewString(),
			Name:        name,
			Description: strings.TrimSpace(description),
			OwnerID:     owner.ID,
			Admins:      []string{owner.ID},
			Members:     []string{owner.ID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "team created", "team_id", created.ID, "owner_id", owner.ID)
	return created, nil
}

// FetchAll lists the teams caller owns.
func (s *TeamService) FetchAll(ctx context.Context, caller *models.User) ([]*models.Team, error) {
	return s.repomanager.Teams().ListByOwner(ctx, caller.ID)
}

// FetchMemberships lists every team caller owns, administers or belongs to.
func (s *TeamService) FetchMemberships(ctx context.Context, caller *models.User) ([]*models.Team, error) {
	return s.repomanager.Teams().ListByMember(ctx, caller.ID)
}

// FetchOne returns the team if caller is on its roster. Outsiders get
// common.ErrorNotFound, the same as for a missing team.
func (s *TeamService) FetchOne(ctx context.Context, caller *models.User, teamID string) (*models.Team, error) {
	team, err := s.get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.CanRead(caller.ID) {
		return nil, common.ErrorNotFound
	}
	return team, nil
}

// RequireAdmin loads the team and checks that caller is its owner or one of
// its admins.
func (s *TeamService) RequireAdmin(ctx context.Context, caller *models.User, teamID string) (*models.Team, error) {
	team, err := s.get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsAdmin(caller.ID) {
		return nil, common.ErrForbidden
	}
	return team, nil
}

func (s *TeamService) get(ctx context.Context, teamID string) (*models.Team, error) {
	if !validTeamID(teamID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Teams().GetByID(ctx, teamID)
}

// Update changes name and description. Only the owner may do so.
func (s *TeamService) Update(ctx context.Context, caller *models.User, teamID string, patch TeamPatch) (*models.Team, error) {
	var updated *models.Team

	err := s.write(ctx, teamID, func(ctx context.Context, repo teams.Repository, team *models.Team) error {
		if !team.IsOwner(caller.ID) {
			return common.ErrForbidden
		}

		if patch.Name != nil {
			team.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			team.Description = strings.TrimSpace(*patch.Description)
		}
		if team.Name == "" {
			return &ValidationError{Problems: []string{"Name is required"}}
		}

		var err error
		updated, err = repo.Update(ctx, team)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the team permanently. Only the owner may do so.
func (s *TeamService) Delete(ctx context.Context, caller *models.User, teamID string) error {
	err := s.write(ctx, teamID, func(ctx context.Context, repo teams.Repository, team *models.Team) error {
		if !team.IsOwner(caller.ID) {
			return common.ErrForbidden
		}
		return repo.Delete(ctx, team.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "team deleted", "team_id", teamID, "owner_id", caller.ID)
	return nil
}

// AddMember appends the user registered under email to the members.
func (s *TeamService) AddMember(ctx context.Context, caller *models.User, teamID, email string) (*models.Team, error) {
	user, err := s.lookupEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrUserNotFound
	}

	team, err := s.mutateRoster(ctx, caller, teamID, func(team *models.Team) error {
		if team.IsMember(user.ID) {
			return common.ErrAlreadyMember
		}
		team.Members = append(team.Members, user.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "member added", "team_id", teamID, "user_id", user.ID, "by", caller.ID)
	return team, nil
}

// RemoveMember drops one occurrence of the user from the members. An email
// nobody registered is a no-op reported with removed=false and a nil team.
// The owner cannot be removed. Admin rights are left as they are.
func (s *TeamService) RemoveMember(ctx context.Context, caller *models.User, teamID, email string) (team *models.Team, removed bool, err error) {
	user, err := s.lookupEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		// the team must still exist and be writable by caller
		if _, err := s.RequireAdmin(ctx, caller, teamID); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	team, err = s.mutateRoster(ctx, caller, teamID, func(team *models.Team) error {
		if team.IsOwner(user.ID) {
			return common.ErrOwnerRemoval
		}
		i := slices.Index(team.Members, user.ID)
		if i < 0 {
			return common.ErrNotAMember
		}
		team.Members = slices.Delete(team.Members, i, i+1)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info(ctx, "member removed", "team_id", teamID, "user_id", user.ID, "by", caller.ID)
	return team, true, nil
}

// lookupEmail returns nil without error when no user has that email.
func (s *TeamService) lookupEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users().GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// mutateRoster applies mutate to a fresh copy of the team, stores the new
// roster and returns the team as read back after the write.
func (s *TeamService) mutateRoster(ctx context.Context, caller *models.User, teamID string, mutate func(*models.Team) error) (*models.Team, error) {
	err := s.write(ctx, teamID, func(ctx context.Context, repo teams.Repository, team *models.Team) error {
		if !team.IsAdmin(caller.ID) {
			return common.ErrForbidden
		}
		if err := mutate(team); err != nil {
			return err
		}
		_, err := repo.ReplaceRoster(ctx, team)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.repomanager.Teams().GetByID(ctx, teamID)
}

// write runs fn on the current state of the team while holding the team
// lock, inside a transaction. ErrVersionConflict from fn is retried against
// a freshly loaded team until the backoff gives up.
func (s *TeamService) write(ctx context.Context, teamID string, fn func(ctx context.Context, repo teams.Repository, team *models.Team) error) error {
	if !validTeamID(teamID) {
		return common.ErrorNotFound
	}

	unlock, err := s.locker.Lock(ctx, teamID)
	if err != nil {
		return fmt.Errorf("lock team: %w", err)
	}
	defer unlock()

	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		err := s.repomanager.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
			repo := tx.Teams()
			team, err := repo.GetByID(ctx, teamID)
			if err != nil {
				return err
			}
			return fn(ctx, repo, team)
		})
		if errors.Is(err, common.ErrVersionConflict) {
			s.log.Debug(ctx, "team version conflict, retrying", "team_id", teamID)
			return retry.RetryableError(err)
		}
		return err
	})
}
