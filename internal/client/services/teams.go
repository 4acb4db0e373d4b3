package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/teamkeeper/internal/client/models"
	"github.com/dmitrijs2005/teamkeeper/internal/logging"
)

type TeamsAPI interface {
	CreateTeam(ctx context.Context, name, description string) (*models.Team, error)
	ListTeams(ctx context.Context, memberships bool) ([]*models.Team, error)
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	UpdateTeam(ctx context.Context, id string, name, description *string) (*models.Team, error)
	DeleteTeam(ctx context.Context, id string) error
	AddMember(ctx context.Context, id, email string) (*models.Team, error)
	RemoveMember(ctx context.Context, id, email string) (*models.Team, string, error)
}

// TeamsState is the last fetched list plus the outcome of the last call.
type TeamsState struct {
	Teams   []*models.Team
	Loading bool
	Error   string
}

// TeamsService keeps a cached list of the caller's teams. Calls are
// serialized; a failed call keeps the previous list and records the message.
type TeamsService struct {
	api TeamsAPI
	log logging.Logger

	callMu sync.Mutex
	mu     sync.RWMutex
	state  TeamsState
}

func NewTeamsService(api TeamsAPI, log logging.Logger) *TeamsService {
	return &TeamsService{api: api, log: log.With("module", "teams_service")}
}

func (s *TeamsService) State() TeamsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *TeamsService) call(ctx context.Context, fn func() error) error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state.Loading = false
		s.mu.Unlock()
	}()

	err := fn()
	if err != nil {
		s.log.Debug(ctx, "teams call failed", "error", err)
		s.mu.Lock()
		s.state.Error = ErrorMessage(err)
		s.mu.Unlock()
	}
	return err
}

// Fetch replaces the cached list with owned teams, or with every team the
// caller is on when memberships is true.
func (s *TeamsService) Fetch(ctx context.Context, memberships bool) ([]*models.Team, error) {
	var list []*models.Team
	err := s.call(ctx, func() error {
		var err error
		list, err = s.api.ListTeams(ctx, memberships)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.state.Teams = list
		s.mu.Unlock()
		return nil
	})
	return list, err
}

func (s *TeamsService) Create(ctx context.Context, name, description string) (*models.Team, error) {
	var team *models.Team
	err := s.call(ctx, func() error {
		var err error
		team, err = s.api.CreateTeam(ctx, name, description)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.state.Teams = append(s.state.Teams, team)
		s.mu.Unlock()
		return nil
	})
	return team, err
}

func (s *TeamsService) Get(ctx context.Context, id string) (*models.Team, error) {
	var team *models.Team
	err := s.call(ctx, func() error {
		var err error
		team, err = s.api.GetTeam(ctx, id)
		return err
	})
	return team, err
}

func (s *TeamsService) Update(ctx context.Context, id string, name, description *string) (*models.Team, error) {
	var team *models.Team
	err := s.call(ctx, func() error {
		var err error
		team, err = s.api.UpdateTeam(ctx, id, name, description)
		if err != nil {
			return err
		}
		s.replace(team)
		return nil
	})
	return team, err
}

func (s *TeamsService) Delete(ctx context.Context, id string) error {
	return s.call(ctx, func() error {
		if err := s.api.DeleteTeam(ctx, id); err != nil {
			return err
		}
		s.mu.Lock()
		kept := s.state.Teams[:0:0]
		for _, t := range s.state.Teams {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		s.state.Teams = kept
		s.mu.Unlock()
		return nil
	})
}

func (s *TeamsService) AddMember(ctx context.Context, id, email string) (*models.Team, error) {
	var team *models.Team
	err := s.call(ctx, func() error {
		var err error
		team, err = s.api.AddMember(ctx, id, email)
		if err != nil {
			return err
		}
		s.replace(team)
		return nil
	})
	return team, err
}

// RemoveMember returns the server's notice alongside the team. A nil team
// means nothing was removed.
func (s *TeamsService) RemoveMember(ctx context.Context, id, email string) (*models.Team, string, error) {
	var (
		team   *models.Team
		notice string
	)
	err := s.call(ctx, func() error {
		var err error
		team, notice, err = s.api.RemoveMember(ctx, id, email)
		if err != nil {
			return err
		}
		if team != nil {
			s.replace(team)
		}
		return nil
	})
	return team, notice, err
}

// replace swaps the cached copy of team, if any.
func (s *TeamsService) replace(team *models.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.state.Teams {
		if t.ID == team.ID {
			s.state.Teams[i] = team
			return
		}
	}
}
