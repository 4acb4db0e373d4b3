package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/logging"
	"github.com/dmitrijs2005/teamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/teamkeeper/internal/server/locks"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/teams"
)

type fixture struct {
	rm       repomanager.RepositoryManager
	tokens   *auth.TokenService
	users    *UserService
	teams    *TeamService
	sessions *SessionResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, repomanager.NewMemoryRepositoryManager())
}

func newFixtureWith(t *testing.T, rm repomanager.RepositoryManager) *fixture {
	t.Helper()
	log := logging.Discard()
	tokens := auth.NewTokenService([]byte("test-secret"), "teamkeeper-test", time.Hour)

	teamSvc := NewTeamService(rm, locks.NewKeyedMutex(), log)
	teamSvc.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(5, retry.NewConstant(time.Millisecond))
	}

	return &fixture{
		rm:       rm,
		tokens:   tokens,
		users:    NewUserService(rm, tokens, auth.NewHasher(bcrypt.MinCost), log),
		teams:    teamSvc,
		sessions: NewSessionResolver(tokens, rm, log),
	}
}

func (f *fixture) register(t *testing.T, email, name string) *models.User {
	t.Helper()
	_, u, err := f.users.Register(context.Background(), email, "password", name)
	require.NoError(t, err)
	return u
}

func (f *fixture) createTeam(t *testing.T, owner *models.User, name string) *models.Team {
	t.Helper()
	team, err := f.teams.Create(context.Background(), owner, name, "")
	require.NoError(t, err)
	return team
}

// conflictingManager wraps a manager so that the first `conflicts` roster or
// team writes fail with a version conflict.
type conflictingManager struct {
	repomanager.RepositoryManager
	conflicts *atomic.Int32
	attempts  *atomic.Int32
}

func newConflictingManager(conflicts int32) *conflictingManager {
	c := &conflictingManager{
		RepositoryManager: repomanager.NewMemoryRepositoryManager(),
		conflicts:         &atomic.Int32{},
		attempts:          &atomic.Int32{},
	}
	c.conflicts.Store(conflicts)
	return c
}

func (c *conflictingManager) Teams() teams.Repository {
	return &conflictingTeams{Repository: c.RepositoryManager.Teams(), m: c}
}

func (c *conflictingManager) InTx(ctx context.Context, fn func(ctx context.Context, tx repomanager.RepositoryManager) error) error {
	return c.RepositoryManager.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		return fn(ctx, &conflictingManager{RepositoryManager: tx, conflicts: c.conflicts, attempts: c.attempts})
	})
}

type conflictingTeams struct {
	teams.Repository
	m *conflictingManager
}

func (c *conflictingTeams) conflict() bool {
	c.m.attempts.Add(1)
	return c.m.conflicts.Add(-1) >= 0
}

func (c *conflictingTeams) ReplaceRoster(ctx context.Context, team *models.Team) (*models.Team, error) {
	if c.conflict() {
		return nil, common.ErrVersionConflict
	}
	return c.Repository.ReplaceRoster(ctx, team)
}

func (c *conflictingTeams) Update(ctx context.Context, team *models.Team) (*models.Team, error) {
	if c.conflict() {
		return nil, common.ErrVersionConflict
	}
	return c.Repository.Update(ctx, team)
}
