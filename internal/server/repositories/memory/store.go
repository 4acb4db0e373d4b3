// Package memory implements the user and team repositories on top of plain
// maps. It backs the server when no database DSN is configured and is what
// the service and transport tests run against.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
)

// Store is the shared state behind Users and Teams. All access goes through
// mu; records are copied in and out so callers never alias stored slices.
type Store struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
	teams   map[string]*models.Team

	txMu sync.Mutex
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
		teams:   make(map[string]*models.Team),
		now:     time.Now,
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Teams() *TeamRepository {
	return &TeamRepository{s: s}
}

// Serialize runs fn while holding the store-wide transaction lock, so
// multi-step sequences do not interleave with each other. There is no
// rollback: a failing step leaves earlier steps applied.
func (s *Store) Serialize(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
