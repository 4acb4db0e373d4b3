package repomanager

import (
	"context"

	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/teams"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager serves repositories from a memory.Store. InTx
// serializes callers but cannot roll back.
type MemoryRepositoryManager struct {
	store *memory.Store
	inTx  bool
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.store.Users()
}

func (m *MemoryRepositoryManager) Teams() teams.Repository {
	return m.store.Teams()
}

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, tx RepositoryManager) error) error {
	if m.inTx {
		return fn(ctx, m)
	}
	return m.store.Serialize(ctx, func(ctx context.Context) error {
		return fn(ctx, &MemoryRepositoryManager{store: m.store, inTx: true})
	})
}
