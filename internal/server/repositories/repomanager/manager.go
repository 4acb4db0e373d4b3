// Package repomanager vends repository implementations for a storage backend
// and runs work that must see a consistent view of it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/teams"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Teams() teams.Repository

	// InTx runs fn against a manager whose repositories share one
	// transaction. Calling InTx on that manager again reuses it.
	InTx(ctx context.Context, fn func(ctx context.Context, tx RepositoryManager) error) error
}
