package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/logging"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/repomanager"
)

type SessionKind int

const (
	SessionAnonymous SessionKind = iota
	SessionAuthenticated
	SessionInvalid
)

func (k SessionKind) String() string {
	switch k {
	case SessionAuthenticated:
		return "authenticated"
	case SessionInvalid:
		return "invalid"
	default:
		return "anonymous"
	}
}

// Session is the per-request view of who is calling. User is set only for
// SessionAuthenticated.
type Session struct {
	Kind SessionKind
	User *models.User
}

func (s Session) Authenticated() bool {
	return s.Kind == SessionAuthenticated && s.User != nil
}

type TokenValidator interface {
	Validate(token string) (string, error)
}

// SessionResolver turns a bearer token into a Session. It holds no
// per-request state and caches nothing.
type SessionResolver struct {
	tokens      TokenValidator
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewSessionResolver(tokens TokenValidator, rm repomanager.RepositoryManager, log logging.Logger) *SessionResolver {
	return &SessionResolver{tokens: tokens, repomanager: rm, log: log.With("module", "session")}
}

// Resolve maps token to a Session. An empty token is anonymous. A token
// that fails validation, or names a user that no longer exists, is invalid.
// Only unexpected storage failures are returned as errors.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{Kind: SessionAnonymous}, nil
	}

	userID, err := r.tokens.Validate(token)
	if err != nil {
		r.log.Debug(ctx, "token rejected", "error", err)
		return Session{Kind: SessionInvalid}, nil
	}

	user, err := r.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			r.log.Debug(ctx, "token for missing user", "user_id", userID)
			return Session{Kind: SessionInvalid}, nil
		}
		return Session{}, fmt.Errorf("resolve session: %w", err)
	}

	return Session{Kind: SessionAuthenticated, User: user}, nil
}
