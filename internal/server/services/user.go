// Package services contains server-side business logic: session
// resolution, account lifecycle and team authorization.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/logging"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/repomanager"
)

const minPasswordLength = 6

var validate = validator.New()

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
	CompareDummy(password string)
}

// UserService registers users, logs them in and deletes accounts.
type UserService struct {
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	hasher      PasswordHasher
	log         logging.Logger
}

func NewUserService(rm repomanager.RepositoryManager, tokens TokenIssuer, hasher PasswordHasher, log logging.Logger) *UserService {
	return &UserService{
		repomanager: rm,
		tokens:      tokens,
		hasher:      hasher,
		log:         log.With("module", "users"),
	}
}

// Register creates an account and returns a token for it.
func (s *UserService) Register(ctx context.Context, email, password, name string) (string, *models.User, error) {
	email = common.NormalizeEmail(email)
	name = strings.TrimSpace(name)

	var problems []string
	if name == "" {
		problems = append(problems, "Name is required")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		problems = append(problems, "Please include a valid email")
	}
	if len(password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("Please enter a password with %d or more characters", minPasswordLength))
	}
	if err := errIfAny(problems); err != nil {
		return "", nil, err
	}

	users := s.repomanager.Users()

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return "", nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", nil, err
	}

	// the unique index still guards against a concurrent registration
	user, err := users.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return token, user, nil
}

// Login returns a fresh token. An unknown email and a wrong password both
// yield common.ErrInvalidCredentials after a full bcrypt comparison.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return "", nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// DeleteAccount re-checks the password, then removes the user. Teams the
// user owns are deleted and the user is dropped from every other roster.
func (s *UserService) DeleteAccount(ctx context.Context, user *models.User, password string) error {
	current, err := s.repomanager.Users().GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidCredentials
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Compare(current.PasswordHash, password) {
		return common.ErrInvalidCredentials
	}

	err = s.repomanager.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		if err := tx.Teams().DeleteByOwner(ctx, user.ID); err != nil {
			return err
		}
		if err := tx.Teams().RemoveUserEverywhere(ctx, user.ID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Info(ctx, "account deleted", "user_id", user.ID)
	return nil
}
