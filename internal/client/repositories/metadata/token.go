package metadata

import "context"

const tokenKey = "token"

// TokenStore keeps the bearer token between CLI runs.
type TokenStore struct {
	repo Repository
}

func NewTokenStore(repo Repository) *TokenStore {
	return &TokenStore{repo: repo}
}

// Token returns the saved token or "" when there is none.
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, tokenKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *TokenStore) SaveToken(ctx context.Context, token string) error {
	return s.repo.Set(ctx, tokenKey, []byte(token))
}

func (s *TokenStore) DeleteToken(ctx context.Context) error {
	return s.repo.Delete(ctx, tokenKey)
}
