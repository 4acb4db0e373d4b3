package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/teamkeeper/internal/client/models"
	"github.com/dmitrijs2005/teamkeeper/internal/common"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Msg     string          `json:"msg"`
}

// HTTPClient is safe for concurrent use. The bearer token is attached to
// every request once set.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends body as JSON and decodes the envelope's data into out, if given.
// It returns the envelope's msg.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (string, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= http.StatusBadRequest || (decodeErr == nil && !env.Success) {
		return "", &APIError{Status: resp.StatusCode, Errors: env.Errors, Msg: env.Msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode data: %w", err)
		}
	}
	return env.Msg, nil
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (string, error) {
	var token string
	_, err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, &token)
	return token, err
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	var token string
	_, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &token)
	return token, err
}

// CurrentUser returns nil without error when the server sees no session.
func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var u *models.User
	if _, err := c.do(ctx, http.MethodGet, "/auth/current-user", nil, &u); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, password string) error {
	_, err := c.do(ctx, http.MethodDelete, "/auth/delete", map[string]string{"password": password}, nil)
	return err
}

func (c *HTTPClient) CreateTeam(ctx context.Context, name, description string) (*models.Team, error) {
	var t models.Team
	if _, err := c.do(ctx, http.MethodPost, "/teams", map[string]string{
		"name": name, "description": description,
	}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTeams lists owned teams, or every team the caller is on when
// memberships is true.
func (c *HTTPClient) ListTeams(ctx context.Context, memberships bool) ([]*models.Team, error) {
	path := "/teams"
	if memberships {
		path += "?scope=member"
	}

	var list []*models.Team
	if _, err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var t models.Team
	if _, err := c.do(ctx, http.MethodGet, "/teams/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTeam sends only the non-nil fields.
func (c *HTTPClient) UpdateTeam(ctx context.Context, id string, name, description *string) (*models.Team, error) {
	patch := map[string]string{}
	if name != nil {
		patch["name"] = *name
	}
	if description != nil {
		patch["description"] = *description
	}

	var t models.Team
	if _, err := c.do(ctx, http.MethodPatch, "/teams/"+url.PathEscape(id), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) DeleteTeam(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/teams/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *HTTPClient) AddMember(ctx context.Context, id, email string) (*models.Team, error) {
	var t models.Team
	if _, err := c.do(ctx, http.MethodPost, "/teams/"+url.PathEscape(id)+"/members", map[string]string{"email": email}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// RemoveMember returns a nil team together with the server's notice when
// nothing was removed.
func (c *HTTPClient) RemoveMember(ctx context.Context, id, email string) (*models.Team, string, error) {
	var t *models.Team
	msg, err := c.do(ctx, http.MethodDelete, "/teams/"+url.PathEscape(id)+"/members", map[string]string{"email": email}, &t)
	if err != nil {
		return nil, "", err
	}
	return t, msg, nil
}
