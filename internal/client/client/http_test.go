package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/teamkeeper/internal/logging"
	"github.com/dmitrijs2005/teamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/teamkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/teamkeeper/internal/server/locks"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/teamkeeper/internal/server/services"
)

// startServer runs the real HTTP API over the in-memory store.
func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.Discard()
	rm := repomanager.NewMemoryRepositoryManager()
	tokens := auth.NewTokenService([]byte("test-secret"), "teamkeeper-test", time.Hour)
	api := httpapi.NewHTTPServer(":0", log,
		services.NewUserService(rm, tokens, auth.NewHasher(bcrypt.MinCost), log),
		services.NewTeamService(rm, locks.NewKeyedMutex(), log),
		services.NewSessionResolver(tokens, rm, log),
		nil,
	)

	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv.URL + "/api/v1"
}

func TestHTTPClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	base := startServer(t)

	alice := NewHTTPClient(base, 5*time.Second)
	bob := NewHTTPClient(base, 5*time.Second)

	u, err := alice.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	tok, err := alice.Register(ctx, "Alice", "alice@example.com", "password")
	require.NoError(t, err)
	alice.SetToken(tok)

	tok, err = bob.Register(ctx, "Bob", "bob@example.com", "password")
	require.NoError(t, err)
	bob.SetToken(tok)

	me, err := alice.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, "alice@example.com", me.Email)

	team, err := alice.CreateTeam(ctx, "core", "the core team")
	require.NoError(t, err)
	assert.Equal(t, me.ID, team.OwnerID)

	team, err = alice.AddMember(ctx, team.ID, "bob@example.com")
	require.NoError(t, err)
	assert.Len(t, team.Members, 2)

	mine, err := bob.ListTeams(ctx, true)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	owned, err := bob.ListTeams(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, owned)

	name := "platform"
	team, err = alice.UpdateTeam(ctx, team.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "platform", team.Name)
	assert.Equal(t, "the core team", team.Description)

	_, err = bob.UpdateTeam(ctx, team.ID, &name, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, []string{"Not authorized to update this team"}, apiErr.Errors)

	removed, msg, err := alice.RemoveMember(ctx, team.ID, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, removed)
	assert.Equal(t, "User with this email does not exist", msg)

	removed, msg, err = alice.RemoveMember(ctx, team.ID, "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "Member successfully removed!", msg)
	assert.Len(t, removed.Members, 1)

	got, err := alice.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, team.ID, got.ID)

	require.NoError(t, alice.DeleteTeam(ctx, team.ID))

	require.NoError(t, bob.DeleteAccount(ctx, "password"))
	_, err = bob.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPClient_LoginFailure(t *testing.T) {
	c := NewHTTPClient(startServer(t), 5*time.Second)

	_, err := c.Login(context.Background(), "nobody@example.com", "password")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	msg, found := apiErr.FirstError()
	assert.True(t, found)
	assert.Equal(t, "Invalid credentials", msg)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPClient_SendsBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", time.Second)
	c.SetToken("abc")
	_, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func TestHTTPClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).CurrentUser(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	_, found := apiErr.FirstError()
	assert.False(t, found)
}

func TestHTTPClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url, time.Second).CurrentUser(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "api error 500", (&APIError{Status: 500}).Error())
	assert.Equal(t, "api error 400: a; b", (&APIError{Status: 400, Errors: []string{"a", "b"}}).Error())
	assert.False(t, errors.Is(&APIError{Status: 403}, ErrUnauthorized))
}
