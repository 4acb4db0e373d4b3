package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/teamkeeper/internal/client/client"
	"github.com/dmitrijs2005/teamkeeper/internal/client/models"
	"github.com/dmitrijs2005/teamkeeper/internal/logging"
)

type fakeTeamsAPI struct {
	teams map[string]*models.Team
	err   error
}

func newFakeTeamsAPI(teams ...*models.Team) *fakeTeamsAPI {
	f := &fakeTeamsAPI{teams: map[string]*models.Team{}}
	for _, t := range teams {
		f.teams[t.ID] = t
	}
	return f
}

func (f *fakeTeamsAPI) CreateTeam(_ context.Context, name, description string) (*models.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	t := &models.Team{ID: "t-" + name, Name: name, Description: description}
	f.teams[t.ID] = t
	return t, nil
}

func (f *fakeTeamsAPI) ListTeams(context.Context, bool) ([]*models.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Team
	for _, t := range f.teams {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTeamsAPI) GetTeam(_ context.Context, id string) (*models.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.teams[id], nil
}

func (f *fakeTeamsAPI) UpdateTeam(_ context.Context, id string, name, _ *string) (*models.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *f.teams[id]
	if name != nil {
		c.Name = *name
	}
	f.teams[id] = &c
	return &c, nil
}

func (f *fakeTeamsAPI) DeleteTeam(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.teams, id)
	return nil
}

func (f *fakeTeamsAPI) AddMember(_ context.Context, id, email string) (*models.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *f.teams[id]
	c.Members = append(append([]string(nil), c.Members...), email)
	f.teams[id] = &c
	return &c, nil
}

func (f *fakeTeamsAPI) RemoveMember(_ context.Context, id, email string) (*models.Team, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if email == "ghost@example.com" {
		return nil, "User with this email does not exist", nil
	}
	return f.teams[id], "Member successfully removed!", nil
}

func TestTeamsService_FetchAndMutate(t *testing.T) {
	ctx := context.Background()
	api := newFakeTeamsAPI(&models.Team{ID: "t1", Name: "core"})
	s := NewTeamsService(api, logging.Discard())

	list, err := s.Fetch(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, s.State().Teams, 1)

	created, err := s.Create(ctx, "platform", "")
	require.NoError(t, err)
	assert.Len(t, s.State().Teams, 2)

	name := "renamed"
	_, err = s.Update(ctx, "t1", &name, nil)
	require.NoError(t, err)

	team, err := s.AddMember(ctx, "t1", "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com"}, team.Members)

	var cached *models.Team
	for _, tm := range s.State().Teams {
		if tm.ID == "t1" {
			cached = tm
		}
	}
	require.NotNil(t, cached)
	assert.Equal(t, "renamed", cached.Name)
	assert.Equal(t, []string{"bob@example.com"}, cached.Members)

	removed, notice, err := s.RemoveMember(ctx, "t1", "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, removed)
	assert.Equal(t, "User with this email does not exist", notice)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.Len(t, s.State().Teams, 1)
	assert.False(t, s.State().Loading)
}

func TestTeamsService_ErrorKeepsList(t *testing.T) {
	ctx := context.Background()
	api := newFakeTeamsAPI(&models.Team{ID: "t1", Name: "core"})
	s := NewTeamsService(api, logging.Discard())

	_, err := s.Fetch(ctx, false)
	require.NoError(t, err)

	api.err = &client.APIError{Status: http.StatusForbidden, Errors: []string{"Not authorized to delete this team"}}
	err = s.Delete(ctx, "t1")
	require.Error(t, err)

	st := s.State()
	assert.Equal(t, "Not authorized to delete this team", st.Error)
	assert.Len(t, st.Teams, 1)
	assert.False(t, st.Loading)

	api.err = nil
	_, err = s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, s.State().Error)
}
