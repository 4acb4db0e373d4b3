package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
	"github.com/dmitrijs2005/teamkeeper/internal/server/services"
)

type createTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type updateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type memberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

var memberMessages = fieldMessages{"Email": "Please include a valid email"}

func (s *HTTPServer) createTeam(c *gin.Context) {
	var req createTeamRequest
	if !bind(c, &req, nil) {
		return
	}

	team, err := s.teams.Create(c.Request.Context(), currentUser(c), req.Name, req.Description)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	ok(c, http.StatusCreated, team, "Team successfully created!")
}

func (s *HTTPServer) fetchTeams(c *gin.Context) {
	var (
		list []*models.Team
		err  error
	)

	switch c.Query("scope") {
	case "", "owner":
		list, err = s.teams.FetchAll(c.Request.Context(), currentUser(c))
	case "member":
		list, err = s.teams.FetchMemberships(c.Request.Context(), currentUser(c))
	default:
		fail(c, http.StatusBadRequest, "Unknown scope")
		return
	}
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	if list == nil {
		list = []*models.Team{}
	}
	ok(c, http.StatusOK, list, "Teams successfully fetched")
}

func (s *HTTPServer) fetchTeam(c *gin.Context) {
	team, err := s.teams.FetchOne(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	ok(c, http.StatusOK, team, "Team successfully fetched")
}

func (s *HTTPServer) updateTeam(c *gin.Context) {
	var req updateTeamRequest
	if !bind(c, &req, nil) {
		return
	}

	patch := services.TeamPatch{Name: req.Name, Description: req.Description}
	team, err := s.teams.Update(c.Request.Context(), currentUser(c), c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err, overrides{common.ErrForbidden: "Not authorized to update this team"})
		return
	}

	ok(c, http.StatusOK, team, "Team updated!")
}

func (s *HTTPServer) deleteTeam(c *gin.Context) {
	err := s.teams.Delete(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err, overrides{common.ErrForbidden: "Not authorized to delete this team"})
		return
	}

	ok(c, http.StatusOK, nil, "Team successfully deleted!")
}

func (s *HTTPServer) addMember(c *gin.Context) {
	var req memberRequest
	if !bind(c, &req, memberMessages) {
		return
	}

	team, err := s.teams.AddMember(c.Request.Context(), currentUser(c), c.Param("id"), req.Email)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	ok(c, http.StatusOK, team, "Member successfully added!")
}

func (s *HTTPServer) removeMember(c *gin.Context) {
	var req memberRequest
	if !bind(c, &req, memberMessages) {
		return
	}

	team, removed, err := s.teams.RemoveMember(c.Request.Context(), currentUser(c), c.Param("id"), req.Email)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	if !removed {
		ok(c, http.StatusOK, nil, "User with this email does not exist")
		return
	}
	ok(c, http.StatusOK, team, "Member successfully removed!")
}
