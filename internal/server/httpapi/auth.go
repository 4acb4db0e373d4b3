package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/teamkeeper/internal/server/services"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

var registerMessages = fieldMessages{
	"Email":    "Please include a valid email",
	"Password": "Please enter a password with 6 or more characters",
}

var loginMessages = fieldMessages{
	"Email":    "Please include a valid email",
	"Password": "Password is required",
}

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req, registerMessages) {
		return
	}

	token, _, err := s.users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	ok(c, http.StatusCreated, token, "")
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req, loginMessages) {
		return
	}

	token, _, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	ok(c, http.StatusOK, token, "")
}

// currentUser answers with the user behind the bearer token. No token is a
// successful empty answer; a token that does not resolve is 401.
func (s *HTTPServer) currentUser(c *gin.Context) {
	sess := session(c)
	switch sess.Kind {
	case services.SessionAuthenticated:
		ok(c, http.StatusOK, sess.User, "")
	case services.SessionInvalid:
		fail(c, http.StatusUnauthorized, "Token is not valid")
	default:
		ok(c, http.StatusOK, nil, "")
	}
}

func (s *HTTPServer) deleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if !bind(c, &req, fieldMessages{"Password": "Password is required"}) {
		return
	}

	if err := s.users.DeleteAccount(c.Request.Context(), currentUser(c), req.Password); err != nil {
		s.respondError(c, err, nil)
		return
	}

	ok(c, http.StatusOK, nil, "Account successfully deleted!")
}
