package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/server/services"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Msg     string   `json:"msg,omitempty"`
}

func ok(c *gin.Context, status int, data any, msg string) {
	c.JSON(status, Envelope{Success: true, Data: data, Msg: msg})
}

func fail(c *gin.Context, status int, errs ...string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Errors: errs})
}

type errorInfo struct {
	status int
	msg    string
}

// errorTable maps sentinels to the status and default message sent back.
// Order matters where one error could match more than one entry.
var errorTable = []struct {
	err  error
	info errorInfo
}{
	{common.ErrDuplicateEmail, errorInfo{http.StatusConflict, "User already exists"}},
	{common.ErrDuplicateTeam, errorInfo{http.StatusConflict, "You already have a team with this name"}},
	{common.ErrInvalidCredentials, errorInfo{http.StatusUnauthorized, "Invalid credentials"}},
	{common.ErrInvalidToken, errorInfo{http.StatusUnauthorized, "Token is not valid"}},
	{common.ErrorUnauthorized, errorInfo{http.StatusUnauthorized, "Not authorized"}},
	{common.ErrOwnerRemoval, errorInfo{http.StatusForbidden, "The team owner cannot be removed"}},
	{common.ErrForbidden, errorInfo{http.StatusForbidden, "Not authorized to manage this team"}},
	{common.ErrUserNotFound, errorInfo{http.StatusNotFound, "User with this email does not exist"}},
	{common.ErrNotAMember, errorInfo{http.StatusNotFound, "User not present in the team"}},
	{common.ErrorNotFound, errorInfo{http.StatusNotFound, "Team not found"}},
	{common.ErrAlreadyMember, errorInfo{http.StatusConflict, "User already in the team"}},
	{common.ErrVersionConflict, errorInfo{http.StatusConflict, "Team was changed by someone else, please retry"}},
}

// overrides replaces the default message for specific sentinels.
type overrides map[error]string

// respondError writes err as an envelope. Anything unmapped is logged and
// reported as a generic failure so storage details never leak.
func (s *HTTPServer) respondError(c *gin.Context, err error, msgs overrides) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		fail(c, http.StatusBadRequest, verr.Problems...)
		return
	}
	if errors.Is(err, common.ErrValidation) {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			msg := e.info.msg
			if m, found := msgs[e.err]; found {
				msg = m
			}
			fail(c, e.info.status, msg)
			return
		}
	}

	s.logger.Error(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	fail(c, http.StatusInternalServerError, common.GenericErrorMessage)
}

// fieldMessages replaces every binding failure on a field with one message.
type fieldMessages map[string]string

// bindErrors turns a gin binding failure into human readable messages.
func bindErrors(err error, msgs fieldMessages) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Invalid request"}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if m, found := msgs[fe.Field()]; found {
			out = append(out, m)
			continue
		}
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			out = append(out, "Please include a valid email")
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return out
}

// bind decodes the JSON body into req and answers 400 on failure.
func bind(c *gin.Context, req any, msgs fieldMessages) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, bindErrors(err, msgs)...)
		return false
	}
	return true
}
