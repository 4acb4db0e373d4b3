package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
	"github.com/dmitrijs2005/teamkeeper/internal/server/services"
)

const (
	sessionKey      = "teamkeeper.session"
	sessionErrorKey = "teamkeeper.session_error"
)

// bearerToken extracts the token from "Authorization: Bearer <t>".
// A header in any other shape is returned as malformed.
func bearerToken(header string) (token string, malformed bool) {
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", true
	}
	token = strings.TrimSpace(token)
	return token, token == ""
}

// sessionMiddleware resolves the caller for every request and stores the
// Session in the gin context. It never rejects a request by itself: a
// resolution failure is kept aside for requireAuth and the request carries
// on as anonymous.
func (s *HTTPServer) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, malformed := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if malformed {
			c.Set(sessionKey, services.Session{Kind: services.SessionInvalid})
			c.Next()
			return
		}

		sess, err := s.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			s.logger.Warn(c.Request.Context(), "session resolution failed", "error", err)
			c.Set(sessionErrorKey, err)
			sess = services.Session{Kind: services.SessionAnonymous}
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func session(c *gin.Context) services.Session {
	v, found := c.Get(sessionKey)
	if !found {
		return services.Session{Kind: services.SessionAnonymous}
	}
	sess, _ := v.(services.Session)
	return sess
}

func currentUser(c *gin.Context) *models.User {
	return session(c).User
}

func (s *HTTPServer) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, found := c.Get(sessionErrorKey); found {
			if err, isErr := v.(error); isErr {
				s.respondError(c, err, nil)
				return
			}
		}

		switch sess := session(c); {
		case sess.Authenticated():
			c.Next()
		case sess.Kind == services.SessionInvalid:
			fail(c, http.StatusUnauthorized, "Token is not valid")
		default:
			fail(c, http.StatusUnauthorized, "No token, authorization denied")
		}
	}
}

// requireTeamAdmin lets the request through only for the owner or an admin
// of the team named by :id.
func (s *HTTPServer) requireTeamAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := s.teams.RequireAdmin(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
			s.respondError(c, err, overrides{common.ErrForbidden: "Not authorized to manage members of this team"})
			return
		}
		c.Next()
	}
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
