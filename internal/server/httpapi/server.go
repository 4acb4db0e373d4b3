// Package httpapi exposes the account and team operations over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/teamkeeper/internal/logging"
	"github.com/dmitrijs2005/teamkeeper/internal/server/models"
	"github.com/dmitrijs2005/teamkeeper/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, email, password, name string) (string, *models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	DeleteAccount(ctx context.Context, user *models.User, password string) error
}

type TeamService interface {
	Create(ctx context.Context, owner *models.User, name, description string) (*models.Team, error)
	FetchAll(ctx context.Context, caller *models.User) ([]*models.Team, error)
	FetchMemberships(ctx context.Context, caller *models.User) ([]*models.Team, error)
	FetchOne(ctx context.Context, caller *models.User, teamID string) (*models.Team, error)
	Update(ctx context.Context, caller *models.User, teamID string, patch services.TeamPatch) (*models.Team, error)
	Delete(ctx context.Context, caller *models.User, teamID string) error
	RequireAdmin(ctx context.Context, caller *models.User, teamID string) (*models.Team, error)
	AddMember(ctx context.Context, caller *models.User, teamID, email string) (*models.Team, error)
	RemoveMember(ctx context.Context, caller *models.User, teamID, email string) (*models.Team, bool, error)
}

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (services.Session, error)
}

type HTTPServer struct {
	address  string
	logger   logging.Logger
	users    UserService
	teams    TeamService
	sessions SessionResolver
	origins  []string
}

func NewHTTPServer(address string, l logging.Logger, us UserService, ts TeamService, sr SessionResolver, origins []string) *HTTPServer {
	return &HTTPServer{
		address:  address,
		logger:   l.With("module", "http_server"),
		users:    us,
		teams:    ts,
		sessions: sr,
		origins:  origins,
	}
}

// Router builds the gin engine with every route mounted under /api/v1.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	api := r.Group("/api/v1", s.sessionMiddleware())
	{
		api.GET("/health", s.health)

		auth := api.Group("/auth")
		{
			auth.POST("/register", s.register)
			auth.POST("/login", s.login)
			auth.GET("/current-user", s.currentUser)
			auth.DELETE("/delete", s.requireAuth(), s.deleteAccount)
		}

		teams := api.Group("/teams", s.requireAuth())
		{
			teams.POST("", s.createTeam)
			teams.GET("", s.fetchTeams)
			teams.GET("/:id", s.fetchTeam)
			teams.PUT("/:id", s.updateTeam)
			teams.PATCH("/:id", s.updateTeam)
			teams.DELETE("/:id", s.deleteTeam)
			teams.POST("/:id/members", s.requireTeamAdmin(), s.addMember)
			teams.DELETE("/:id/members", s.requireTeamAdmin(), s.removeMember)
		}
	}

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)}, "")
}
