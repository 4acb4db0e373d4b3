// Package server wires configuration, storage, locking and transports into
// a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/teamkeeper/internal/logging"
	"github.com/dmitrijs2005/teamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/teamkeeper/internal/server/config"
	"github.com/dmitrijs2005/teamkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/teamkeeper/internal/server/locks"
	"github.com/dmitrijs2005/teamkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/teamkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/teamkeeper/internal/server/grpc"
)

const (
	lockTTL  = 10 * time.Second
	lockPoll = 25 * time.Millisecond
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	rm       repomanager.RepositoryManager
	locker   locks.Locker
	users    *services.UserService
	teams    *services.TeamService
	sessions *services.SessionResolver
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, logging.FormatJSON, c.LogLevel)
	app := &App{config: c, logger: logger}

	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory storage")
		app.rm = repomanager.NewMemoryRepositoryManager()
	} else {
		db, err := sqlOpen("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		app.db = db
		app.rm = repomanager.NewPostgresRepositoryManager(db)
	}

	if err := app.rm.RunMigrations(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	if c.RedisAddr == "" {
		app.locker = locks.NewKeyedMutex()
	} else {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		app.locker = locks.NewRedisLocker(app.redis, lockTTL, lockPoll)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.TokenIssuer, c.AccessTokenValidityDuration)

	app.users = services.NewUserService(app.rm, tokens, auth.NewHasher(bcrypt.DefaultCost), logger)
	app.teams = services.NewTeamService(app.rm, app.locker, logger)
	app.sessions = services.NewSessionResolver(tokens, app.rm, logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// probe backs the gRPC health status with the storage dependencies.
func (app *App) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var errs []error
	if app.db != nil {
		if err := app.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run serves HTTP and gRPC until a signal arrives or either server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	httpSrv := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.users, app.teams, app.sessions, app.config.AllowedOrigins)
	grpcSrv := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.probe, 10*time.Second)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })
	g.Go(func() error { return grpcSrv.Run(ctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) Close() {
	if app.db != nil {
		_ = app.db.Close()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
}
