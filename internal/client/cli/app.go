package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/teamkeeper/internal/client/client"
	"github.com/dmitrijs2005/teamkeeper/internal/client/config"
	"github.com/dmitrijs2005/teamkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/teamkeeper/internal/client/services"
	"github.com/dmitrijs2005/teamkeeper/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = "unknown"
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger
	auth   *services.AuthWorkflow
	teams  *services.TeamsService
	health pinger
	reader *bufio.Reader
	out    io.Writer

	closers []func() error

	mu   sync.RWMutex
	mode Mode
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.New(os.Stderr, logging.FormatText, c.LogLevel)

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	hc, err := client.NewHealthChecker(c.HealthEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("health client: %w", err)
	}

	hcl := client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout)
	app := newApp(c, logger, hcl, metadata.NewTokenStore(metadata.NewSQLiteRepository(db)), hc,
		bufio.NewReader(os.Stdin), os.Stdout)
	app.closers = append(app.closers, hc.Close, db.Close)
	return app, nil
}

// api is what the CLI needs from the HTTP client.
type api interface {
	services.AuthAPI
	services.TeamsAPI
}

func newApp(c *config.Config, logger logging.Logger, a api, tokens services.TokenStore, health pinger, reader *bufio.Reader, out io.Writer) *App {
	app := &App{
		config: c,
		logger: logger,
		auth:   services.NewAuthWorkflow(a, tokens, logger),
		teams:  services.NewTeamsService(a, logger),
		health: health,
		reader: reader,
		out:    &syncWriter{w: out},
		mode:   ModeUnknown,
	}
	app.auth.Subscribe(app.onAuthEvent)
	return app
}

// syncWriter lets the REPL and the status watcher share one output.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// onAuthEvent prints the outcome of every auth transition.
func (a *App) onAuthEvent(ev services.Event, _ services.AuthState) {
	switch ev.Kind {
	case services.EventRegistered:
		a.println(fmt.Sprintf("Welcome, %s! Your account has been created.", ev.User.Name))
	case services.EventLoggedIn:
		a.println(fmt.Sprintf("Logged in as %s", ev.User.Email))
	case services.EventAuthenticatedFromToken:
		a.println(fmt.Sprintf("Welcome back, %s", ev.User.Name))
	case services.EventLoggedOut:
		a.println("Logged out")
	case services.EventAccountDeleted:
		a.println("Account successfully deleted!")
	case services.EventAuthError:
		a.println("Error:", ev.Message)
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
		a.println(fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) isLoggedIn() bool {
	return a.auth.State().Authenticated()
}

func (a *App) getStatus() string {
	st := a.auth.State()
	if st.Authenticated() {
		return fmt.Sprintf("%s, %s", st.User.Email, a.Mode())
	}
	return fmt.Sprintf("guest, %s", a.Mode())
}

// checkOnline runs one health probe and updates the mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.health.Ping(ctx); err != nil {
		a.logger.Debug(ctx, "health probe failed", "error", err)
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Run restores the previous session and serves the REPL until exit.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.auth.LoadUser(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}
