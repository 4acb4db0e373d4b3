// Package services holds the client-side workflows driven by the CLI.
// This file defines the authentication workflow: a small state machine
// over register, login, token restore, logout and account deletion that
// notifies observers on every completed transition.
package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/teamkeeper/internal/client/client"
	"github.com/dmitrijs2005/teamkeeper/internal/client/models"
	"github.com/dmitrijs2005/teamkeeper/internal/common"
	"github.com/dmitrijs2005/teamkeeper/internal/logging"
)

type Status int

const (
	StatusIdle Status = iota
	StatusAuthenticated
	StatusAnonymous
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// AuthState is a snapshot of the workflow. User is set only when
// Status is StatusAuthenticated; Error only when it is StatusError.
type AuthState struct {
	Status  Status
	Loading bool
	User    *models.User
	Error   string
}

func (s AuthState) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

type EventKind string

const (
	EventRegistered             EventKind = "registered"
	EventLoggedIn               EventKind = "logged-in"
	EventLoggedOut              EventKind = "logged-out"
	EventAuthenticatedFromToken EventKind = "authenticated-from-token"
	EventAccountDeleted         EventKind = "account-deleted"
	EventAuthError              EventKind = "auth-error"
)

type Event struct {
	Kind    EventKind
	Message string
	User    *models.User
}

// Observer is called synchronously after the state has been updated. It
// must not call back into the workflow.
type Observer func(Event, AuthState)

type AuthAPI interface {
	SetToken(token string)
	Register(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	DeleteAccount(ctx context.Context, password string) error
}

type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error
}

// AuthWorkflow serializes overlapping calls, so callers can share one
// instance between the REPL and background loops.
type AuthWorkflow struct {
	api    AuthAPI
	tokens TokenStore
	log    logging.Logger

	callMu sync.Mutex

	mu        sync.RWMutex
	state     AuthState
	observers []Observer
}

func NewAuthWorkflow(api AuthAPI, tokens TokenStore, log logging.Logger) *AuthWorkflow {
	return &AuthWorkflow{api: api, tokens: tokens, log: log.With("module", "auth_workflow")}
}

func (w *AuthWorkflow) Subscribe(o Observer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, o)
}

func (w *AuthWorkflow) State() AuthState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// ErrorMessage picks the text shown to the user for a failed call: the
// first structured error from the server, or a generic message.
func ErrorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if msg, found := apiErr.FirstError(); found {
			return msg
		}
	}
	return common.GenericErrorMessage
}

// run wraps one transition. Loading is raised first and lowered on every
// exit path, panics included.
func (w *AuthWorkflow) run(fn func() (Event, AuthState)) {
	w.callMu.Lock()
	defer w.callMu.Unlock()

	w.mu.Lock()
	w.state.Loading = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.state.Loading = false
		w.mu.Unlock()
	}()

	ev, next := fn()

	w.mu.Lock()
	w.state = next
	w.state.Loading = false
	observers := append([]Observer(nil), w.observers...)
	snapshot := w.state
	w.mu.Unlock()

	if ev.Kind == "" {
		return
	}
	for _, o := range observers {
		o(ev, snapshot)
	}
}

func (w *AuthWorkflow) failed(ctx context.Context, err error) (Event, AuthState) {
	msg := ErrorMessage(err)
	w.log.Debug(ctx, "auth call failed", "error", err)
	return Event{Kind: EventAuthError, Message: msg}, AuthState{Status: StatusError, Error: msg}
}

// authenticate stores token, resolves the user behind it and reports kind.
// A token that does not resolve is dropped again, so a failed call never
// leaves a credential behind.
func (w *AuthWorkflow) authenticate(ctx context.Context, token string, kind EventKind) (Event, AuthState) {
	if err := w.tokens.SaveToken(ctx, token); err != nil {
		return w.failed(ctx, err)
	}
	w.api.SetToken(token)

	user, err := w.api.CurrentUser(ctx)
	if err == nil && user == nil {
		err = errors.New("no user behind a fresh token")
	}
	if err != nil {
		w.forget(ctx)
		return w.failed(ctx, err)
	}
	return Event{Kind: kind, User: user}, AuthState{Status: StatusAuthenticated, User: user}
}

func (w *AuthWorkflow) Register(ctx context.Context, name, email, password string) AuthState {
	w.run(func() (Event, AuthState) {
		token, err := w.api.Register(ctx, name, email, password)
		if err != nil {
			return w.failed(ctx, err)
		}
		return w.authenticate(ctx, token, EventRegistered)
	})
	return w.State()
}

func (w *AuthWorkflow) Login(ctx context.Context, email, password string) AuthState {
	w.run(func() (Event, AuthState) {
		token, err := w.api.Login(ctx, email, password)
		if err != nil {
			return w.failed(ctx, err)
		}
		return w.authenticate(ctx, token, EventLoggedIn)
	})
	return w.State()
}

// LoadUser restores the session from the stored token. Every outcome other
// than a resolved user ends anonymous without an error event.
func (w *AuthWorkflow) LoadUser(ctx context.Context) AuthState {
	w.run(func() (Event, AuthState) {
		anonymous := AuthState{Status: StatusAnonymous}

		token, err := w.tokens.Token(ctx)
		if err != nil || token == "" {
			return Event{}, anonymous
		}
		w.api.SetToken(token)

		user, err := w.api.CurrentUser(ctx)
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				w.forget(ctx)
			}
			w.log.Debug(ctx, "stored token not usable", "error", err)
			return Event{}, anonymous
		}
		if user == nil {
			return Event{}, anonymous
		}
		return Event{Kind: EventAuthenticatedFromToken, User: user}, AuthState{Status: StatusAuthenticated, User: user}
	})
	return w.State()
}

// Logout only discards the local token; the server keeps no session.
func (w *AuthWorkflow) Logout(ctx context.Context) AuthState {
	w.run(func() (Event, AuthState) {
		w.forget(ctx)
		return Event{Kind: EventLoggedOut}, AuthState{Status: StatusAnonymous}
	})
	return w.State()
}

func (w *AuthWorkflow) DeleteAccount(ctx context.Context, password string) AuthState {
	w.run(func() (Event, AuthState) {
		if err := w.api.DeleteAccount(ctx, password); err != nil {
			return w.failed(ctx, err)
		}
		w.forget(ctx)
		return Event{Kind: EventAccountDeleted}, AuthState{Status: StatusAnonymous}
	})
	return w.State()
}

func (w *AuthWorkflow) forget(ctx context.Context) {
	if err := w.tokens.DeleteToken(ctx); err != nil {
		w.log.Warn(ctx, "failed to delete stored token", "error", err)
	}
	w.api.SetToken("")
}
