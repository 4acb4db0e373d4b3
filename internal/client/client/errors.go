package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-success envelope returned by the server.
type APIError struct {
	Status int
	Errors []string
	Msg    string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("api error %d", e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// FirstError returns the first message the server sent, if any.
func (e *APIError) FirstError() (string, bool) {
	if len(e.Errors) == 0 {
		return "", false
	}
	return e.Errors[0], true
}
