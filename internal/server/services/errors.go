package services

import (
	"strings"

	"github.com/dmitrijs2005/teamkeeper/internal/common"
)

// ValidationError lists every problem found in a request. It matches
// common.ErrValidation with errors.Is.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation error: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidation
}

// errIfAny returns nil when there are no problems.
func errIfAny(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
