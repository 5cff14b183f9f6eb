package service

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when a collection's capability flags disallow
// the requested operation.
var ErrForbidden = errors.New("operation not allowed for this collection")

// ErrAlreadyRunning is returned when an import job is started while a
// previous run of it is still in flight.
var ErrAlreadyRunning = errors.New("already running")

// ValidationError lists every problem found in an input.
type ValidationError struct {
	Problems []string `json:"problems"`
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// validationErr returns nil when there are no problems.
func validationErr(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
