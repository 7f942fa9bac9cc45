package reporter

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExists is returned by Init when the default session was already created.
	ErrSessionExists = errors.New("reporting session already initialized: use reporter.Default()")

	ErrNoCurrentBuild     = errors.New("no current build: call StartBuild first")
	ErrNoCurrentExecution = errors.New("no current execution: call StartTest first")
	ErrInvalidStatus      = errors.New("invalid step status")
)

// PreconditionError reports an operation attempted without the session state it needs.
type PreconditionError struct {
	Op      string
	Missing error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Missing)
}

func (e *PreconditionError) Unwrap() error {
	return e.Missing
}

func precondition(op string, missing error) error {
	return &PreconditionError{Op: op, Missing: missing}
}
