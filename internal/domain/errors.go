package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers map these onto
// HTTP statuses; everything else is treated as an infrastructure
// failure and surfaced as a 500.
var (
	// ErrForbidden means the actor may not perform the action. The
	// message is deliberately generic so callers cannot distinguish
	// "exists but not yours" from "not permitted".
	ErrForbidden = errors.New("not permitted")

	// ErrNotFound means the resource or a cross-reference (region,
	// parent record) does not exist.
	ErrNotFound = errors.New("not found")
)

// TransitionError reports a state-machine guard failure. The message
// names the violated precondition, e.g. "cannot edit a published item".
type TransitionError struct {
	Entity string
	From   string
	Name   string
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("cannot %s a %s %s", e.Name, e.From, e.Entity)
}

// IsTransitionError reports whether err is a TransitionError.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
