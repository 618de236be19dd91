package authority

import (
	"errors"
	"fmt"
)

// ErrUnavailable means the authority (or the caller's identity) is not yet
// initialized. Reads degrade to a neutral empty result rather than raising.
var ErrUnavailable = errors.New("authority not available")

// ErrNotFound means a referenced match, profile or payment does not exist at
// the authority.
var ErrNotFound = errors.New("not found")

// CallError is a remote call that the authority rejected or that failed in
// transit. Local state is never mutated ahead of confirmation, so there is
// nothing to roll back.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("authority call %s failed: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
