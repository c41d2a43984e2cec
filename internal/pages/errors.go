package pages

import (
	"errors"
	"fmt"
)

// ErrAssertionTimeout is matched by every AssertionError.
var ErrAssertionTimeout = errors.New("assertion timed out")

// AssertionError reports a verification or implicit wait that did not hold
// within its timeout.
type AssertionError struct {
	Check string
	Key   string
	Err   error
}

func (e *AssertionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("assertion %q failed: %v", e.Check, e.Err)
	}
	return fmt.Sprintf("assertion %q failed for %q: %v", e.Check, e.Key, e.Err)
}

func (e *AssertionError) Unwrap() error { return e.Err }

func (e *AssertionError) Is(target error) bool { return target == ErrAssertionTimeout }

// ActionError wraps a failed browser action.
type ActionError struct {
	Action string
	Key    string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s on %q failed: %v", e.Action, e.Key, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
