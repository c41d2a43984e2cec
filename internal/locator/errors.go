package locator

import (
	"errors"
	"fmt"
)

var (
	// ErrLookup is matched by every LookupError.
	ErrLookup = errors.New("element key not found")
	// ErrValidation is matched by every ValidationError and StrictnessError.
	ErrValidation = errors.New("invalid locator")
	// ErrStrictness is matched by every StrictnessError.
	ErrStrictness = errors.New("strictness violation")
)

// LookupError is returned when a page asks for a key its element file does not define.
type LookupError struct {
	Page string
	Key  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("element %q not found in %s element map", e.Key, e.Page)
}

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// ValidationError is returned for a descriptor that cannot be resolved as written.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid locator %q: %s", e.Key, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StrictnessError is returned when a strict operation matches more than one element.
type StrictnessError struct {
	Context string
	Count   int
}

func (e *StrictnessError) Error() string {
	return fmt.Sprintf("Strictness violation: Multiple elements found for %s (%d matches)", e.Context, e.Count)
}

func (e *StrictnessError) Is(target error) bool {
	return target == ErrStrictness || target == ErrValidation
}
