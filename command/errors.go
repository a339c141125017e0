package command

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned by the resolver when no template is close enough.
	ErrNoMatch = errors.New("no matching command")

	// ErrTemplateMismatch is matched by every *MismatchError.
	ErrTemplateMismatch = errors.New("input does not fit template")

	// ErrUnsafeCommand is returned by WithSafeMode for templates not marked safe.
	ErrUnsafeCommand = errors.New("command is not marked safe")

	// ErrNilHandler is returned when registering a template without a handler.
	ErrNilHandler = errors.New("handler is nil")
)

// DuplicateTemplateError reports a second registration of the same pattern.
// It is a configuration bug in the registering unit.
type DuplicateTemplateError struct {
	Pattern string
}

func (e *DuplicateTemplateError) Error() string {
	return fmt.Sprintf("command %q already registered", e.Pattern)
}

// InvalidPatternError reports a pattern that cannot be parsed unambiguously.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid command pattern %q: %s", e.Pattern, e.Reason)
}

// MismatchError reports that a literal part of a template could not be
// found in the input, usually after a fuzzy match.
type MismatchError struct {
	Pattern string
	Input   string
	Literal string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("input %q does not contain %q from %q", e.Input, e.Literal, e.Pattern)
}

// Is lets errors.Is(err, ErrTemplateMismatch) succeed.
func (e *MismatchError) Is(target error) bool {
	return target == ErrTemplateMismatch
}

// HandlerError wraps a failure returned (or panicked) by a handler.
type HandlerError struct {
	Pattern string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Pattern, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
