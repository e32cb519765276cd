package chatopt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dzonerzy/go-chatopt/internal/fuzzy"
)

// ErrorType represents parse error categories.
// These categories drive the reply sent to the user and exit-code mapping.
type ErrorType string

const (
	ErrorTypeUnrecognizedFlag    ErrorType = "unrecognized_flag"
	ErrorTypeUnexpectedParameter ErrorType = "unexpected_parameter"
	ErrorTypeMissingParameter    ErrorType = "missing_parameter"
	ErrorTypeTransformRejected   ErrorType = "transform_rejected"
)

// ErrHelpRequested is returned by Parse when the help flag was given and
// every token parsed cleanly. It is a request to show usage, not a failure.
var ErrHelpRequested = errors.New("help requested")

// ParseError represents a per-invocation parsing failure
type ParseError struct {
	Type       ErrorType
	Message    string
	Token      string    // offending token, without leading dashes for flags
	Flag       *FlagSpec // flag involved, for missing parameters and rejected values
	Long       bool      // flag was spelled in long form
	Value      string    // rejected raw parameter
	Suggestion string    // closest known flag, if any
	Cause      error
}

func (e *ParseError) Error() string {
	return e.Message
}

// Unwrap returns the transform failure, if any
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ConfigError reports an inconsistent flag table. It is raised once, while
// building a Registry, and indicates a bug in command registration.
type ConfigError struct {
	Message string
	Key     string // conflicting name, shorthand or destination
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return e.Message
	}
	return e.Message + ": " + e.Key
}

// IsParseError reports whether err is a *ParseError of the given type
func IsParseError(err error, typ ErrorType) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Type == typ
}

func unrecognizedLong(name string, r *Registry) *ParseError {
	e := &ParseError{
		Type:    ErrorTypeUnrecognizedFlag,
		Message: "unrecognized long option --" + name,
		Token:   name,
		Long:    true,
	}
	if best := fuzzy.FindBestFlag(name, r.longNames, 2); best != "" {
		e.Suggestion = "--" + best
	}
	return e
}

func unrecognizedShort(s rune) *ParseError {
	return &ParseError{
		Type:    ErrorTypeUnrecognizedFlag,
		Message: "unrecognized short option -" + string(s),
		Token:   string(s),
	}
}

func unexpectedParameter(token string) *ParseError {
	return &ParseError{
		Type:    ErrorTypeUnexpectedParameter,
		Message: "unexpected parameter " + token,
		Token:   token,
	}
}

func missingParameter(spec FlagSpec, long bool) *ParseError {
	name := "-" + string(spec.short)
	if long {
		name = "--" + spec.long
	}
	return &ParseError{
		Type:    ErrorTypeMissingParameter,
		Message: fmt.Sprintf("mandatory parameter for %s is missing", name),
		Token:   strings.TrimLeft(name, "-"),
		Flag:    &spec,
		Long:    long,
	}
}

func transformRejected(spec FlagSpec, raw string, cause error) *ParseError {
	return &ParseError{
		Type:    ErrorTypeTransformRejected,
		Message: fmt.Sprintf("invalid value for --%s: %v", spec.long, cause),
		Token:   spec.long,
		Flag:    &spec,
		Value:   raw,
		Cause:   cause,
	}
}
