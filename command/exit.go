package command

import (
	"errors"

	"github.com/dzonerzy/go-chatopt/chatopt"
	"github.com/dzonerzy/go-chatopt/middleware"
)

// ExitError is a sentinel used to request a specific exit code from inside actions.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodes holds the codes ExitCode maps outcomes to.
type ExitCodes struct {
	Success         int // default: 0
	GeneralError    int // default: 1
	MisusageError   int // default: 2
	ValidationError int // default: 3
	NotFoundError   int // default: 127
}

func DefaultExitCodes() ExitCodes {
	return ExitCodes{Success: 0, GeneralError: 1, MisusageError: 2, ValidationError: 3, NotFoundError: 127}
}

// Resolve converts an execution error to an exit code.
// Precedence:
//  1. ExitError (requested code)
//  2. help request (success)
//  3. unknown command
//  4. parse errors (misuse)
//  5. validation errors
//  6. anything else
func (c ExitCodes) Resolve(err error) int {
	if err == nil {
		return c.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, chatopt.ErrHelpRequested) {
		return c.Success
	}

	var unknown *UnknownCommandError
	if errors.As(err, &unknown) {
		return c.NotFoundError
	}
	var pe *chatopt.ParseError
	if errors.As(err, &pe) {
		return c.MisusageError
	}
	var ve *middleware.ValidationError
	if errors.As(err, &ve) {
		return c.ValidationError
	}
	return c.GeneralError
}

// ExitCode maps err with the default codes
func ExitCode(err error) int {
	return DefaultExitCodes().Resolve(err)
}
