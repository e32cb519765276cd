// Package middleware wraps chat command actions with logging, panic
// recovery, timeouts and flag validation.
package middleware

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dzonerzy/go-chatopt/chatopt"
)

// Context describes what middleware can see of a running command.
// It is implemented by *command.Invocation.
type Context interface {
	// Context returns the context the command runs under
	Context() context.Context

	// Done is closed when the command is canceled or times out
	Done() <-chan struct{}

	// Cancel requests cancellation of the current command. It is idempotent.
	Cancel()

	// Sender identifies who typed the command
	Sender() string

	// Args returns the residual (positional) tokens. Treat as read-only.
	Args() []string

	// Flags returns the parsed flags
	Flags() *chatopt.Result

	// Set stores a key/value pair shared between middleware and the action.
	// Keys should be namespaced, e.g. "logger.start".
	Set(key string, value any)

	// Get retrieves a value stored with Set, or nil
	Get(key string) any

	// Command returns the running command descriptor
	Command() Command
}

// Command is satisfied by *command.Command
type Command interface {
	Name() string
	Description() string
}

// ActionFunc is the command action signature
type ActionFunc func(ctx Context) error

// Middleware wraps an ActionFunc
type Middleware func(next ActionFunc) ActionFunc

// MiddlewareChain is an ordered list of middleware
type MiddlewareChain []Middleware

// Apply wraps action so that the first middleware in the chain runs first
func (chain MiddlewareChain) Apply(action ActionFunc) ActionFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		action = chain[i](action)
	}
	return action
}

// Use returns a new chain with the provided middleware appended.
func (chain MiddlewareChain) Use(middleware ...Middleware) MiddlewareChain {
	out := make(MiddlewareChain, 0, len(chain)+len(middleware))
	out = append(out, chain...)
	return append(out, middleware...)
}

// Chain creates a new middleware chain, preserving order.
func Chain(middleware ...Middleware) MiddlewareChain {
	return MiddlewareChain(middleware)
}

// ValidationError reports flags that parsed cleanly but make no sense together
type ValidationError struct {
	Field   string
	Value   any
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// TimeoutError represents a timeout error
type TimeoutError struct {
	Duration time.Duration
	Command  string
}

func (e *TimeoutError) Error() string {
	return "command '" + e.Command + "' timed out after " + e.Duration.String()
}

// RecoveryError represents a recovered panic
type RecoveryError struct {
	Panic   any
	Command string
	Stack   []byte
}

func (e *RecoveryError) Error() string {
	return "command '" + e.Command + "' panicked: " + toString(e.Panic)
}

// MiddlewareConfig contains configuration for middleware behavior
type MiddlewareConfig struct {
	LogLevel       LogLevel
	LogFormat      LogFormat
	Output         io.Writer
	IncludeArgs    bool
	PrintStack     bool
	StackSize      int
	DefaultTimeout time.Duration
}

// LogLevel represents logging levels
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// LogFormat represents log formats
type LogFormat int

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

// InvocationIDKey is the metadata key under which a unique invocation id
// is stored, if the Context provides one
const InvocationIDKey = "invocation.id"

// RequestInfo describes one command execution
type RequestInfo struct {
	ID        string
	Command   string
	Sender    string
	Args      []string
	StartTime time.Time
	Duration  time.Duration
	Error     error
}

type MiddlewareOption func(config *MiddlewareConfig)

func DefaultConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		LogLevel:       LogLevelInfo,
		LogFormat:      LogFormatText,
		Output:         os.Stderr,
		IncludeArgs:    true,
		PrintStack:     false,
		StackSize:      4096,
		DefaultTimeout: 30 * time.Second,
	}
}

func newConfig(options []MiddlewareOption) *MiddlewareConfig {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return config
}

func WithLogLevel(level LogLevel) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogLevel = level
	}
}

func WithLogFormat(format LogFormat) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogFormat = format
	}
}

// WithOutput sets where the logger and recovery write. Nil discards.
func WithOutput(w io.Writer) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		if w == nil {
			w = io.Discard
		}
		config.Output = w
	}
}

func WithTimeout(timeout time.Duration) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.DefaultTimeout = timeout
	}
}

func WithStackTrace(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.PrintStack = enabled
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func getCommandName(ctx Context) string {
	cmd := ctx.Command()
	if cmd == nil {
		return "unknown"
	}
	return cmd.Name()
}
