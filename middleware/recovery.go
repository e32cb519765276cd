package middleware

import (
	"fmt"
	"runtime"
	"sync"
)

// Recovery turns a panicking action into a *RecoveryError so one bad
// command cannot take the whole chat shell down.
func Recovery(options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					rerr := &RecoveryError{
						Panic:   r,
						Command: getCommandName(ctx),
						Stack:   captureStack(config),
					}
					if config.PrintStack && len(rerr.Stack) > 0 {
						fmt.Fprintf(config.Output, "PANIC in command '%s' from %s: %v\n", rerr.Command, ctx.Sender(), r)
						fmt.Fprintf(config.Output, "Stack trace:\n%s\n", rerr.Stack)
					}
					ctx.Set("recovery.panic", r)
					err = rerr
				}
			}()

			return next(ctx)
		}
	}
}

// RecoveryWithHandler lets the caller decide what a panic becomes
func RecoveryWithHandler(
	handler func(panicVal any, command string, stack []byte) error,
	options ...MiddlewareOption,
) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = handler(r, getCommandName(ctx), captureStack(config))
				}
			}()

			return next(ctx)
		}
	}
}

func captureStack(config *MiddlewareConfig) []byte {
	if !config.PrintStack || config.StackSize <= 0 {
		return nil
	}
	stack := make([]byte, config.StackSize)
	return stack[:runtime.Stack(stack, false)]
}

// RecoveryStats counts panics per command. Safe for concurrent use.
type RecoveryStats struct {
	mu            sync.Mutex
	total         int
	commandPanics map[string]int
	last          *RecoveryError
}

func NewRecoveryStats() *RecoveryStats {
	return &RecoveryStats{commandPanics: make(map[string]int)}
}

// Total returns the number of recovered panics
func (s *RecoveryStats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// For returns the number of panics recovered for command
func (s *RecoveryStats) For(command string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commandPanics[command]
}

// Last returns the most recent panic, or nil
func (s *RecoveryStats) Last() *RecoveryError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *RecoveryStats) record(e *RecoveryError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.commandPanics[e.Command]++
	s.last = e
}

// RecoveryWithStats recovers like Recovery and records each panic in stats
func RecoveryWithStats(stats *RecoveryStats, options ...MiddlewareOption) Middleware {
	recovery := Recovery(options...)
	return func(next ActionFunc) ActionFunc {
		wrapped := recovery(next)
		return func(ctx Context) error {
			err := wrapped(ctx)
			if rerr, ok := err.(*RecoveryError); ok {
				stats.record(rerr)
			}
			return err
		}
	}
}
