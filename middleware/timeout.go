package middleware

import (
	"context"
	"time"
)

// Timeout bounds how long an action may run. On expiry the invocation is
// canceled and a *TimeoutError returned; the action is expected to watch
// ctx.Done() and return on its own.
func Timeout(duration time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			if duration <= 0 {
				return next(ctx)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx.Context(), duration)
			defer cancel()

			resultChan := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						resultChan <- &RecoveryError{
							Panic:   r,
							Command: getCommandName(ctx),
						}
					}
				}()
				resultChan <- next(ctx)
			}()

			select {
			case err := <-resultChan:
				return err
			case <-ctx.Done():
				return context.Canceled
			case <-timeoutCtx.Done():
				// parent cancellation also closes timeoutCtx
				if ctx.Context().Err() != nil {
					return context.Canceled
				}
				ctx.Cancel()
				return &TimeoutError{
					Duration: duration,
					Command:  getCommandName(ctx),
				}
			}
		}
	}
}

// TimeoutWithDefault uses the configured DefaultTimeout
func TimeoutWithDefault(options ...MiddlewareOption) Middleware {
	return Timeout(newConfig(options).DefaultTimeout)
}

// TimeoutPerCommand picks a timeout by command name, falling back to
// defaultTimeout.
func TimeoutPerCommand(commandTimeouts map[string]time.Duration, defaultTimeout time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			timeout, ok := commandTimeouts[getCommandName(ctx)]
			if !ok {
				timeout = defaultTimeout
			}
			return Timeout(timeout)(next)(ctx)
		}
	}
}

// TimeoutFromFlag reads the timeout from a duration flag of the running
// command, e.g. "--timeout 5s".
func TimeoutFromFlag(dest string, defaultTimeout time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			timeout := defaultTimeout
			if flags := ctx.Flags(); flags != nil {
				if d, ok := flags.Duration(dest); ok {
					timeout = d
				}
			}
			return Timeout(timeout)(next)(ctx)
		}
	}
}
