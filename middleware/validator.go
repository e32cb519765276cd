package middleware

import (
	"errors"
	"strings"
)

// ValidatorFunc checks an invocation after flags parsed cleanly. Flag
// syntax is the parser's job; validators cover relationships between
// flags and the residual tokens.
type ValidatorFunc func(ctx Context) error

// NamedValidator pairs a validator with the field it reports on
type NamedValidator struct {
	Name  string
	Check ValidatorFunc
}

// Validate runs validators in order and stops at the first failure.
// Errors that are not already a *ValidationError are wrapped with the
// validator's name as Field.
func Validate(validators ...NamedValidator) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			for _, v := range validators {
				if err := v.Check(ctx); err != nil {
					var verr *ValidationError
					if errors.As(err, &verr) {
						return verr
					}
					return &ValidationError{
						Field:   v.Name,
						Message: "validation failed",
						Cause:   err,
					}
				}
			}
			return next(ctx)
		}
	}
}

// Custom names a validator for Validate
func Custom(name string, check ValidatorFunc) NamedValidator {
	return NamedValidator{Name: name, Check: check}
}

// Exclusive rejects invocations where more than one of the given existence
// flags is set, e.g. "--on --off".
func Exclusive(keys ...string) NamedValidator {
	return NamedValidator{
		Name: strings.Join(keys, ","),
		Check: func(ctx Context) error {
			var set []string
			for _, k := range keys {
				if ctx.Flags().Bool(k) {
					set = append(set, "--"+k)
				}
			}
			if len(set) > 1 {
				return &ValidationError{
					Field:   strings.Join(keys, ","),
					Value:   set,
					Message: strings.Join(set, " and ") + " are mutually exclusive",
				}
			}
			return nil
		},
	}
}

// Require rejects invocations that did not supply the value flag stored
// under key
func Require(key string) NamedValidator {
	return NamedValidator{
		Name: key,
		Check: func(ctx Context) error {
			if !ctx.Flags().Has(key) {
				return &ValidationError{
					Field:   key,
					Message: "--" + key + " is required",
				}
			}
			return nil
		},
	}
}

// MinArgs rejects invocations with fewer than n residual tokens
func MinArgs(n int) NamedValidator {
	return NamedValidator{
		Name: "args",
		Check: func(ctx Context) error {
			if got := len(ctx.Args()); got < n {
				return &ValidationError{
					Field:   "args",
					Value:   got,
					Message: "not enough arguments",
				}
			}
			return nil
		},
	}
}
