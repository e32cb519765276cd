package chatopt

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Kind represents the behavioral type of a flag
type Kind int

const (
	// KindExistence flags set their destination to true when present
	KindExistence Kind = iota
	// KindValue flags consume exactly one parameter
	KindValue
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindExistence:
		return "existence"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// Transform converts the raw parameter of a value flag before it is stored.
// Validation happens here too: returning an error rejects the parameter.
type Transform func(raw string) (any, error)

// Identity passes the raw parameter through unchanged
func Identity(raw string) (any, error) {
	return raw, nil
}

// FlagSpec describes a single unix style switch.
//
// FlagSpec is a value type: every modifier returns a modified copy, so a spec
// shared between registries can never change under them.
type FlagSpec struct {
	long      string
	short     rune
	kind      Kind
	dest      string
	transform Transform
	usage     string
}

// Switch creates an existence flag stored under its long name
func Switch(long string) FlagSpec {
	return FlagSpec{long: long, kind: KindExistence, dest: long}
}

// Param creates a value flag stored under its long name
func Param(long string) FlagSpec {
	return FlagSpec{long: long, kind: KindValue, dest: long}
}

// Short sets the single character shorthand (0 removes it)
func (f FlagSpec) Short(short rune) FlagSpec {
	f.short = short
	return f
}

// Into sets the destination key in the parse result
func (f FlagSpec) Into(dest string) FlagSpec {
	f.dest = dest
	return f
}

// Transform sets the parameter transform. Unused for existence flags.
func (f FlagSpec) Transform(t Transform) FlagSpec {
	f.transform = t
	return f
}

// Usage sets a one-line description, shown as completion tooltip
func (f FlagSpec) Usage(usage string) FlagSpec {
	f.usage = usage
	return f
}

// LongName returns the long name without the leading "--"
func (f FlagSpec) LongName() string { return f.long }

// ShortName returns the shorthand rune, or 0 when the flag has none
func (f FlagSpec) ShortName() rune { return f.short }

// HasShort reports whether the flag has a shorthand
func (f FlagSpec) HasShort() bool { return f.short != 0 }

// Kind returns the flag kind
func (f FlagSpec) Kind() Kind { return f.kind }

// Destination returns the result key the flag is stored under
func (f FlagSpec) Destination() string { return f.dest }

// Description returns the usage string
func (f FlagSpec) Description() string { return f.usage }

// RequiresValue returns true if the flag consumes a parameter
func (f FlagSpec) RequiresValue() bool {
	return f.kind == KindValue
}

// Same reports whether two specs describe the same switch.
// Transforms are functions and cannot be compared, so they are ignored.
func (f FlagSpec) Same(other FlagSpec) bool {
	return f.long == other.long && f.short == other.short && f.kind == other.kind && f.dest == other.dest
}

// String returns the canonical spelling, e.g. "--input/-i"
func (f FlagSpec) String() string {
	if f.short != 0 {
		return "--" + f.long + "/-" + string(f.short)
	}
	return "--" + f.long
}

// apply runs the transform, defaulting to Identity
func (f FlagSpec) apply(raw string) (any, error) {
	if f.transform == nil {
		return Identity(raw)
	}
	return f.transform(raw)
}

// Built-in transforms

// Int parses a signed base-10 integer
func Int(raw string) (any, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", raw)
	}
	return v, nil
}

// Uint parses a non-negative base-10 integer and stores it as int
func Uint(raw string) (any, error) {
	v, err := strconv.ParseUint(raw, 10, strconv.IntSize-1)
	if err != nil {
		return nil, fmt.Errorf("%q is not a non-negative integer", raw)
	}
	return int(v), nil
}

// Float parses a float64
func Float(raw string) (any, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}

// Duration parses a Go duration string such as "1m30s"
func Duration(raw string) (any, error) {
	v, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("%q is not a duration", raw)
	}
	return v, nil
}

// OneOf creates a transform that only accepts the given values
func OneOf(values ...string) Transform {
	return func(raw string) (any, error) {
		for _, v := range values {
			if raw == v {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("value %q is not one of the allowed values: %v", raw, values)
	}
}

// Matching creates a transform that validates the parameter against a regex pattern
func Matching(pattern string) Transform {
	// Compile the regex once during transform creation
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return func(string) (any, error) {
			return nil, fmt.Errorf("invalid regex pattern '%s': %v", pattern, err)
		}
	}

	return func(raw string) (any, error) {
		if !regex.MatchString(raw) {
			return nil, fmt.Errorf("value '%s' does not match pattern '%s'", raw, pattern)
		}
		return raw, nil
	}
}

// IntRange parses an integer and checks min <= value <= max
func IntRange(min, max int) Transform {
	return func(raw string) (any, error) {
		v, err := Int(raw)
		if err != nil {
			return nil, err
		}
		if n := v.(int); n < min || n > max {
			return nil, fmt.Errorf("value %d is not within range [%d, %d]", n, min, max)
		}
		return v, nil
	}
}
