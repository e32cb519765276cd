// Package idrange expands map id specs typed after a command's flags.
//
//	X     the id X
//	X:Y   X through Y inclusive, counting down when Y < X
//	X+N   X up to X+N
//	X+-N  X+N down to X
package idrange

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxSpan caps how many ids one spec may expand to
const MaxSpan = 1 << 16

// RangeError reports a spec that cannot be expanded
type RangeError struct {
	Spec    string
	TooWide bool
	Err     error // number parsing failure, if any
}

func (e *RangeError) Error() string {
	if e.TooWide {
		return fmt.Sprintf("%s spans more than %d map IDs", e.Spec, MaxSpan)
	}
	return fmt.Sprintf("%s is not a valid map ID range", e.Spec)
}

func (e *RangeError) Unwrap() error { return e.Err }

// Parse expands a single spec
func Parse(spec string) ([]int, error) {
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		start, err := parseID(spec[:i])
		if err != nil {
			return nil, &RangeError{Spec: spec, Err: err}
		}
		end, err := parseID(spec[i+1:])
		if err != nil {
			return nil, &RangeError{Spec: spec, Err: err}
		}
		return expand(spec, start, end)
	}

	if i := strings.IndexByte(spec, '+'); i >= 0 {
		base, err := parseID(spec[:i])
		if err != nil {
			return nil, &RangeError{Spec: spec, Err: err}
		}
		offset, err := strconv.ParseInt(spec[i+1:], 10, 32)
		if err != nil {
			return nil, &RangeError{Spec: spec, Err: err}
		}
		top := base + offset
		if offset < 0 {
			top = base - offset
		}
		if top > math.MaxInt32 {
			return nil, &RangeError{Spec: spec}
		}
		if offset < 0 {
			// negative offsets count down to the base
			return expand(spec, top, base)
		}
		return expand(spec, base, top)
	}

	id, err := parseID(spec)
	if err != nil {
		return nil, &RangeError{Spec: spec, Err: err}
	}
	return []int{int(id)}, nil
}

// ParseAll expands specs in order and concatenates the ids
func ParseAll(specs []string) ([]int, error) {
	var ids []int
	for _, spec := range specs {
		more, err := Parse(spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, more...)
	}
	return ids, nil
}

// parseID accepts unsigned decimal ids that fit a signed 32-bit map id
func parseID(s string) (int64, error) {
	v, err := strconv.ParseUint(s, 10, 31)
	return int64(v), err
}

func expand(spec string, start, end int64) ([]int, error) {
	if start < 0 || start > math.MaxInt32 {
		return nil, &RangeError{Spec: spec}
	}
	step := int64(1)
	n := end - start
	if n < 0 {
		step, n = -1, -n
	}
	if n >= MaxSpan {
		return nil, &RangeError{Spec: spec, TooWide: true}
	}

	ids := make([]int, 0, n+1)
	for i := start; step*(i-end) <= 0; i += step {
		ids = append(ids, int(i))
	}
	return ids, nil
}
