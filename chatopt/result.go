package chatopt

import (
	"sort"
	"time"
)

// Value is a single resolved flag. Existence flags carry a bool, value flags
// carry the raw parameter and its transformed form.
type Value struct {
	kind    Kind
	present bool
	raw     string
	val     any
}

// Kind returns the kind of the flag that produced the value
func (v Value) Kind() Kind { return v.kind }

// Bool returns whether an existence flag was given
func (v Value) Bool() bool { return v.kind == KindExistence && v.present }

// Raw returns the parameter as typed by the user, after escape normalization
func (v Value) Raw() string { return v.raw }

// Any returns the boolean for existence flags and the transformed value otherwise
func (v Value) Any() any {
	if v.kind == KindExistence {
		return v.present
	}
	return v.val
}

// Result maps destination keys to resolved values.
// Existence keys are always present; value keys only when the flag was given.
type Result struct {
	values map[string]Value
}

func newResult(r *Registry) *Result {
	res := &Result{values: make(map[string]Value, len(r.specs))}
	for _, spec := range r.specs {
		if spec.kind == KindExistence {
			res.values[spec.dest] = Value{kind: KindExistence}
		}
	}
	return res
}

func (r *Result) setExistence(dest string) {
	r.values[dest] = Value{kind: KindExistence, present: true}
}

func (r *Result) setValue(dest, raw string, val any) {
	r.values[dest] = Value{kind: KindValue, present: true, raw: raw, val: val}
}

// Value returns the resolved value for key
func (r *Result) Value(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present
func (r *Result) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Len returns the number of keys
func (r *Result) Len() int { return len(r.values) }

// Keys returns the keys in sorted order
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the boolean or transformed value stored under key
func (r *Result) Get(key string) (any, bool) {
	v, ok := r.values[key]
	if !ok {
		return nil, false
	}
	return v.Any(), true
}

// Map returns a plain copy of the result, as Get would see it
func (r *Result) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v.Any()
	}
	return m
}

// Raw returns the untransformed parameter of a value flag
func (r *Result) Raw(key string) (string, bool) {
	v, ok := r.values[key]
	if !ok || v.kind != KindValue {
		return "", false
	}
	return v.raw, true
}

// Bool returns true only if key is an existence flag that was given
func (r *Result) Bool(key string) bool {
	return r.values[key].Bool()
}

// String returns the value of key if it holds a string
func (r *Result) String(key string) (string, bool) {
	return Lookup[string](r, key)
}

// Int returns the value of key if it holds an int
func (r *Result) Int(key string) (int, bool) {
	return Lookup[int](r, key)
}

// Uint returns the value of key if it holds a non-negative int or a uint
func (r *Result) Uint(key string) (uint, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case uint:
		return n, true
	case int:
		if n >= 0 {
			return uint(n), true
		}
	}
	return 0, false
}

// Float returns the value of key if it holds a float64
func (r *Result) Float(key string) (float64, bool) {
	return Lookup[float64](r, key)
}

// Duration returns the value of key if it holds a time.Duration
func (r *Result) Duration(key string) (time.Duration, bool) {
	return Lookup[time.Duration](r, key)
}

// Lookup returns the value stored under key asserted to T
func Lookup[T any](r *Result, key string) (T, bool) {
	var zero T
	v, ok := r.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
