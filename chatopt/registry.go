package chatopt

import "sort"

// HelpFlag is the existence flag injected into every registry unless
// WithoutHelp is given
var HelpFlag = Switch("help").Usage("show command usage")

// Registry is a validated, immutable set of flag specifications.
// It is built once per command and is safe for concurrent use.
type Registry struct {
	specs     []FlagSpec
	long      map[string]int
	short     map[rune]int
	longNames []string
	help      bool
}

type registryOptions struct {
	help bool
}

// RegistryOption configures NewRegistry
type RegistryOption func(*registryOptions)

// WithoutHelp suppresses the automatic --help flag
func WithoutHelp() RegistryOption {
	return func(o *registryOptions) {
		o.help = false
	}
}

// NewRegistry validates specs and builds the lookup tables.
// Every spec needs a long name; long names, shorthands and destination keys
// must be unique across the registry, the injected help flag included.
func NewRegistry(specs []FlagSpec, opts ...RegistryOption) (*Registry, error) {
	o := registryOptions{help: true}
	for _, opt := range opts {
		opt(&o)
	}

	all := make([]FlagSpec, 0, len(specs)+1)
	all = append(all, specs...)
	if o.help {
		all = append(all, HelpFlag)
	}

	r := &Registry{
		specs:     all,
		long:      make(map[string]int, len(all)),
		short:     make(map[rune]int, len(all)),
		longNames: make([]string, 0, len(all)),
		help:      o.help,
	}
	dests := make(map[string]struct{}, len(all))

	for i, spec := range all {
		if spec.long == "" {
			return nil, &ConfigError{Message: "flag has no long name", Key: spec.String()}
		}
		if _, dup := r.long[spec.long]; dup {
			return nil, &ConfigError{Message: "duplicate long name", Key: spec.long}
		}
		r.long[spec.long] = i
		r.longNames = append(r.longNames, spec.long)

		if spec.short != 0 {
			if spec.short == '-' {
				return nil, &ConfigError{Message: "invalid shorthand", Key: "-"}
			}
			if _, dup := r.short[spec.short]; dup {
				return nil, &ConfigError{Message: "duplicate shorthand", Key: string(spec.short)}
			}
			r.short[spec.short] = i
		}

		if spec.dest == "" {
			return nil, &ConfigError{Message: "flag has no destination", Key: spec.long}
		}
		if _, dup := dests[spec.dest]; dup {
			return nil, &ConfigError{Message: "duplicate destination", Key: spec.dest}
		}
		dests[spec.dest] = struct{}{}
	}

	sort.Strings(r.longNames)
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
// Intended for package level command tables.
func MustRegistry(specs []FlagSpec, opts ...RegistryOption) *Registry {
	r, err := NewRegistry(specs, opts...)
	if err != nil {
		panic("chatopt: " + err.Error())
	}
	return r
}

// Specs returns a copy of the registered specs in declaration order
func (r *Registry) Specs() []FlagSpec {
	out := make([]FlagSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Lookup finds a spec by long name
func (r *Registry) Lookup(long string) (FlagSpec, bool) {
	i, ok := r.long[long]
	if !ok {
		return FlagSpec{}, false
	}
	return r.specs[i], true
}

// LookupShort finds a spec by shorthand
func (r *Registry) LookupShort(short rune) (FlagSpec, bool) {
	i, ok := r.short[short]
	if !ok {
		return FlagSpec{}, false
	}
	return r.specs[i], true
}

// HasHelp reports whether the help flag was injected
func (r *Registry) HasHelp() bool { return r.help }

// Len returns the number of specs, the help flag included
func (r *Registry) Len() int { return len(r.specs) }
