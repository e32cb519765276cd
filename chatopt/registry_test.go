package chatopt

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewRegistry_Conflicts(t *testing.T) {
	tests := []struct {
		name  string
		specs []FlagSpec
		opts  []RegistryOption
		key   string
	}{
		{
			name:  "duplicate long name",
			specs: []FlagSpec{Switch("on").Short('1'), Param("on").Short('o').Into("value")},
			key:   "on",
		},
		{
			name:  "duplicate shorthand",
			specs: []FlagSpec{Switch("on").Short('w'), Switch("use-we").Short('w')},
			key:   "w",
		},
		{
			name:  "duplicate destination",
			specs: []FlagSpec{Switch("on").Into("state"), Switch("off").Into("state")},
			key:   "state",
		},
		{
			name:  "clash with injected help",
			specs: []FlagSpec{Switch("help").Short('h')},
			key:   "help",
		},
		{
			name:  "destination clash with injected help",
			specs: []FlagSpec{Switch("usage").Into("help")},
			key:   "help",
		},
		{
			name:  "long name is required",
			specs: []FlagSpec{Switch("").Short('x').Into("x")},
			key:   "--/-x",
		},
		{
			name:  "dash shorthand",
			specs: []FlagSpec{Switch("dash").Short('-')},
			key:   "-",
		},
		{
			name:  "empty destination",
			specs: []FlagSpec{Param("name").Into("")},
			key:   "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.specs, tt.opts...)
			if r != nil {
				t.Error("Expected no registry on conflict")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected *ConfigError, got %T: %v", err, err)
			}
			if ce.Key != tt.key {
				t.Errorf("Expected conflicting key %q, got %q (%v)", tt.key, ce.Key, ce)
			}
		})
	}
}

func TestNewRegistry_Disjoint(t *testing.T) {
	r, err := NewRegistry(minemapSpecs())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if r.Len() != 7 || !r.HasHelp() {
		t.Errorf("Expected 6 specs plus help, got %d (help=%v)", r.Len(), r.HasHelp())
	}

	r, err = NewRegistry([]FlagSpec{Switch("help").Short('h')}, WithoutHelp())
	if err != nil {
		t.Fatalf("Expected own help flag to be accepted without injection: %v", err)
	}
	if r.HasHelp() {
		t.Error("Expected HasHelp=false with WithoutHelp")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := minemap(t)

	spec, ok := r.Lookup("input")
	if !ok || spec.ShortName() != 'i' || spec.Kind() != KindValue {
		t.Errorf("Lookup(input) = %v, %v", spec, ok)
	}
	spec, ok = r.LookupShort('g')
	if !ok || spec.LongName() != "game" {
		t.Errorf("LookupShort(g) = %v, %v", spec, ok)
	}
	if _, ok := r.Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}
	if _, ok := r.LookupShort('h'); ok {
		t.Error("help flag must not have a shorthand")
	}

	names := make([]string, 0, r.Len())
	for _, s := range r.Specs() {
		names = append(names, s.LongName())
	}
	want := []string{"dithering", "input", "no-gz", "output", "export", "game", "help"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Specs order mismatch (-want +got):\n%s", diff)
	}
}

func TestMustRegistry_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected MustRegistry to panic on conflicting specs")
		}
	}()
	MustRegistry([]FlagSpec{Switch("a"), Switch("a")})
}

func TestFlagSpec_Modifiers(t *testing.T) {
	base := Param("height")
	withShort := base.Short('h').Into("rows").Usage("rows of frames")

	if base.HasShort() || base.Destination() != "height" {
		t.Error("modifiers must not change the original spec")
	}
	if withShort.ShortName() != 'h' || withShort.Destination() != "rows" || withShort.Description() != "rows of frames" {
		t.Errorf("unexpected spec %v", withShort)
	}
	if withShort.String() != "--height/-h" || base.String() != "--height" {
		t.Errorf("unexpected spelling %q / %q", withShort.String(), base.String())
	}
	if !withShort.RequiresValue() || Switch("x").RequiresValue() {
		t.Error("RequiresValue mismatch")
	}
	if !withShort.Same(base.Short('h').Into("rows")) || withShort.Same(base) {
		t.Error("Same mismatch")
	}
	if KindExistence.String() != "existence" || KindValue.String() != "value" {
		t.Error("Kind names mismatch")
	}
}

func TestTransforms(t *testing.T) {
	tests := []struct {
		name    string
		t       Transform
		raw     string
		want    any
		wantErr bool
	}{
		{"identity", Identity, "x y", "x y", false},
		{"int", Int, "-7", -7, false},
		{"int rejects float", Int, "1.5", nil, true},
		{"uint", Uint, "7", 7, false},
		{"uint rejects negative", Uint, "-7", nil, true},
		{"float", Float, "0.25", 0.25, false},
		{"float rejects junk", Float, "0.83ddd47", nil, true},
		{"one of", OneOf("a", "b"), "b", "b", false},
		{"one of rejects", OneOf("a", "b"), "c", nil, true},
		{"matching", Matching(`^[a-z]+$`), "abc", "abc", false},
		{"matching rejects", Matching(`^[a-z]+$`), "ABC", nil, true},
		{"bad pattern", Matching(`(`), "abc", nil, true},
		{"int range", IntRange(1, 5), "5", 5, false},
		{"int range rejects", IntRange(1, 5), "6", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.t(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}
