package config

import (
	"fmt"

	"github.com/dzonerzy/go-chatopt/chatopt"
	"github.com/dzonerzy/go-chatopt/command"
	"github.com/dzonerzy/go-chatopt/middleware"
)

// Flag types accepted in a FlagConfig
const (
	TypeSwitch   = "switch"
	TypeString   = "string"
	TypeInt      = "int"
	TypeUint     = "uint"
	TypeFloat    = "float"
	TypeDuration = "duration"
	TypeOneOf    = "one_of"
	TypeMatch    = "match"
)

// CommandConfig declares a chat command in the config file
type CommandConfig struct {
	Name        string       `toml:"name" yaml:"name" json:"name"`
	Description string       `toml:"description" yaml:"description" json:"description"`
	Usage       string       `toml:"usage" yaml:"usage" json:"usage"`
	Aliases     []string     `toml:"aliases" yaml:"aliases" json:"aliases"`
	Tolerant    bool         `toml:"tolerant" yaml:"tolerant" json:"tolerant"`
	Timeout     Duration     `toml:"timeout" yaml:"timeout" json:"timeout"`
	Flags       []FlagConfig `toml:"flags" yaml:"flags" json:"flags"`
}

// FlagConfig declares one flag. Type defaults to "switch".
type FlagConfig struct {
	Long    string   `toml:"long" yaml:"long" json:"long"`
	Short   string   `toml:"short" yaml:"short" json:"short"`
	Dest    string   `toml:"dest" yaml:"dest" json:"dest"`
	Type    string   `toml:"type" yaml:"type" json:"type"`
	Values  []string `toml:"values" yaml:"values" json:"values"`    // one_of
	Pattern string   `toml:"pattern" yaml:"pattern" json:"pattern"` // match
	Usage   string   `toml:"usage" yaml:"usage" json:"usage"`
}

// Spec converts the declaration to a chatopt.FlagSpec
func (f FlagConfig) Spec() (chatopt.FlagSpec, error) {
	var spec chatopt.FlagSpec
	switch f.Type {
	case "", TypeSwitch:
		spec = chatopt.Switch(f.Long)
	case TypeString:
		spec = chatopt.Param(f.Long)
	case TypeInt:
		spec = chatopt.Param(f.Long).Transform(chatopt.Int)
	case TypeUint:
		spec = chatopt.Param(f.Long).Transform(chatopt.Uint)
	case TypeFloat:
		spec = chatopt.Param(f.Long).Transform(chatopt.Float)
	case TypeDuration:
		spec = chatopt.Param(f.Long).Transform(chatopt.Duration)
	case TypeOneOf:
		if len(f.Values) == 0 {
			return spec, fmt.Errorf("flag --%s: one_of needs values", f.Long)
		}
		spec = chatopt.Param(f.Long).Transform(chatopt.OneOf(f.Values...))
	case TypeMatch:
		if f.Pattern == "" {
			return spec, fmt.Errorf("flag --%s: match needs a pattern", f.Long)
		}
		spec = chatopt.Param(f.Long).Transform(chatopt.Matching(f.Pattern))
	default:
		return spec, fmt.Errorf("flag --%s: unknown type %q", f.Long, f.Type)
	}

	if f.Short != "" {
		r := []rune(f.Short)
		if len(r) != 1 {
			return spec, fmt.Errorf("flag --%s: short name %q must be a single character", f.Long, f.Short)
		}
		spec = spec.Short(r[0])
	}
	if f.Dest != "" {
		spec = spec.Into(f.Dest)
	}
	if f.Usage != "" {
		spec = spec.Usage(f.Usage)
	}
	return spec, nil
}

// Specs converts every flag declaration
func (c CommandConfig) Specs() ([]chatopt.FlagSpec, error) {
	specs := make([]chatopt.FlagSpec, 0, len(c.Flags))
	for _, f := range c.Flags {
		spec, err := f.Spec()
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Registry builds the command's flag table
func (c CommandConfig) Registry() (*chatopt.Registry, error) {
	specs, err := c.Specs()
	if err != nil {
		return nil, err
	}
	return chatopt.NewRegistry(specs)
}

// Build turns the declaration into a command running action. A declared
// timeout is applied inside any extra middleware.
func (c CommandConfig) Build(action command.ActionFunc, mw ...middleware.Middleware) (*command.Command, error) {
	specs, err := c.Specs()
	if err != nil {
		return nil, err
	}

	b := command.New(c.Name, c.Description).
		Alias(c.Aliases...).
		Flags(specs...).
		Use(mw...).
		Action(action)
	if c.Usage != "" {
		b.Usage(c.Usage)
	}
	if c.Tolerant {
		b.Tolerant()
	}
	if c.Timeout.Duration > 0 {
		b.Use(middleware.Timeout(c.Timeout.Duration))
	}
	return b.Build()
}
