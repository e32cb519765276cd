// Package command binds chatopt flag tables to chat commands: it parses
// argument vectors typed by a sender, runs the command action through a
// middleware chain and answers tab-completion requests.
package command

import (
	"context"

	"github.com/dzonerzy/go-chatopt/chatopt"
	"github.com/dzonerzy/go-chatopt/middleware"
)

// ActionFunc runs a parsed command
type ActionFunc func(inv *Invocation) error

// ValueCompleter suggests parameters for a pending value flag. token is the
// partial value typed so far, empty when the flag was followed by a space.
type ValueCompleter func(ctx context.Context, sender, token string) ([]chatopt.Candidate, error)

// Command is a registered chat command
type Command struct {
	name        string
	description string
	usage       string
	aliases     []string
	registry    *chatopt.Registry
	tolerant    bool
	completers  map[string]ValueCompleter // by destination key
	middleware  []middleware.Middleware
	action      ActionFunc
}

// Name returns the command name (implements middleware.Command interface)
func (c *Command) Name() string { return c.name }

// Description returns the command description (implements middleware.Command interface)
func (c *Command) Description() string { return c.description }

// Usage returns the usage line shown after a parse failure
func (c *Command) Usage() string { return c.usage }

// Aliases returns alternative names
func (c *Command) Aliases() []string { return append([]string(nil), c.aliases...) }

// Registry returns the command's flag table
func (c *Command) Registry() *chatopt.Registry { return c.registry }

// Tolerant reports whether unknown tokens end flag parsing instead of failing it
func (c *Command) Tolerant() bool { return c.tolerant }

// Parse runs the command's parser over argv. Strict commands never return
// residual tokens.
func (c *Command) Parse(argv []string) (*chatopt.Result, []string, error) {
	if c.tolerant {
		return c.registry.ParseTolerant(argv)
	}
	res, err := c.registry.Parse(argv)
	return res, nil, err
}

// Builder provides fluent API for building commands
type Builder struct {
	command *Command
	specs   []chatopt.FlagSpec
	opts    []chatopt.RegistryOption
}

// New starts a command definition
func New(name, description string) *Builder {
	return &Builder{command: &Command{
		name:        name,
		description: description,
		usage:       "/" + name,
		completers:  make(map[string]ValueCompleter),
	}}
}

// Usage sets the usage line, e.g. "/toggle [-1|-0] [-w]"
func (b *Builder) Usage(usage string) *Builder {
	b.command.usage = usage
	return b
}

// Alias adds aliases for the command
func (b *Builder) Alias(aliases ...string) *Builder {
	b.command.aliases = append(b.command.aliases, aliases...)
	return b
}

// Flags appends flag declarations
func (b *Builder) Flags(specs ...chatopt.FlagSpec) *Builder {
	b.specs = append(b.specs, specs...)
	return b
}

// WithoutHelp drops the implicit --help flag
func (b *Builder) WithoutHelp() *Builder {
	b.opts = append(b.opts, chatopt.WithoutHelp())
	return b
}

// Tolerant lets the command accept positional tokens. Parsing stops at the
// first token that is not a known flag, and the rest is passed to the
// action as Args.
func (b *Builder) Tolerant() *Builder {
	b.command.tolerant = true
	return b
}

// CompleteValue registers a completer for the value flag stored under dest
func (b *Builder) CompleteValue(dest string, fn ValueCompleter) *Builder {
	b.command.completers[dest] = fn
	return b
}

// Use adds command-level middleware
func (b *Builder) Use(mw ...middleware.Middleware) *Builder {
	b.command.middleware = append(b.command.middleware, mw...)
	return b
}

// Action sets the action function for the command
func (b *Builder) Action(fn ActionFunc) *Builder {
	b.command.action = fn
	return b
}

// Build validates the flag table and returns the command
func (b *Builder) Build() (*Command, error) {
	reg, err := chatopt.NewRegistry(b.specs, b.opts...)
	if err != nil {
		return nil, err
	}
	for dest := range b.command.completers {
		if !hasValueDest(reg, dest) {
			return nil, &chatopt.ConfigError{Message: "completer for unknown value flag", Key: dest}
		}
	}
	cmd := *b.command
	cmd.registry = reg
	return &cmd, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Command {
	cmd, err := b.Build()
	if err != nil {
		panic("command " + b.command.name + ": " + err.Error())
	}
	return cmd
}

func hasValueDest(reg *chatopt.Registry, dest string) bool {
	for _, spec := range reg.Specs() {
		if spec.Destination() == dest && spec.RequiresValue() {
			return true
		}
	}
	return false
}
