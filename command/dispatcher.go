package command

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/dzonerzy/go-chatopt/chatio"
	"github.com/dzonerzy/go-chatopt/chatopt"
	"github.com/dzonerzy/go-chatopt/internal/fuzzy"
	"github.com/dzonerzy/go-chatopt/middleware"
)

// UnknownCommandError is returned for a name no command answers to
type UnknownCommandError struct {
	Name       string
	Suggestion string
}

func (e *UnknownCommandError) Error() string {
	msg := "unknown command " + e.Name
	if e.Suggestion != "" {
		msg += ", did you mean " + e.Suggestion + "?"
	}
	return msg
}

// usageHeading is sent in place of an error message when help is requested
const usageHeading = "Command usage:"

// Dispatcher routes chat lines to registered commands. It is safe for
// concurrent use; commands may be registered while others execute.
type Dispatcher struct {
	mu         sync.RWMutex
	commands   map[string]*Command
	aliases    map[string]string
	middleware []middleware.Middleware
	log        *chatio.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets where the dispatcher reports completion failures
func WithLogger(l *chatio.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithMiddleware adds dispatcher-wide middleware, run before command middleware
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(d *Dispatcher) { d.middleware = append(d.middleware, mw...) }
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds commands. A name or alias already taken is a ConfigError
// and nothing from the call is registered.
func (d *Dispatcher) Register(cmds ...*Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	taken := func(name string) bool {
		_, c := d.commands[name]
		_, a := d.aliases[name]
		return c || a
	}
	seen := make(map[string]struct{})
	for _, cmd := range cmds {
		for _, name := range append([]string{cmd.name}, cmd.aliases...) {
			if _, dup := seen[name]; dup || taken(name) {
				return &chatopt.ConfigError{Message: "duplicate command", Key: name}
			}
			seen[name] = struct{}{}
		}
	}

	for _, cmd := range cmds {
		d.commands[cmd.name] = cmd
		for _, alias := range cmd.aliases {
			d.aliases[alias] = cmd.name
		}
	}
	return nil
}

// Lookup resolves a command by name or alias
func (d *Dispatcher) Lookup(name string) (*Command, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if target, ok := d.aliases[name]; ok {
		name = target
	}
	cmd, ok := d.commands[name]
	return cmd, ok
}

// Commands returns the registered commands sorted by name
func (d *Dispatcher) Commands() []*Command {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Command, 0, len(d.commands))
	for _, cmd := range d.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (d *Dispatcher) names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.commands)+len(d.aliases))
	for name := range d.commands {
		names = append(names, name)
	}
	for alias := range d.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// Execute runs command name with an already tokenized argument vector.
//
// Parse failures and help requests are answered to the sender with the
// message, the command description and its usage, and the action is not
// run. The returned error lets callers map the outcome with ExitCode.
func (d *Dispatcher) Execute(ctx context.Context, sender Sender, name string, argv []string) error {
	cmd, ok := d.Lookup(name)
	if !ok {
		err := &UnknownCommandError{Name: name, Suggestion: fuzzy.FindBestCommand(name, d.names(), 2)}
		sender.Send(chatio.LevelError, err.Error())
		return err
	}

	flags, args, err := cmd.Parse(argv)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, chatopt.ErrHelpRequested) {
			msg = usageHeading
		}
		sender.Send(chatio.LevelWarning, msg)
		var pe *chatopt.ParseError
		if errors.As(err, &pe) && pe.Suggestion != "" {
			sender.Send(chatio.LevelWarning, "did you mean "+pe.Suggestion+"?")
		}
		sender.Send(chatio.LevelWarning, cmd.description)
		sender.Send(chatio.LevelInfo, cmd.usage)
		return err
	}

	if cmd.action == nil {
		return nil
	}

	inv := newInvocation(ctx, cmd, sender, flags, args)
	defer inv.Cancel()

	if err := d.wrap(cmd)(inv); err != nil {
		sender.Send(chatio.LevelError, err.Error())
		return err
	}
	return nil
}

// ExecuteLine splits a typed chat line ("/toggle -1") on spaces, the way the
// chat server hands arguments to commands, and executes it. Trailing empty
// tokens are dropped; escapes are left for the command's parser.
func (d *Dispatcher) ExecuteLine(ctx context.Context, sender Sender, line string) error {
	tokens := strings.Split(strings.TrimLeft(line, " "), " ")
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) == 0 {
		return nil
	}
	name := strings.TrimLeft(tokens[0], "/")
	return d.Execute(ctx, sender, name, tokens[1:])
}

func (d *Dispatcher) wrap(cmd *Command) func(*Invocation) error {
	d.mu.RLock()
	chain := middleware.Chain(d.middleware...).Use(cmd.middleware...)
	d.mu.RUnlock()

	action := chain.Apply(func(ctx middleware.Context) error {
		inv, ok := ctx.(*Invocation)
		if !ok {
			return errors.New("invalid middleware context type")
		}
		return cmd.action(inv)
	})
	return func(inv *Invocation) error { return action(inv) }
}

// Complete answers a tab-completion request for the raw chat buffer.
//
// The buffer is tokenized and the command resolved from its first token
// with leading slashes stripped. While the command name itself is being
// typed, matching command names are offered. Otherwise a trailing empty
// token means the last argument is complete. When a value flag is waiting
// for its parameter and the command registered a completer for it, the
// completer's candidates are returned. Unknown commands yield nothing.
func (d *Dispatcher) Complete(ctx context.Context, sender Sender, buffer string) []chatopt.Candidate {
	tokens := chatopt.Tokenize(buffer)
	if len(tokens) == 0 {
		return nil
	}
	name := strings.TrimLeft(tokens[0], "/")
	if len(tokens) == 1 {
		return d.completeName(tokens[0], name)
	}
	if name == "" {
		return nil
	}
	cmd, ok := d.Lookup(name)
	if !ok {
		return nil
	}

	lastComplete := tokens[len(tokens)-1] == ""
	args := tokens[1:]
	if lastComplete {
		args = args[:len(args)-1]
	}

	comp := cmd.registry.Complete(args, lastComplete)
	if comp.Pending == nil {
		return comp.Candidates
	}

	complete, ok := cmd.completers[comp.Pending.Destination()]
	if !ok {
		return nil
	}
	cands, err := complete(ctx, sender.Name(), comp.Token)
	if err != nil {
		if d.log != nil {
			d.log.Debug("completing %s for %s: %v", comp.Pending, sender.Name(), err)
		}
		return nil
	}
	return cands
}

func (d *Dispatcher) completeName(typed, name string) []chatopt.Candidate {
	slashes := typed[:len(typed)-len(name)]
	var out []chatopt.Candidate
	for _, n := range d.names() {
		if !strings.HasPrefix(n, name) {
			continue
		}
		cmd, _ := d.Lookup(n)
		out = append(out, chatopt.Candidate{Text: slashes + n, Tooltip: cmd.description})
	}
	return out
}
