package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dzonerzy/go-chatopt/chatio"
	"github.com/dzonerzy/go-chatopt/chatopt"
	"github.com/dzonerzy/go-chatopt/middleware"
)

// Sender is whoever typed the command. Replies are leveled so a chat front
// end can color them.
type Sender interface {
	Name() string
	Send(level chatio.LogLevel, text string)
}

// LoggerSender replies through a chatio.Logger, e.g. on a terminal
type LoggerSender struct {
	ID  string
	Log *chatio.Logger
}

func (s LoggerSender) Name() string { return s.ID }

func (s LoggerSender) Send(level chatio.LogLevel, text string) {
	s.Log.Log(level, "%s", text)
}

// Invocation is one execution of a command. It implements middleware.Context.
type Invocation struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	cmd    *Command
	sender Sender
	flags  *chatopt.Result
	args   []string

	mu       sync.Mutex
	metadata map[string]any
}

var _ middleware.Context = (*Invocation)(nil)

func newInvocation(parent context.Context, cmd *Command, sender Sender, flags *chatopt.Result, args []string) *Invocation {
	ctx, cancel := context.WithCancel(parent)
	return &Invocation{
		ctx:      ctx,
		cancel:   cancel,
		cmd:      cmd,
		sender:   sender,
		flags:    flags,
		args:     args,
		metadata: map[string]any{middleware.InvocationIDKey: uuid.NewString()},
	}
}

// ID returns the unique id of this invocation, as logged by middleware.Logger
func (inv *Invocation) ID() string {
	id, _ := inv.Get(middleware.InvocationIDKey).(string)
	return id
}

// Context returns the underlying Go context for cancellation/timeouts
func (inv *Invocation) Context() context.Context { return inv.ctx }

// Done returns a channel that's closed when the invocation is canceled
func (inv *Invocation) Done() <-chan struct{} { return inv.ctx.Done() }

// Cancel cancels the invocation
func (inv *Invocation) Cancel() { inv.once.Do(inv.cancel) }

// Sender returns the sender's name
func (inv *Invocation) Sender() string { return inv.sender.Name() }

// Args returns the residual tokens of a tolerant command
func (inv *Invocation) Args() []string { return inv.args }

// Flags returns the parsed flags
func (inv *Invocation) Flags() *chatopt.Result { return inv.flags }

// Command returns the running command
func (inv *Invocation) Command() middleware.Command { return inv.cmd }

// Set stores a key-value pair in the invocation metadata
func (inv *Invocation) Set(key string, value any) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.metadata == nil {
		inv.metadata = make(map[string]any)
	}
	inv.metadata[key] = value
}

// Get retrieves a value from the invocation metadata
func (inv *Invocation) Get(key string) any {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.metadata[key]
}

// Reply sends a message to the sender
func (inv *Invocation) Reply(level chatio.LogLevel, format string, args ...any) {
	inv.sender.Send(level, fmt.Sprintf(format, args...))
}

// Info replies with an informational message
func (inv *Invocation) Info(format string, args ...any) {
	inv.Reply(chatio.LevelInfo, format, args...)
}

// Success replies with a success message
func (inv *Invocation) Success(format string, args ...any) {
	inv.Reply(chatio.LevelSuccess, format, args...)
}

// Warning replies with a warning
func (inv *Invocation) Warning(format string, args ...any) {
	inv.Reply(chatio.LevelWarning, format, args...)
}
