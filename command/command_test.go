package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/dzonerzy/go-chatopt/chatio"
	"github.com/dzonerzy/go-chatopt/chatopt"
	"github.com/dzonerzy/go-chatopt/middleware"
)

type message struct {
	Level chatio.LogLevel
	Text  string
}

type recorder struct {
	name string
	mu   sync.Mutex
	msgs []message
}

func newRecorder(name string) *recorder { return &recorder{name: name} }

func (r *recorder) Name() string { return r.name }

func (r *recorder) Send(level chatio.LogLevel, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, message{level, text})
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Text
	}
	return out
}

func toggleCommand(t *testing.T, state *State[string, bool]) *Command {
	t.Helper()
	cmd, err := New("toggle", "Toggle frame visibility").
		Usage("/toggle [-1|-0] [-w]").
		Alias("tg").
		Flags(
			chatopt.Switch("on").Short('1').Usage("turn on"),
			chatopt.Switch("off").Short('0').Usage("turn off"),
			chatopt.Switch("use-we").Short('w').Usage("act on the selection"),
		).
		Use(middleware.Validate(middleware.Exclusive("on", "off"))).
		Action(func(inv *Invocation) error {
			flags := inv.Flags()
			v := state.Update(inv.Sender(), func(old bool, _ bool) bool {
				switch {
				case flags.Bool("on"):
					return true
				case flags.Bool("off"):
					return false
				}
				return !old
			})
			inv.Success("visible: %t", v)
			return nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return cmd
}

func frameCommand(t *testing.T) *Command {
	t.Helper()
	return New("f2d", "Place tiles on a wall of frames").
		Usage("/f2d [-h rows] [-w cols] [-n tileset | ids...]").
		Tolerant().
		Flags(
			chatopt.Param("height").Short('h').Transform(chatopt.Uint).Usage("frames tall"),
			chatopt.Param("width").Short('w').Transform(chatopt.Uint).Usage("frames wide"),
			chatopt.Param("name").Short('n').Usage("tile set path"),
		).
		CompleteValue("name", func(ctx context.Context, sender, token string) ([]chatopt.Candidate, error) {
			if token == "boom" {
				return nil, errors.New("catalogue unreachable")
			}
			return []chatopt.Candidate{{Text: token + "Blue", Tooltip: "tile set"}}, nil
		}).
		Action(func(inv *Invocation) error {
			h, _ := inv.Flags().Uint("height")
			inv.Info("h=%d args=%s", h, strings.Join(inv.Args(), ","))
			return nil
		}).
		MustBuild()
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *State[string, bool]) {
	t.Helper()
	state := NewState[string, bool]()
	d := NewDispatcher()
	if err := d.Register(toggleCommand(t, state), frameCommand(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return d, state
}

func TestBuildRejectsBadTables(t *testing.T) {
	_, err := New("x", "").Flags(chatopt.Switch("a"), chatopt.Switch("a")).Build()
	var ce *chatopt.ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for duplicate flag, got %v", err)
	}

	_, err = New("x", "").
		Flags(chatopt.Switch("a")).
		CompleteValue("a", func(context.Context, string, string) ([]chatopt.Candidate, error) { return nil, nil }).
		Build()
	if !errors.As(err, &ce) || ce.Key != "a" {
		t.Errorf("expected ConfigError for completer on a switch, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustBuild should panic")
		}
	}()
	New("x", "").Flags(chatopt.Param("")).MustBuild()
}

func TestRegisterDuplicates(t *testing.T) {
	d, _ := newTestDispatcher(t)
	dup := New("tg", "clash").MustBuild()
	var ce *chatopt.ConfigError
	if err := d.Register(dup); !errors.As(err, &ce) || ce.Key != "tg" {
		t.Errorf("expected duplicate alias error, got %v", err)
	}
	if err := d.Register(New("a", "").MustBuild(), New("a", "").MustBuild()); err == nil {
		t.Error("expected duplicate within one call to fail")
	}
	if _, ok := d.Lookup("a"); ok {
		t.Error("failed Register must not register anything")
	}
}

func TestExecuteToggle(t *testing.T) {
	d, state := newTestDispatcher(t)
	ctx := context.Background()
	alice := newRecorder("alice")

	steps := []struct {
		line string
		want bool
	}{
		{"/toggle", true},
		{"/toggle", false},
		{"/tg -1", true},
		{"/toggle --on", true},
		{"/toggle -0w", false},
	}
	for _, s := range steps {
		if err := d.ExecuteLine(ctx, alice, s.line); err != nil {
			t.Fatalf("%q: %v", s.line, err)
		}
		if got, _ := state.Get("alice"); got != s.want {
			t.Errorf("%q: state = %t, want %t", s.line, got, s.want)
		}
	}
	if _, ok := state.Get("bob"); ok {
		t.Error("state leaked to another sender")
	}
}

func TestExecuteParseFailure(t *testing.T) {
	d, state := newTestDispatcher(t)
	alice := newRecorder("alice")

	err := d.Execute(context.Background(), alice, "toggle", []string{"--of"})
	if !chatopt.IsParseError(err, chatopt.ErrorTypeUnrecognizedFlag) {
		t.Fatalf("expected unrecognized flag, got %v", err)
	}
	want := []string{
		"unrecognized long option --of",
		"did you mean --off?",
		"Toggle frame visibility",
		"/toggle [-1|-0] [-w]",
	}
	if diff := cmp.Diff(want, alice.texts()); diff != "" {
		t.Errorf("replies mismatch (-want +got):\n%s", diff)
	}
	if state.Len() != 0 {
		t.Error("action must not run after a parse failure")
	}
	if ExitCode(err) != 2 {
		t.Errorf("ExitCode = %d, want 2", ExitCode(err))
	}
}

func TestExecuteHelp(t *testing.T) {
	d, _ := newTestDispatcher(t)
	alice := newRecorder("alice")

	err := d.ExecuteLine(context.Background(), alice, "/toggle --help")
	if !errors.Is(err, chatopt.ErrHelpRequested) {
		t.Fatalf("expected help request, got %v", err)
	}
	if got := alice.texts(); len(got) != 3 || got[0] != "Command usage:" {
		t.Errorf("unexpected replies %q", got)
	}
	if ExitCode(err) != 0 {
		t.Errorf("help should exit 0")
	}
}

func TestExecuteValidation(t *testing.T) {
	d, _ := newTestDispatcher(t)
	alice := newRecorder("alice")

	err := d.ExecuteLine(context.Background(), alice, "/toggle -10")
	var ve *middleware.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := alice.texts(); len(got) != 1 || got[0] != "--on and --off are mutually exclusive" {
		t.Errorf("unexpected replies %q", got)
	}
	if ExitCode(err) != 3 {
		t.Errorf("ExitCode = %d, want 3", ExitCode(err))
	}
}

func TestExecuteUnknown(t *testing.T) {
	d, _ := newTestDispatcher(t)
	alice := newRecorder("alice")

	err := d.ExecuteLine(context.Background(), alice, "/togle -1")
	var ue *UnknownCommandError
	if !errors.As(err, &ue) || ue.Suggestion != "toggle" {
		t.Fatalf("expected suggestion toggle, got %v", err)
	}
	if ExitCode(err) != 127 {
		t.Errorf("ExitCode = %d, want 127", ExitCode(err))
	}
}

func TestExecuteTolerantResidual(t *testing.T) {
	d, _ := newTestDispatcher(t)
	alice := newRecorder("alice")

	if err := d.ExecuteLine(context.Background(), alice, "/f2d -h 2 3:4 -w 9"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got := alice.texts(); len(got) != 1 || got[0] != "h=2 args=3:4,-w,9" {
		t.Errorf("unexpected replies %q", got)
	}

	err := d.ExecuteLine(context.Background(), alice, "/f2d -h two")
	if !chatopt.IsParseError(err, chatopt.ErrorTypeTransformRejected) {
		t.Errorf("expected transform rejection, got %v", err)
	}
}

func TestExecuteLineEscapes(t *testing.T) {
	var got []string
	d := NewDispatcher()
	cmd := New("name", "").
		Tolerant().
		Flags(chatopt.Param("name").Short('n')).
		Action(func(inv *Invocation) error {
			n, _ := inv.Flags().String("name")
			got = append([]string{n}, inv.Args()...)
			return nil
		}).
		MustBuild()
	if err := d.Register(cmd); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line string
		want []string
	}{
		{`/name -n Arrival\ Boards/LBlue`, []string{"Arrival Boards/LBlue"}},
		{`/name -n C:\\ 1:4`, []string{`C:\`, "1:4"}},
		{`/name -n a\\\ b c `, []string{`a\ b`, "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got = nil
			if err := d.ExecuteLine(context.Background(), newRecorder("a"), tt.line); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parsed mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecuteMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next middleware.ActionFunc) middleware.ActionFunc {
			return func(ctx middleware.Context) error {
				order = append(order, name)
				return next(ctx)
			}
		}
	}
	d := NewDispatcher(WithMiddleware(mark("dispatcher")))
	cmd := New("ping", "").Use(mark("command")).Action(func(inv *Invocation) error {
		order = append(order, "action:"+inv.Command().Name())
		return nil
	}).MustBuild()
	if err := d.Register(cmd); err != nil {
		t.Fatal(err)
	}
	if err := d.Execute(context.Background(), newRecorder("a"), "ping", nil); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"dispatcher", "command", "action:ping"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteActionError(t *testing.T) {
	d := NewDispatcher(WithMiddleware(middleware.Recovery(middleware.WithOutput(nil))))
	boom := New("boom", "").Action(func(*Invocation) error { panic("kaboom") }).MustBuild()
	exit := New("quit", "").Action(func(*Invocation) error { return &ExitError{Code: 42} }).MustBuild()
	if err := d.Register(boom, exit); err != nil {
		t.Fatal(err)
	}

	alice := newRecorder("alice")
	err := d.Execute(context.Background(), alice, "boom", nil)
	var re *middleware.RecoveryError
	if !errors.As(err, &re) || ExitCode(err) != 1 {
		t.Errorf("expected recovered panic with exit 1, got %v", err)
	}
	if got := alice.texts(); len(got) != 1 || got[0] != "command 'boom' panicked: kaboom" {
		t.Errorf("unexpected replies %q", got)
	}

	if code := ExitCode(d.Execute(context.Background(), alice, "quit", nil)); code != 42 {
		t.Errorf("ExitCode = %d, want 42", code)
	}
}

func TestComplete(t *testing.T) {
	d, _ := newTestDispatcher(t)
	alice := newRecorder("alice")

	texts := func(cands []chatopt.Candidate) []string {
		out := make([]string, len(cands))
		for i, c := range cands {
			out[i] = c.Text
		}
		return out
	}

	tests := []struct {
		buffer string
		want   []string
	}{
		{"", []string{}},
		{"/t", []string{"/tg", "/toggle"}},
		{"/", []string{"/f2d", "/tg", "/toggle"}},
		{"/toggle ", []string{"--help", "--off", "--on", "--use-we", "-0", "-1", "-w"}},
		{"/toggle --o", []string{"--off", "--on"}},
		{"/tg -1 --u", []string{"--use-we"}},
		{"/nope ", []string{}},
		{"/toggle --help ", []string{}},
		{"/f2d -n ", []string{"Blue"}},
		{"/f2d -h 2 --name CoverArt/L", []string{"CoverArt/LBlue"}},
		{"/f2d -n boom", []string{}},
		{"/f2d -h ", []string{}},
	}

	for _, tt := range tests {
		got := texts(d.Complete(context.Background(), alice, tt.buffer))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Complete(%q) mismatch (-want +got):\n%s", tt.buffer, diff)
		}
	}
}

func TestCompleteConcurrent(t *testing.T) {
	d, _ := newTestDispatcher(t)
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		sender := newRecorder(fmt.Sprintf("p%d", i))
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				if got := d.Complete(context.Background(), sender, "/toggle --o"); len(got) != 2 {
					return fmt.Errorf("got %d candidates", len(got))
				}
				if err := d.ExecuteLine(context.Background(), sender, "/toggle"); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestStateUpdate(t *testing.T) {
	s := NewState[string, int]()
	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			s.Update("n", func(old int, _ bool) int { return old + 1 })
			return nil
		})
	}
	_ = g.Wait()
	if v, _ := s.Get("n"); v != 100 {
		t.Errorf("want 100, got %d", v)
	}
	s.Delete("n")
	if s.Len() != 0 {
		t.Error("Delete failed")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("x"), 1},
		{fmt.Errorf("wrapped: %w", chatopt.ErrHelpRequested), 0},
		{&middleware.TimeoutError{}, 1},
		{&ExitError{Code: 7, Err: &middleware.ValidationError{}}, 7},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestInvocationID(t *testing.T) {
	var ids []string
	d := NewDispatcher()
	cmd := New("id", "").Action(func(inv *Invocation) error {
		ids = append(ids, inv.ID())
		return nil
	}).MustBuild()
	if err := d.Register(cmd); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := d.ExecuteLine(context.Background(), newRecorder("a"), "/id"); err != nil {
			t.Fatal(err)
		}
	}
	if len(ids) != 2 || ids[0] == "" || ids[0] == ids[1] {
		t.Errorf("expected two distinct ids, got %q", ids)
	}
}
