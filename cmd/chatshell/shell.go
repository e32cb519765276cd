package main

import (
	"context"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/dzonerzy/go-chatopt/chatio"
	"github.com/dzonerzy/go-chatopt/command"
	"github.com/dzonerzy/go-chatopt/config"
	"github.com/dzonerzy/go-chatopt/middleware"
	"github.com/dzonerzy/go-chatopt/tileset"
)

// frame is one item frame on a sender's wall
type frame struct {
	MapID     int
	Protected bool
}

// shell wires config-driven commands to a dispatcher and a sender
type shell struct {
	ctx    context.Context
	cfg    *config.Config
	io     *chatio.IOManager
	log    *chatio.Logger
	sender command.LoggerSender

	disp   *command.Dispatcher
	client *tileset.Client
	tiles  *tileset.Cache
	walls  *command.State[string, []frame]
}

func newShell(ctx context.Context, cfg *config.Config, m *chatio.IOManager, name string) (*shell, error) {
	log := chatio.NewLogger(m).
		WithLevel(cfg.LogLevel()).
		WithFormat(cfg.LogFormat()).
		WithTimestamp(cfg.Log.Timestamps)

	// invocation log lines go to the file sink, or to stderr when debugging
	var audit io.Writer = io.Discard
	if fo, ok := cfg.FileOptions(); ok {
		w, err := chatio.OpenFile(fo)
		if err != nil {
			return nil, err
		}
		log.WithFile(w)
		audit = w
	} else if cfg.LogLevel() == chatio.LevelDebug {
		audit = m.Err()
	}

	s := &shell{
		ctx:    ctx,
		cfg:    cfg,
		io:     m,
		log:    log,
		sender: command.LoggerSender{ID: name, Log: log},
		walls:  command.NewState[string, []frame](),
	}

	s.client = tileset.NewClient(cfg.Tileset.Endpoint,
		tileset.WithHTTPClient(&http.Client{Timeout: cfg.Tileset.Timeout.Duration}),
		tileset.WithRateLimit(limit(cfg.Tileset.RateLimit), max(cfg.Tileset.Burst, 1)),
		tileset.WithUserAgent("chatshell"),
	)
	s.tiles = tileset.NewCache(s.client, tileset.CacheOptions{
		Size:         cfg.Tileset.CacheSize,
		MetadataTTL:  cfg.Tileset.MetadataTTL.Duration,
		ListingTTL:   cfg.Tileset.ListingTTL.Duration,
		FetchTimeout: cfg.Tileset.Timeout.Duration,
	})

	level := middleware.LogLevelInfo
	if cfg.LogLevel() == chatio.LevelDebug {
		level = middleware.LogLevelDebug
	}
	chain := []middleware.Middleware{
		middleware.Logger(middleware.WithLogLevel(level), middleware.WithOutput(audit)),
		middleware.Recovery(middleware.WithOutput(audit), middleware.WithStackTrace(level == middleware.LogLevelDebug)),
	}
	if cfg.Chat.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(rate.Limit(cfg.Chat.RateLimit), max(cfg.Chat.Burst, 1)))
	}
	chain = append(chain, middleware.Timeout(cfg.Chat.Timeout.Duration))
	s.disp = command.NewDispatcher(command.WithLogger(log), command.WithMiddleware(chain...))

	if err := s.disp.Register(s.builtins()...); err != nil {
		log.Close()
		return nil, err
	}
	for _, cc := range cfg.Commands {
		cmd, err := cc.Build(s.echo)
		if err != nil {
			log.Close()
			return nil, err
		}
		if err := s.disp.Register(cmd); err != nil {
			log.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close flushes and closes the log file
func (s *shell) Close() error {
	return s.log.Close()
}

// run executes one chat line as the shell's sender
func (s *shell) run(line string) error {
	return s.disp.ExecuteLine(s.ctx, s.sender, line)
}

// limit maps a configured rate to a limiter rate, 0 meaning unlimited
func limit(perSecond float64) rate.Limit {
	if perSecond == 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// completeWord adapts Dispatcher.Complete to line editing: the candidates
// replace whatever follows the last space before the cursor. pos counts runes.
func (s *shell) completeWord(line string, pos int) (head string, completions []string, tail string) {
	r := []rune(line)
	buffer := string(r[:pos])
	head = buffer[:strings.LastIndexByte(buffer, ' ')+1]
	for _, c := range s.disp.Complete(s.ctx, s.sender, buffer) {
		completions = append(completions, c.Text)
	}
	return head, completions, string(r[pos:])
}
