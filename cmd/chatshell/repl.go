package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

const prompt = "> "

// repl reads chat lines until EOF, Ctrl+C or /quit. Lines that don't start
// with a slash are chat messages and are just echoed back.
func (s *shell) repl() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	line.SetWordCompleter(s.completeWord)

	history := historyPath()
	if f, err := os.Open(history); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, history)

	s.log.Info("Type /help for commands, /quit to leave.")
	for {
		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		switch {
		case input == "/quit" || input == "/exit":
			return nil
		case strings.HasPrefix(input, "/"):
			// the sender already saw the outcome
			if err := s.run(input); err != nil {
				s.log.Debug("%s: %v", input, err)
			}
		default:
			s.log.Info("<%s> %s", s.sender.Name(), input)
		}

		if s.ctx.Err() != nil {
			return nil
		}
	}
}

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chatshell", "history")
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}
