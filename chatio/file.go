package chatio

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures the rotating log file
type FileOptions struct {
	Path       string
	MaxSizeMB  int // rotate after this many megabytes
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// OpenFile returns a size-rotated log file writer. The parent directory is
// created if needed.
func OpenFile(o FileOptions) (io.WriteCloser, error) {
	if dir := filepath.Dir(o.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	w := &lumberjack.Logger{
		Filename:   o.Path,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   o.Compress,
	}
	if w.MaxSize == 0 {
		w.MaxSize = 32 // MB
	}
	if w.MaxBackups == 0 {
		w.MaxBackups = 1
	}
	return w, nil
}
