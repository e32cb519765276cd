// Package config loads chatshell settings and config-declared commands.
//
// A file is decoded by extension (.toml, .yaml/.yml or .json) over the
// built-in defaults, then environment variables are applied on top:
//
//	CHATOPT_LOG_LEVEL         log.level
//	CHATOPT_LOG_FORMAT        log.format
//	CHATOPT_LOG_FILE          log.file
//	CHATOPT_TILESET_ENDPOINT  tileset.endpoint
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dzonerzy/go-chatopt/chatio"
)

// Config is the complete chatshell configuration
type Config struct {
	Log      LogConfig       `toml:"log" yaml:"log" json:"log"`
	Chat     ChatConfig      `toml:"chat" yaml:"chat" json:"chat"`
	Tileset  TilesetConfig   `toml:"tileset" yaml:"tileset" json:"tileset"`
	Commands []CommandConfig `toml:"commands" yaml:"commands" json:"commands"`
}

// LogConfig controls the terminal logger and its optional file sink
type LogConfig struct {
	Level      string `toml:"level" yaml:"level" json:"level"`
	Format     string `toml:"format" yaml:"format" json:"format"`
	Timestamps bool   `toml:"timestamps" yaml:"timestamps" json:"timestamps"`
	File       string `toml:"file" yaml:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups" json:"max_backups"`
}

// ChatConfig limits what a single sender can run. A zero rate disables
// the limit, a zero timeout lets commands run unbounded.
type ChatConfig struct {
	RateLimit float64  `toml:"rate_limit" yaml:"rate_limit" json:"rate_limit"` // commands per second
	Burst     int      `toml:"burst" yaml:"burst" json:"burst"`
	Timeout   Duration `toml:"timeout" yaml:"timeout" json:"timeout"`
}

// TilesetConfig points the f2d command at a tile-set catalogue
type TilesetConfig struct {
	Endpoint    string   `toml:"endpoint" yaml:"endpoint" json:"endpoint"`
	RateLimit   float64  `toml:"rate_limit" yaml:"rate_limit" json:"rate_limit"` // requests per second, 0 is unlimited
	Burst       int      `toml:"burst" yaml:"burst" json:"burst"`
	Timeout     Duration `toml:"timeout" yaml:"timeout" json:"timeout"`
	CacheSize   int      `toml:"cache_size" yaml:"cache_size" json:"cache_size"`
	MetadataTTL Duration `toml:"metadata_ttl" yaml:"metadata_ttl" json:"metadata_ttl"`
	ListingTTL  Duration `toml:"listing_ttl" yaml:"listing_ttl" json:"listing_ttl"`
}

// Duration is a time.Duration written as "1m30s" in every format
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "circles",
			MaxSizeMB:  32,
			MaxBackups: 1,
		},
		Chat: ChatConfig{
			RateLimit: 4,
			Burst:     8,
			Timeout:   Duration{30 * time.Second},
		},
		Tileset: TilesetConfig{
			RateLimit:   5,
			Burst:       10,
			Timeout:     Duration{10 * time.Second},
			CacheSize:   256,
			MetadataTTL: Duration{24 * time.Hour},
			ListingTTL:  Duration{time.Minute},
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decodeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %q", undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// ApplyEnvOverrides applies the CHATOPT_* variables that are set and non-empty
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATOPT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CHATOPT_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("CHATOPT_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("CHATOPT_TILESET_ENDPOINT"); v != "" {
		c.Tileset.Endpoint = v
	}
}

// Validate checks log settings and builds every declared command once so
// flag table mistakes surface at load time.
func (c *Config) Validate() error {
	if _, err := chatio.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := chatio.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	if c.Chat.RateLimit < 0 || c.Chat.Burst < 0 || c.Chat.Timeout.Duration < 0 {
		return errors.New("chat limits must not be negative")
	}
	if c.Tileset.RateLimit < 0 || c.Tileset.Burst < 0 || c.Tileset.CacheSize < 0 {
		return errors.New("tileset limits must not be negative")
	}

	seen := make(map[string]bool, len(c.Commands))
	for i := range c.Commands {
		cmd := &c.Commands[i]
		if cmd.Name == "" {
			return fmt.Errorf("command #%d has no name", i+1)
		}
		for _, n := range append([]string{cmd.Name}, cmd.Aliases...) {
			if seen[n] {
				return fmt.Errorf("command name %q declared twice", n)
			}
			seen[n] = true
		}
		if _, err := cmd.Registry(); err != nil {
			return fmt.Errorf("command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() chatio.LogLevel {
	l, _ := chatio.ParseLevel(c.Log.Level)
	return l
}

// LogFormat returns the parsed log format
func (c *Config) LogFormat() chatio.LogFormat {
	f, _ := chatio.ParseFormat(c.Log.Format)
	return f
}

// FileOptions returns the rotating file settings, ok is false when no file is configured
func (c *Config) FileOptions() (chatio.FileOptions, bool) {
	if c.Log.File == "" {
		return chatio.FileOptions{}, false
	}
	return chatio.FileOptions{
		Path:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}, true
}
