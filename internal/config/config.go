// Package config loads quizmate settings from an optional YAML file and
// QUIZMATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizmate/internal/browser"
	"github.com/abhisek/quizmate/internal/llm"
	"github.com/abhisek/quizmate/internal/solver"
)

// Config is the top-level configuration.
type Config struct {
	LLM     llm.Config     `yaml:"llm"`
	Solver  solver.Config  `yaml:"solver"`
	Browser browser.Config `yaml:"browser"`
	Store   StoreConfig    `yaml:"store"`
	Server  ServerConfig   `yaml:"server"`
	Watch   WatchConfig    `yaml:"watch"`
}

// StoreConfig selects the key-value backend.
type StoreConfig struct {
	// Backend is "sqlite" or "redis".
	Backend string `yaml:"backend"`

	// Path is the SQLite file. Empty means the XDG data directory.
	Path string `yaml:"path"`

	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WatchConfig configures the debounced re-scan.
type WatchConfig struct {
	// Quiet is how long the page must stay unchanged before a scan.
	Quiet time.Duration `yaml:"quiet"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM:     llm.DefaultConfig(),
		Solver:  solver.DefaultConfig(),
		Browser: browser.DefaultConfig(),
		Store:   StoreConfig{Backend: "sqlite", RedisPrefix: "quizmate"},
		Server:  ServerConfig{Addr: "127.0.0.1:8765"},
		Watch:   WatchConfig{Quiet: 1500 * time.Millisecond},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/quizmate/config.yaml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "quizmate", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "quizmate", "config.yaml"), nil
}

// Load reads path over the defaults and applies environment overrides.
// An empty path reads DefaultPath if that file exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with QUIZMATE_* variables.
func ApplyEnv(cfg *Config) error {
	llm.ApplyEnv(&cfg.LLM)

	if v := os.Getenv("QUIZMATE_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("QUIZMATE_REDIS_ADDR"); v != "" {
		cfg.Store.Backend = "redis"
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("QUIZMATE_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("QUIZMATE_CHROME_URL"); v != "" {
		cfg.Browser.RemoteURL = v
	}
	if v := os.Getenv("QUIZMATE_AUTO_SOLVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("QUIZMATE_AUTO_SOLVE: %w", err)
		}
		cfg.Solver.AutoSolve = b
	}
	if v := os.Getenv("QUIZMATE_EXPLAIN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("QUIZMATE_EXPLAIN: %w", err)
		}
		cfg.Solver.IncludeExplanation = b
	}
	return nil
}
