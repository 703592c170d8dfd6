package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/xyproto/env/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/lojhan/primehash/internal/hashmap"
	"github.com/lojhan/primehash/internal/store"
)

type Config struct {
	Port      string
	HTTPPort  string
	Strategy  string
	Capacity  int
	MaxCap    int
	Hash      string
	LogLevel  string
	LogFile   string
	LogDev    bool
	Multicore bool
}

// LoadDotEnv loads variables from the given files (".env" when none are
// named) without overriding variables already set. Missing files are not an
// error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var err error
	for _, f := range files {
		if loadErr := godotenv.Load(f); loadErr != nil && !errors.Is(loadErr, fs.ErrNotExist) {
			err = multierr.Append(err, fmt.Errorf("load %s: %w", f, loadErr))
		}
	}
	return err
}

// Load parses args on top of defaults taken from PRIMEHASH_* environment
// variables and validates the result.
func Load(args []string) (*Config, error) {
	flags := flag.NewFlagSet("primehash-server", flag.ContinueOnError)

	cfg := &Config{}
	flags.StringVar(&cfg.Port, "port", env.Str("PRIMEHASH_PORT", "6380"), "RESP port to listen on")
	flags.StringVar(&cfg.HTTPPort, "http-port", env.Str("PRIMEHASH_HTTP_PORT"), "HTTP stats port (empty disables)")
	flags.StringVar(&cfg.Strategy, "strategy", env.Str("PRIMEHASH_STRATEGY", string(store.StrategyOpenAddressing)), "Collision strategy: open, chained")
	flags.IntVar(&cfg.Capacity, "capacity", env.Int("PRIMEHASH_CAPACITY", hashmap.DefaultCapacity), "Initial table capacity (rounded up to a prime)")
	flags.IntVar(&cfg.MaxCap, "max-capacity", env.Int("PRIMEHASH_MAX_CAPACITY", store.DefaultMaxCapacity), "Largest capacity accepted at startup or by RESIZE")
	flags.StringVar(&cfg.Hash, "hash", env.Str("PRIMEHASH_HASH", "xxhash"), "Hash function: xxhash, sum, weighted")
	flags.StringVar(&cfg.LogLevel, "log-level", env.Str("PRIMEHASH_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flags.StringVar(&cfg.LogFile, "log-file", env.Str("PRIMEHASH_LOG_FILE"), "Rotated log file (empty logs to stderr)")
	flags.BoolVar(&cfg.LogDev, "log-dev", env.Bool("PRIMEHASH_LOG_DEV"), "Human-readable console logs")
	flags.BoolVar(&cfg.Multicore, "multicore", env.Bool("PRIMEHASH_MULTICORE"), "Run one event loop per CPU")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error

	if err2 := validPort("port", c.Port, false); err2 != nil {
		err = multierr.Append(err, err2)
	}
	if err2 := validPort("http-port", c.HTTPPort, true); err2 != nil {
		err = multierr.Append(err, err2)
	}
	if _, err2 := store.ParseStrategy(c.Strategy); err2 != nil {
		err = multierr.Append(err, err2)
	}
	if c.Capacity < 1 {
		err = multierr.Append(err, fmt.Errorf("capacity must be positive, got %d", c.Capacity))
	}
	if c.MaxCap < 1 {
		err = multierr.Append(err, fmt.Errorf("max-capacity must be positive, got %d", c.MaxCap))
	} else if c.Capacity > c.MaxCap {
		err = multierr.Append(err, fmt.Errorf("capacity %d exceeds max-capacity %d", c.Capacity, c.MaxCap))
	}
	if _, ok := hashmap.LookupHash(c.Hash); !ok {
		err = multierr.Append(err, fmt.Errorf("unknown hash function %q", c.Hash))
	}
	if _, err2 := zapcore.ParseLevel(c.LogLevel); err2 != nil {
		err = multierr.Append(err, err2)
	}

	return err
}

func validPort(name, port string, optional bool) error {
	if port == "" && optional {
		return nil
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s must be a number between 1 and 65535, got %q", name, port)
	}
	return nil
}

// StoreConfig translates c into a store configuration. c must be valid.
func (c *Config) StoreConfig() store.Config {
	hash, _ := hashmap.LookupHash(c.Hash)
	return store.Config{
		Strategy:    store.Strategy(c.Strategy),
		Capacity:    c.Capacity,
		MaxCapacity: c.MaxCap,
		Hash:        hash,
	}
}
