// Package config loads hiscore settings from defaults, a TOML file, and
// environment/flag overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/xcawolfe-amzn/hiscore/internal/lock"
	"github.com/xcawolfe-amzn/hiscore/internal/logging"
	"github.com/xcawolfe-amzn/hiscore/internal/util"
)

// EnvPrefix prefixes environment overrides, e.g. HISCORE_DIR.
const EnvPrefix = "HISCORE"

// Defaults.
const (
	DefaultDir         = "~/.hiscore"
	DefaultFile        = "scores.txt"
	DefaultConfigFile  = "config.toml"
	DefaultMaxRecords  = 5
	DefaultMaxFailures = 2
	DefaultLogLevel    = "info"
	// MaxRecordsLimit bounds the table size.
	MaxRecordsLimit = 100
)

// Config is the complete hiscore configuration.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Lock    LockConfig    `toml:"lock"`
	Display DisplayConfig `toml:"display"`
	Logging LoggingConfig `toml:"logging"`
}

// StoreConfig locates the score file and sets its retention.
type StoreConfig struct {
	// Dir holds the score file and the log. A leading ~/ is expanded.
	Dir string `toml:"dir"`
	// File is the score file name, relative to Dir unless absolute.
	File string `toml:"file"`
	// MaxRecords is how many entries the table keeps.
	MaxRecords int `toml:"max_records"`
	// MaxFailures is how many failed attempts make the program give up on
	// the file.
	MaxFailures int `toml:"max_failures"`
	// Seed writes a default table when the file does not exist.
	Seed bool `toml:"seed"`
}

// LockConfig controls how long to wait for the file lock.
type LockConfig struct {
	ProbeTimeout    Duration `toml:"probe_timeout"`
	TransactTimeout Duration `toml:"transact_timeout"`
	Tick            Duration `toml:"tick"`
	// Query asks whether to keep waiting once a timeout is spent.
	Query bool `toml:"query"`
	// ResetBudget asks for a new wait budget after choosing to keep waiting.
	ResetBudget bool `toml:"reset_budget"`
	// NameUnderLock asks for the player's name while holding the lock.
	NameUnderLock bool `toml:"name_under_lock"`
}

// DisplayConfig controls terminal output.
type DisplayConfig struct {
	// Plain disables styling and interactive prompts.
	Plain bool `toml:"plain"`
}

// LoggingConfig controls the debug log.
type LoggingConfig struct {
	Level string `toml:"level"`
	// ToFile writes the log to <dir>/hiscore.log instead of stderr.
	ToFile bool `toml:"to_file"`
}

// Duration is a time.Duration written as a string such as "10s" in TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Dir:         DefaultDir,
			File:        DefaultFile,
			MaxRecords:  DefaultMaxRecords,
			MaxFailures: DefaultMaxFailures,
			Seed:        true,
		},
		Lock: LockConfig{
			ProbeTimeout:    Duration{10 * time.Second},
			TransactTimeout: Duration{10 * time.Second},
			Tick:            Duration{lock.DefaultTick},
			Query:           true,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel, ToFile: true},
	}
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(util.ExpandHome(DefaultDir), DefaultConfigFile)
}

// Load reads path over the defaults. A missing file is not an error unless
// required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	path = util.ExpandHome(path)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// Override keys, shared by flags and HISCORE_* environment variables.
const (
	KeyDir           = "dir"
	KeyFile          = "file"
	KeyMaxRecords    = "max_records"
	KeyMaxFailures   = "max_failures"
	KeyLockTimeout   = "lock_timeout"
	KeyNameUnderLock = "name_under_lock"
	KeyPlain         = "plain"
	KeyLogLevel      = "log_level"
)

// NewViper returns a viper instance reading HISCORE_* environment
// variables. Bind flags to it with BindPFlag.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// ApplyOverrides copies every key set in v (by flag or environment) onto c.
func (c *Config) ApplyOverrides(v *viper.Viper) error {
	if v.IsSet(KeyDir) {
		c.Store.Dir = v.GetString(KeyDir)
	}
	if v.IsSet(KeyFile) {
		c.Store.File = v.GetString(KeyFile)
	}
	if v.IsSet(KeyMaxRecords) {
		c.Store.MaxRecords = v.GetInt(KeyMaxRecords)
	}
	if v.IsSet(KeyMaxFailures) {
		c.Store.MaxFailures = v.GetInt(KeyMaxFailures)
	}
	if v.IsSet(KeyLockTimeout) {
		timeout := Duration{v.GetDuration(KeyLockTimeout)}
		c.Lock.ProbeTimeout, c.Lock.TransactTimeout = timeout, timeout
	}
	if v.IsSet(KeyNameUnderLock) {
		c.Lock.NameUnderLock = v.GetBool(KeyNameUnderLock)
	}
	if v.IsSet(KeyPlain) {
		c.Display.Plain = v.GetBool(KeyPlain)
	}
	if v.IsSet(KeyLogLevel) {
		c.Logging.Level = v.GetString(KeyLogLevel)
	}
	return c.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Store.File == "" {
		errs = append(errs, errors.New("store.file must not be empty"))
	}
	if c.Store.MaxRecords < 1 || c.Store.MaxRecords > MaxRecordsLimit {
		errs = append(errs, fmt.Errorf("store.max_records must be between 1 and %d, got %d", MaxRecordsLimit, c.Store.MaxRecords))
	}
	if c.Store.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("store.max_failures must be at least 1, got %d", c.Store.MaxFailures))
	}
	if c.Lock.ProbeTimeout.Duration < 0 || c.Lock.TransactTimeout.Duration < 0 {
		errs = append(errs, errors.New("lock timeouts must not be negative"))
	}
	if c.Lock.Tick.Duration <= 0 {
		errs = append(errs, fmt.Errorf("lock.tick must be positive, got %s", c.Lock.Tick))
	}
	if !logging.IsValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of %v, got %q", logging.ValidLevels(), c.Logging.Level))
	}
	return errors.Join(errs...)
}

// Dir returns the expanded data directory.
func (c *Config) Dir() string {
	return util.ExpandHome(c.Store.Dir)
}

// StorePath returns the absolute or Dir-relative score file path.
func (c *Config) StorePath() string {
	return util.ResolvePath(c.Store.Dir, c.Store.File)
}

// LogDir returns where the log file goes, or "" for stderr.
func (c *Config) LogDir() string {
	if !c.Logging.ToFile {
		return ""
	}
	return c.Dir()
}

// ProbeLock returns the lock options used to probe an untested file.
func (c *Config) ProbeLock(prompt string) lock.Options {
	return lock.Options{
		Timeout:     c.Lock.ProbeTimeout.Duration,
		Query:       c.Lock.Query,
		Prompt:      prompt,
		ResetBudget: c.Lock.ResetBudget,
		Tick:        c.Lock.Tick.Duration,
	}
}

// TransactLock returns the lock options used to save a score.
func (c *Config) TransactLock(prompt string) lock.Options {
	opts := c.ProbeLock(prompt)
	opts.Timeout = c.Lock.TransactTimeout.Duration
	return opts
}

// Write encodes c as TOML to path, creating parent directories. An existing
// file is only replaced when force is set.
func (c *Config) Write(path string, force bool) error {
	path = util.ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	return f.Close()
}
