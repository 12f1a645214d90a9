// Package config loads fetchview settings from a YAML file and environment
// variables.
//
// Precedence, lowest to highest: built-in defaults, the config file
// (~/.fetchview/config.yaml or --config), the project overlay
// (.fetchview/config.yaml in the nearest project directory),
// FETCHVIEW_* environment variables, then CLI flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/fetchview/internal/logging"
)

// Environment variable names.
const (
	EnvHome      = "FETCHVIEW_HOME"
	EnvLogLevel  = "FETCHVIEW_LOG_LEVEL"
	EnvLogFormat = "FETCHVIEW_LOG_FORMAT"
	EnvLogFile   = "FETCHVIEW_LOG_FILE"
	EnvDelay     = "FETCHVIEW_DELAY"
	EnvFailEvery = "FETCHVIEW_FAIL_EVERY"
	EnvFailFirst = "FETCHVIEW_FAIL_FIRST"
	EnvItems     = "FETCHVIEW_ITEMS"
)

// Defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = logging.FormatConsole
	DefaultDelay     = 800 * time.Millisecond
	DefaultItems     = 5
	configFileName   = "config.yaml"
	configDirName    = ".fetchview"
)

// Validation errors.
var (
	ErrNegativeDelay   = errors.New("delay must not be negative")
	ErrNegativeCount   = errors.New("fail counts and items must not be negative")
	ErrInvalidFormat   = errors.New("log format must be console or json")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config is the root configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Source  SourceConfig  `yaml:"source"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// SourceConfig controls the simulated source used by the preview commands.
type SourceConfig struct {
	Delay     time.Duration `yaml:"delay"`
	Items     int           `yaml:"items"`
	FailFirst int           `yaml:"fail_first"`
	FailEvery int           `yaml:"fail_every"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Source: SourceConfig{
			Delay: DefaultDelay,
			Items: DefaultItems,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path and the process
// environment. An empty path means the default location; a missing file at
// the default location is not an error, but a missing explicit path is.
func Load(path string) (*Config, error) {
	return LoadWithProject(path, "")
}

// LoadWithProject is Load with a project-local overlay: when projectDir
// holds a config.yaml, its sections replace the global file's before
// environment overrides apply. An empty projectDir skips the overlay.
func LoadWithProject(path, projectDir string) (*Config, error) {
	cfg := New()

	explicit := path != ""
	if !explicit {
		dir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, configFileName)
	}

	// A missing file at the default location means defaults apply.
	if err := cfg.mergeFile(path); err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return nil, err
	}

	if projectDir != "" {
		overlay := filepath.Join(projectDir, configFileName)
		if err := ShallowMergeYAML(cfg, overlay); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile unmarshals the YAML file onto cfg. Keys absent from the file keep
// their current values.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.Logging.File = v
	}
	if v, ok := lookup(EnvDelay); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDelay, err)
		}
		c.Source.Delay = d
	}

	ints := []struct {
		env    string
		target *int
	}{
		{EnvFailEvery, &c.Source.FailEvery},
		{EnvFailFirst, &c.Source.FailFirst},
		{EnvItems, &c.Source.Items},
	}
	for _, i := range ints {
		v, ok := lookup(i.env)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.env, err)
		}
		*i.target = n
	}
	return nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Source.Delay < 0 {
		return fmt.Errorf("%w: got %s", ErrNegativeDelay, c.Source.Delay)
	}
	if c.Source.FailEvery < 0 || c.Source.FailFirst < 0 || c.Source.Items < 0 {
		return ErrNegativeCount
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, c.Logging.Format)
	}
	if !validLogLevel(c.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return true
	default:
		return false
	}
}

// GetConfigDir returns the fetchview configuration directory, honoring FETCHVIEW_HOME.
func GetConfigDir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, configDirName), nil
}

// ToLoggingConfig converts the logging section for the logging package.
// A configured file switches output to that file; otherwise logs go to stderr.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}
	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}
