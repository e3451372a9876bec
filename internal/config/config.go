// Package config handles loading taskboard.toml configuration files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/filter"
	"github.com/amonks/taskboard/internal/paths"
	"github.com/amonks/taskboard/internal/prefs"
	"github.com/amonks/taskboard/internal/validation"
)

// ProjectFile is the name of the per-directory config file.
const ProjectFile = "taskboard.toml"

// EnvAPIURL overrides api.url.
const EnvAPIURL = "TASKBOARD_API_URL"

// ErrInvalidLogLevel indicates an unrecognized log.level.
var ErrInvalidLogLevel = errors.New("invalid log level")

// Config represents the taskboard.toml configuration file.
type Config struct {
	API    API    `toml:"api"`
	Prefs  Prefs  `toml:"prefs"`
	Log    Log    `toml:"log"`
	Filter Filter `toml:"filter"`
}

// API configures the server connection.
type API struct {
	// URL is the server base address.
	URL string `toml:"url"`
}

// Prefs configures where client-side state is kept.
type Prefs struct {
	// Backend is "file" or "sqlite".
	Backend string `toml:"backend"`
	// Path overrides the state directory.
	Path string `toml:"path"`
}

// Log configures logging.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// Filter configures the task filter bar.
type Filter struct {
	QuietPeriod Duration `toml:"quiet-period"`
}

// Duration decodes TOML strings such as "750ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Options controls where Load looks.
type Options struct {
	// GlobalPath replaces ~/.config/taskboard/config.toml when set.
	GlobalPath string

	// Getenv reads the environment. Nil means os.Getenv.
	Getenv func(string) string
}

// Load reads the global config and dir/taskboard.toml, then applies
// dir/.env and the environment. Missing files are not an error.
func Load(dir string, opts Options) (*Config, error) {
	globalPath, err := paths.ResolveWithDefault(opts.GlobalPath, paths.DefaultConfigPath)
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(dir, ProjectFile))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)

	if err := loadDotEnv(dir); err != nil {
		return nil, err
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if url := strings.TrimSpace(getenv(EnvAPIURL)); url != "" {
		merged.API.URL = url
	}

	return merged, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, meta, nil
}

// loadDotEnv exports dir/.env without overriding variables already set.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.API.URL = mergeString(projectMeta.IsDefined("api", "url"), projectCfg.API.URL, globalCfg.API.URL)
	merged.Prefs.Backend = mergeString(projectMeta.IsDefined("prefs", "backend"), projectCfg.Prefs.Backend, globalCfg.Prefs.Backend)
	merged.Prefs.Path = mergeString(projectMeta.IsDefined("prefs", "path"), projectCfg.Prefs.Path, globalCfg.Prefs.Path)
	merged.Log.Level = mergeString(projectMeta.IsDefined("log", "level"), projectCfg.Log.Level, globalCfg.Log.Level)
	if projectMeta.IsDefined("filter", "quiet-period") {
		merged.Filter.QuietPeriod = projectCfg.Filter.QuietPeriod
	} else if globalMeta.IsDefined("filter", "quiet-period") {
		merged.Filter.QuietPeriod = globalCfg.Filter.QuietPeriod
	}

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

// APIURL returns the configured server address or the default.
func (c *Config) APIURL() string {
	if c.API.URL == "" {
		return api.DefaultBaseURL
	}
	return c.API.URL
}

// PrefsOptions returns the prefs store options, resolving the default
// state directory.
func (c *Config) PrefsOptions() (prefs.Options, error) {
	backend := prefs.Backend(c.Prefs.Backend)
	if backend == "" {
		backend = prefs.BackendFile
	}
	dir, err := paths.ResolveWithDefault(c.Prefs.Path, paths.DefaultStateDir)
	if err != nil {
		return prefs.Options{}, err
	}
	return prefs.Options{Backend: backend, Dir: dir}, nil
}

// LogLevel parses log.level. The default is warn.
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Log.Level == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, validation.FormatInvalidValueError(ErrInvalidLogLevel, c.Log.Level, []string{"debug", "info", "warn", "error"})
	}
	return level, nil
}

// QuietPeriod returns filter.quiet-period, defaulting to the standard
// debounce delay.
func (c *Config) QuietPeriod() time.Duration {
	if c.Filter.QuietPeriod.Duration <= 0 {
		return filter.QuietPeriod
	}
	return c.Filter.QuietPeriod.Duration
}
