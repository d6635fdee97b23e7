// Package config loads the settings of a backend from defaults, an
// optional TOML file, and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"deedles.dev/wlbackend/backend"
	"deedles.dev/wlbackend/cursor"
	"deedles.dev/wlbackend/internal/logging"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const Name = "wlbackend"

type Config struct {
	// Display is the display socket to connect to. If empty,
	// $WAYLAND_DISPLAY is used.
	Display string `mapstructure:"display"`

	CursorTheme string `mapstructure:"cursor_theme"`
	CursorSize  int    `mapstructure:"cursor_size"`

	// LogLevel is one of debug, info, warn, error or fatal.
	LogLevel string `mapstructure:"log_level"`

	// PoolSize and MaxPoolSize bound the shared memory used for cursor
	// images, in bytes.
	PoolSize    int `mapstructure:"pool_size"`
	MaxPoolSize int `mapstructure:"max_pool_size"`

	// LegacyCursors enables tracking of X11 cursor font glyphs through
	// the cursor theme.
	LegacyCursors bool `mapstructure:"legacy_cursors"`

	Title string `mapstructure:"title"`
	Class string `mapstructure:"class"`
}

// Default is the configuration used when nothing overrides it.
var Default = Config{
	CursorTheme: cursor.DefaultThemeName,
	CursorSize:  cursor.DefaultSize,
	LogLevel:    "info",
	PoolSize:    backend.DefaultPoolSize,
	MaxPoolSize: backend.DefaultMaxPoolSize,
	Class:       Name,
}

var envBindings = map[string]string{
	"display":      "WAYLAND_DISPLAY",
	"cursor_theme": "XCURSOR_THEME",
	"cursor_size":  "XCURSOR_SIZE",
	"log_level":    "LOG_LEVEL",
}

// NewViper returns a viper instance with the defaults and environment
// bindings set up. Flags may be bound to it before calling Read.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(Name)
	v.SetConfigType("toml")

	v.SetDefault("display", Default.Display)
	v.SetDefault("cursor_theme", Default.CursorTheme)
	v.SetDefault("cursor_size", Default.CursorSize)
	v.SetDefault("log_level", Default.LogLevel)
	v.SetDefault("pool_size", Default.PoolSize)
	v.SetDefault("max_pool_size", Default.MaxPoolSize)
	v.SetDefault("legacy_cursors", Default.LegacyCursors)
	v.SetDefault("title", Default.Title)
	v.SetDefault("class", Default.Class)

	for key, env := range envBindings {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, env)
	}

	return v
}

// SearchPaths returns the directories that are searched for a config
// file, most important first.
func SearchPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, Name))
	}
	return append(paths, "/etc/"+Name, ".")
}

// Read reads the config file at path, or searches for one if path is
// empty, and returns the merged configuration. A missing file is only
// an error if path was given explicitly.
func Read(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		for _, dir := range SearchPaths() {
			v.AddConfigPath(dir)
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if (path != "") || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	err = v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	err = c.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

// Load is Read with a fresh viper instance.
func Load(path string) (*Config, error) {
	return Read(NewViper(), path)
}

// Validate checks for values that can't work.
func (c *Config) Validate() error {
	var errs []error
	if c.CursorSize < 0 {
		errs = append(errs, fmt.Errorf("cursor_size must not be negative, got %v", c.CursorSize))
	}
	if c.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("pool_size must not be negative, got %v", c.PoolSize))
	}
	if (c.MaxPoolSize > 0) && (c.MaxPoolSize < c.PoolSize) {
		errs = append(errs, fmt.Errorf("max_pool_size %v is smaller than pool_size %v", c.MaxPoolSize, c.PoolSize))
	}
	return errors.Join(errs...)
}

// Logger returns a logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *log.Logger {
	logger := logging.New(w)
	if (c.LogLevel != "") && !logging.WireDebug() {
		logger.SetLevel(logging.Level(c.LogLevel))
	}
	return logger
}

// BackendOptions converts the configuration into options for a
// backend.
func (c *Config) BackendOptions(logger *log.Logger) backend.Options {
	return backend.Options{
		Socket:        c.Display,
		CursorTheme:   c.CursorTheme,
		CursorSize:    c.CursorSize,
		PoolSize:      c.PoolSize,
		MaxPoolSize:   c.MaxPoolSize,
		LegacyCursors: c.LegacyCursors,
		Title:         c.Title,
		Class:         c.Class,
		Logger:        logger,
	}
}
