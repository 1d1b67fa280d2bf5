// Package config layers the application configuration from defaults, an
// optional YAML file, MEMOLINE_ environment variables, and command-line
// flags, in increasing order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "MEMOLINE_"

// Config holds everything the process needs to run.
type Config struct {
	DB       string   `koanf:"db" validate:"required"`
	Addr     string   `koanf:"addr" validate:"required"`
	ReposDir string   `koanf:"repos_dir" validate:"required"`
	Sources  []string `koanf:"sources"`
	LogLevel string   `koanf:"log_level" validate:"oneof=debug info warn error"`

	// ImportOnly runs the source import once and exits without serving.
	ImportOnly bool `koanf:"import_only"`
}

// Flags defines the command-line flags backing the config keys. The
// returned set must be parsed before Load is called with it.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("memoline", pflag.ContinueOnError)
	f.String("config", "", "path to a YAML config file")
	f.String("db", "memoline.db", "path to the sqlite database file")
	f.String("addr", "127.0.0.1:8484", "address to serve on")
	f.String("repos_dir", "repos", "checkout directory for git text sources")
	f.StringSlice("sources", nil, "text sources to import (local dirs or git URLs)")
	f.String("log_level", "info", "log level (debug, info, warn, error)")
	f.Bool("import_only", false, "import sources once and exit")
	return f
}

// Load assembles the configuration: flag defaults, then the YAML file
// named by --config (if any), then environment, then explicitly set flags.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	// Passing k lets the provider skip defaults for keys already set by
	// the file or environment; changed flags still win.
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps the configured log level onto slog's levels.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
