// Package config loads zillowkit settings from struct defaults, an optional
// YAML file and ZILLOW_ prefixed environment variables, in that order of
// precedence (later layers win).
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

// EnvPrefix is stripped from environment variables before they are mapped to keys.
const EnvPrefix = "ZILLOW_"

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// DefaultConfigFiles are searched in order when no explicit path is given.
var DefaultConfigFiles = []string{"zillowkit.yaml", "zillowkit.yml"}

// Config is the complete zillowkit configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig describes the remote source.
//
// For mysql the connection is assembled from User, Password, Host and Name.
// For sqlite3 Path is the database file (":memory:" works for tests).
type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	User     string `koanf:"user"`
	Host     string `koanf:"host"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	Path     string `koanf:"path"`
}

// CacheConfig holds the local cache locations.
type CacheConfig struct {
	RawPath      string `koanf:"raw_path"`
	PreparedPath string `koanf:"prepared_path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: DriverMySQL,
			Name:   "zillow",
		},
		Cache: CacheConfig{
			RawPath:      "zillow.csv",
			PreparedPath: "zillow_prepared.csv",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. An empty path searches DefaultConfigFiles in
// the working directory; a non-empty path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, "config: loading defaults")
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config: loading %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "config: loading environment")
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be used. Connection fields are
// only checked by DatabaseConfig.Validate, when a connection is opened, so
// commands working purely on cache files need no credentials.
func (c *Config) Validate() error {
	if c.Database.Driver != DriverMySQL && c.Database.Driver != DriverSQLite {
		return errors.NewValidationError("database.driver", "must be mysql or sqlite3", c.Database.Driver)
	}

	if c.Cache.RawPath == "" {
		return errors.NewValidationError("cache.raw_path", "must not be empty", c.Cache.RawPath)
	}
	if c.Cache.PreparedPath == "" || c.Cache.PreparedPath == c.Cache.RawPath {
		return errors.NewValidationError("cache.prepared_path", "must differ from cache.raw_path", c.Cache.PreparedPath)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidationError("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	return nil
}

// Validate checks the fields the configured driver needs.
func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverMySQL:
		if d.Host == "" {
			return errors.NewValidationError("database.host", "required for mysql", d.Host)
		}
		if d.User == "" {
			return errors.NewValidationError("database.user", "required for mysql", d.User)
		}
		if d.Name == "" {
			return errors.NewValidationError("database.name", "required for mysql", d.Name)
		}
	case DriverSQLite:
		if d.Path == "" {
			return errors.NewValidationError("database.path", "required for sqlite3", d.Path)
		}
	default:
		return errors.NewValidationError("database.driver", "must be mysql or sqlite3", d.Driver)
	}
	return nil
}

func findConfigFile() string {
	for _, p := range DefaultConfigFiles {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps ZILLOW_DATABASE_HOST to database.host and
// ZILLOW_CACHE_RAW_PATH to cache.raw_path. Only the first underscore after
// the prefix separates the section.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return ""
	}
	return section + "." + rest
}
