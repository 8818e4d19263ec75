package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Backend type constants.
const (
	BackendEventKit = "eventkit"
	BackendCalDAV   = "caldav"
	BackendSQLite   = "sqlite"
)

const envPrefix = "MCP_REMINDERS_"

type Config struct {
	Backend     string       `koanf:"backend"`
	LogLevel    string       `koanf:"log_level"`
	DefaultList string       `koanf:"default_list"`
	CalDAV      CalDAVConfig `koanf:"caldav"`
	SQLite      SQLiteConfig `koanf:"sqlite"`
}

type CalDAVConfig struct {
	URL      string `koanf:"url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Map the documented environment variables onto config keys. Keys with
	// an underscore in the leaf name can't round-trip through the provider
	// transform, so they are set explicitly.
	for envKey, confKey := range map[string]string{
		"MCP_REMINDERS_BACKEND":         "backend",
		"MCP_REMINDERS_LOG_LEVEL":       "log_level",
		"MCP_REMINDERS_DEFAULT_LIST":    "default_list",
		"MCP_REMINDERS_CALDAV_URL":      "caldav.url",
		"MCP_REMINDERS_CALDAV_USERNAME": "caldav.username",
		"MCP_REMINDERS_CALDAV_PASSWORD": "caldav.password",
		"MCP_REMINDERS_SQLITE_PATH":     "sqlite.path",
	} {
		if v := os.Getenv(envKey); v != "" {
			k.Set(confKey, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SQLite.Path = expandPath(cfg.SQLite.Path)

	return &cfg, nil
}

func (c *Config) Validate() error {
	// Backend-specific validation
	switch c.Backend {
	case BackendEventKit:
		// Nothing to configure; authorization happens on first use.
	case BackendCalDAV:
		if c.CalDAV.Username == "" || c.CalDAV.Password == "" {
			return fmt.Errorf("caldav backend requires caldav.username and caldav.password (use an app-specific password for iCloud)")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite backend requires sqlite.path")
		}
	default:
		return fmt.Errorf("unknown backend: %s (supported: %s, %s, %s)",
			c.Backend, BackendEventKit, BackendCalDAV, BackendSQLite)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	return nil
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
