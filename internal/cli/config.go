package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile = "file"
	CacheBackendNone = "none"
)

// Config is the optional TOML configuration loaded from
// ~/.config/orbweave/config.toml. All fields have working defaults, so
// the file only needs to exist when overriding something.
//
// Example:
//
//	[server]
//	addr = ":9090"
//
//	[cache]
//	backend = "file"
//	dir = "/var/cache/orbweave"
//
//	[redis]
//	addr = "localhost:6379"
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Redis  RedisConfig  `toml:"redis"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `toml:"addr"`
}

// CacheConfig configures the arrangement cache.
type CacheConfig struct {
	// Backend is "file" or "none". The serve command upgrades to redis
	// when a redis address is configured.
	Backend string `toml:"backend"`

	// Dir overrides the file backend's directory.
	Dir string `toml:"dir"`
}

// RedisConfig configures the optional shared cache for serve.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Cache:  CacheConfig{Backend: CacheBackendFile},
	}
}

// LoadConfig reads the config file from the standard location, falling
// back to defaults if it is missing or unreadable. A malformed file is
// ignored rather than fatal; commands report the effective settings at
// debug level.
func LoadConfig() Config {
	cfg := DefaultConfig()
	path, err := configPath()
	if err != nil {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = toml.Unmarshal(data, &cfg)
	return cfg
}

// LoadConfigFile reads a specific config file. Unlike LoadConfig, read
// and parse errors are returned.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// configPath returns the config file location using the XDG standard
// (~/.config/orbweave/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
