package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DatabasePath string         `toml:"database_path"`
	Log          LogConfig      `toml:"log"`
	Server       ServerConfig   `toml:"server"`
	Cache        CacheConfig    `toml:"cache"`
	Schedule     ScheduleConfig `toml:"schedule"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CacheConfig selects the company snapshot cache. An empty RedisAddr keeps
// the cache in memory.
type CacheConfig struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	TTL           string `toml:"ttl"`
}

type ScheduleConfig struct {
	HistoryCount  int `toml:"history_count"`
	UpcomingCount int `toml:"upcoming_count"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Cache: CacheConfig{
			TTL: "5m",
		},
		Schedule: ScheduleConfig{
			HistoryCount:  5,
			UpcomingCount: 5,
		},
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CacheTTL parses the configured TTL. Zero means entries never expire.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache ttl %q: %w", c.Cache.TTL, err)
	}
	return ttl, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Schedule.HistoryCount < 0 || c.Schedule.UpcomingCount < 0 {
		return errors.New("schedule counts must not be negative")
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	return nil
}

func TouchbaseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".touchbase"), nil
}

func ConfigPath() (string, error) {
	dir, err := TouchbaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath is the default SQLite location, used when the config file
// leaves database_path empty.
func DatabasePath() (string, error) {
	dir, err := TouchbaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "db", "touchbase.sqlite"), nil
}

func LogPath() (string, error) {
	dir, err := TouchbaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "touchbase.log"), nil
}

func EnsureDirectories() error {
	dir, err := TouchbaseDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, "db"), 0755); err != nil {
		return err
	}

	return nil
}

// ResolvedDatabasePath returns the configured database path, or the default
// one under ~/.touchbase.
func (c *Config) ResolvedDatabasePath() (string, error) {
	if c.DatabasePath != "" {
		return c.DatabasePath, nil
	}
	return DatabasePath()
}

func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	// First run writes the defaults so there is a file to edit
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := EnsureDirectories(); err != nil {
			return nil, err
		}
		if err := Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
	}

	cfg.DatabasePath = expandPath(cfg.DatabasePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
