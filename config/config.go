// Package config loads server configuration from a TOML file with defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Notifier NotifierConfig `toml:"notifier"`
}

type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// NotifierConfig controls the subscription expiry sweep. Thresholds are
// per-metric descending schedules; a notification fires once per crossed
// threshold per subscription.
type NotifierConfig struct {
	Enabled       bool      `toml:"enabled"`
	SweepInterval string    `toml:"sweep_interval"`
	ExpiryDays    []int     `toml:"expiry_days"`
	EntriesLeft   []int     `toml:"entries_left"`
	RoomHoursLeft []float64 `toml:"room_hours_left"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: DatabaseConfig{
			Path: "neu.db",
		},
		Notifier: NotifierConfig{
			Enabled:       true,
			SweepInterval: "12h",
			ExpiryDays:    []int{30, 14, 7, 3, 1},
			EntriesLeft:   []int{10, 5, 2, 1},
			RoomHoursLeft: []float64{10, 5, 2, 1},
		},
	}
}

// Load reads the config file at path, overlaying it on the defaults.
// A missing file is not an error: defaults apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SweepInterval parses the notifier interval, falling back to 12 hours.
func (n NotifierConfig) Interval() time.Duration {
	d, err := time.ParseDuration(n.SweepInterval)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
