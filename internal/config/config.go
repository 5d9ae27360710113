// Package config handles evfabric configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultSearchPaths returns the config file search order. An explicit
// path (the CLI's positional argument) is checked first. Then:
// ./config.toml, ~/.config/evfabric/config.toml, /config/config.toml,
// /etc/evfabric/config.toml.
func DefaultSearchPaths() []string {
	paths := []string{"config.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "evfabric", "config.toml"))
	}

	paths = append(paths, "/config/config.toml") // Container convention
	paths = append(paths, "/etc/evfabric/config.toml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches DefaultSearchPaths and returns the first
// that exists. Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// BridgeConfig holds the top-level settings that start a fabricd process,
// per spec.md §6's bridge configuration block.
type BridgeConfig struct {
	DispatcherBuffer int      `toml:"dispatcher_buffer"`
	ChannelsSize     int      `toml:"channels_size"`
	ConfigsPath      string   `toml:"configs_path"`
	Sockets          []string `toml:"sockets"`
	WatchConfigs     bool     `toml:"watch_configs"`
	MetricsAddress   string   `toml:"metrics_address"`
}

// Load reads configuration from a TOML file, applies defaults for any
// unset fields, and validates the result. After Load returns
// successfully, all fields are usable without additional zero-value
// checks.
func Load(path string) (*BridgeConfig, error) {
	cfg := &BridgeConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate %s: %w", path, err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults. Called
// automatically by Load. After this, callers can read any field without
// checking for a zero value.
func (c *BridgeConfig) applyDefaults() {
	if c.DispatcherBuffer == 0 {
		c.DispatcherBuffer = 256
	}
	if c.ChannelsSize == 0 {
		c.ChannelsSize = 64
	}
	if c.ConfigsPath == "" {
		c.ConfigsPath = "./fabric.d"
	}
}

// Validate checks that the configuration is internally consistent. It
// runs after applyDefaults, so it can assume defaults are populated.
// Returns an error describing the first problem found, or nil.
func (c *BridgeConfig) Validate() error {
	if c.DispatcherBuffer < 1 {
		return fmt.Errorf("dispatcher_buffer %d must be at least 1", c.DispatcherBuffer)
	}
	if c.ChannelsSize < 1 {
		return fmt.Errorf("channels_size %d must be at least 1", c.ChannelsSize)
	}
	if len(c.Sockets) == 0 {
		return fmt.Errorf("sockets must list at least one bridge listener address")
	}
	return nil
}

// Default returns a default configuration suitable for local development:
// one bridge socket on loopback, config units read from ./fabric.d, all
// defaults already applied.
func Default() *BridgeConfig {
	cfg := &BridgeConfig{
		Sockets: []string{"127.0.0.1:9000"},
	}
	cfg.applyDefaults()
	return cfg
}
