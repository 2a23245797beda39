// Package config loads velopane's TOML configuration file.
//
// The file lives at ~/.config/velopane/config.toml (or under
// $XDG_CONFIG_HOME) and holds deployment defaults the CLI and server would
// otherwise need flags for on every call. All values are optional; a missing
// file yields the built-in defaults. The plotting core never reads this —
// resolved values are injected through its options.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// appName is the directory name used under the config root.
const appName = "velopane"

// Config is the full configuration file layout.
type Config struct {
	Plot   Plot   `toml:"plot"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
}

// Plot holds default plot options.
type Plot struct {
	// Basis is the default embedding key (e.g. "umap").
	Basis string `toml:"basis"`

	// VKey is the default velocity layer.
	VKey string `toml:"vkey"`

	// VelocityColorMap and ExpressionColorMap form the default paired map.
	VelocityColorMap   string `toml:"velocity_color_map"`
	ExpressionColorMap string `toml:"expression_color_map"`

	// DPI is the default figure resolution.
	DPI float64 `toml:"dpi"`
}

// Cache selects and configures the artifact cache backend.
type Cache struct {
	// Backend is "file" (default), "redis", or "off".
	Backend string `toml:"backend"`

	// RedisAddr is the Redis address for the redis backend.
	RedisAddr string `toml:"redis_addr"`

	// RedisDB is the Redis database number.
	RedisDB int `toml:"redis_db"`
}

// Server configures the HTTP API.
type Server struct {
	// Addr is the listen address, default ":8487".
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Plot: Plot{
			VKey:               "velocity",
			VelocityColorMap:   "RdYlGn",
			ExpressionColorMap: "gnuplot_r",
			DPI:                80,
		},
		Cache:  Cache{Backend: "file"},
		Server: Server{Addr: ":8487"},
	}
}

// Load reads the configuration file at path, or the default location when
// path is empty. A missing file is not an error; built-in defaults are
// returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// configDir returns the configuration directory using the XDG standard.
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
