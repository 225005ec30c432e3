// Package config loads the daemon's settings and policy rules from a
// toml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	LogLevel string `koanf:"log_level"`

	// MaxVisible caps the display queue. 0 means unlimited.
	MaxVisible int `koanf:"max_visible"`

	// DoNotDisturb starts the daemon with display suppressed.
	DoNotDisturb bool `koanf:"do_not_disturb"`

	Timeouts Timeouts `koanf:"timeouts"`
	History  History  `koanf:"history"`

	// Rules are matched in declaration order.
	Rules []Rule `koanf:"rule"`
}

// Timeouts holds per-urgency default expirations in milliseconds.
// 0 means never expire.
type Timeouts struct {
	Low      int `koanf:"low"`
	Normal   int `koanf:"normal"`
	Critical int `koanf:"critical"`
}

// History configures the closed-notification store.
type History struct {
	Enabled    bool `koanf:"enabled"`
	MaxEntries int  `koanf:"max_entries"`
}

// Rule is the toml shape of one policy rule. Match fields are globs
// (empty = any); override fields apply when the rule matches.
type Rule struct {
	// Match predicates
	AppName      string `koanf:"app_name"`
	Summary      string `koanf:"summary"`
	Body         string `koanf:"body"`
	MatchUrgency string `koanf:"match_urgency"`
	Category     string `koanf:"category"`

	// Overrides
	Urgency     string `koanf:"urgency"`
	Timeout     *int   `koanf:"timeout"` // ms; 0 = never; absent = untouched
	Suppress    bool   `koanf:"suppress"`
	StripMarkup bool   `koanf:"strip_markup"`
	Group       string `koanf:"group"`
	Stop        bool   `koanf:"stop"`
}

// Default returns the built-in configuration used when no file exists
// or the file cannot be parsed.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Timeouts: Timeouts{
			Low:      5000,
			Normal:   5000,
			Critical: 0, // critical notifications stay until dismissed
		},
		History: History{
			Enabled:    true,
			MaxEntries: 1000,
		},
	}
}

// Load reads the configuration. An explicit path must exist; otherwise
// the usual locations are tried in priority order and a missing file
// yields the defaults.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	paths := configPaths()
	if explicit != "" {
		paths = []string{expandPath(explicit)}
		if _, err := os.Stat(paths[0]); err != nil {
			return nil, fmt.Errorf("config file %s: %w", paths[0], err)
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// configPaths lists candidate config files, lowest priority first
// (later files override earlier ones).
func configPaths() []string {
	paths := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "dusty", "config.toml"))
	}
	paths = append(paths, "config.toml")
	return paths
}

func expandPath(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
