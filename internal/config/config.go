// Package config loads planner configuration from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultConfigPath is the checked-in copy of DefaultConfig.
const DefaultConfigPath = "config/zoneplan.defaults.json"

// BackgroundColor as a substitution target means "the snapshot's background".
const BackgroundColor = -1

// Config is the root planner configuration.
type Config struct {
	ZoneSize int `json:"zone_size"`
	// Background overrides the snapshot's background colour when set.
	Background             *int `json:"background,omitempty"`
	SafetyMargin           int  `json:"safety_margin"`
	MinRotatorInteractions int  `json:"min_rotator_interactions"`

	Match         MatchConfig    `json:"match"`
	Roles         RolesConfig    `json:"roles"`
	Substitutions []Substitution `json:"substitutions"`
	Dispatch      DispatchConfig `json:"dispatch"`
	Log           LogConfig      `json:"log"`
}

// MatchConfig mirrors match.Options.
type MatchConfig struct {
	RotationInvariant bool   `json:"rotation_invariant"`
	ColorInvariant    bool   `json:"color_invariant"`
	Mode              string `json:"mode"`        // "corners" or "cells"
	Placeholder       int    `json:"placeholder"` // -1 disables
}

// RolesConfig holds one boolean expression per object role. Expressions see
// the object's colors, color, width, height, x and y.
type RolesConfig struct {
	Agent        string `json:"agent"`
	Goal         string `json:"goal"`
	Key          string `json:"key"`
	Chooser      string `json:"chooser"`
	Rotator      string `json:"rotator"`
	Corrector    string `json:"corrector"`
	Refill       string `json:"refill"`
	Ignore       string `json:"ignore"`
	BudgetMarker string `json:"budget_marker"`
}

// Substitution replaces a colour in expected patterns. To may be BackgroundColor.
type Substitution struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// DispatchConfig controls how accepted plans are sent.
type DispatchConfig struct {
	BaseURL     string `json:"base_url"`
	ActionStyle string `json:"action_style"` // "token" or "numbered"
	Timeout     string `json:"timeout"`      // duration string like "5s"
	AutoApprove bool   `json:"auto_approve"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `json:"level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ZoneSize:               8,
		SafetyMargin:           2,
		MinRotatorInteractions: 1,
		Match: MatchConfig{
			RotationInvariant: true,
			Mode:              "cells",
			Placeholder:       -1,
		},
		Roles: RolesConfig{
			Agent:        "12 in colors",
			Goal:         "5 in colors",
			Key:          "width == 9 && height == 9",
			Chooser:      "width == 6 && height == 6",
			Rotator:      "14 in colors",
			Corrector:    "7 in colors",
			Refill:       "11 in colors",
			Ignore:       "height == 1 || color in [8, 15]",
			BudgetMarker: "15 in colors",
		},
		Substitutions: []Substitution{{From: 5, To: BackgroundColor}},
		Dispatch: DispatchConfig{
			BaseURL:     "http://localhost:8001",
			ActionStyle: "token",
			Timeout:     "5s",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a Config from a JSON file.
// Fields omitted from the file keep their DefaultConfig values.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.ZoneSize <= 0 {
		return fmt.Errorf("zone_size must be positive, got %d", c.ZoneSize)
	}
	if c.Background != nil && !validColor(*c.Background) {
		return fmt.Errorf("background must be a palette colour, got %d", *c.Background)
	}
	if c.SafetyMargin < 0 {
		return fmt.Errorf("safety_margin must be non-negative, got %d", c.SafetyMargin)
	}
	if c.MinRotatorInteractions < 0 {
		return fmt.Errorf("min_rotator_interactions must be non-negative, got %d", c.MinRotatorInteractions)
	}

	switch c.Match.Mode {
	case "corners", "cells":
	default:
		return fmt.Errorf("match.mode must be corners or cells, got %q", c.Match.Mode)
	}
	if c.Match.Placeholder != -1 && !validColor(c.Match.Placeholder) {
		return fmt.Errorf("match.placeholder must be -1 or a palette colour, got %d", c.Match.Placeholder)
	}

	for name, expr := range map[string]string{
		"agent": c.Roles.Agent,
		"goal":  c.Roles.Goal,
	} {
		if strings.TrimSpace(expr) == "" {
			return fmt.Errorf("roles.%s must be set", name)
		}
	}

	for i, s := range c.Substitutions {
		if !validColor(s.From) {
			return fmt.Errorf("substitutions[%d].from must be a palette colour, got %d", i, s.From)
		}
		if s.To != BackgroundColor && !validColor(s.To) {
			return fmt.Errorf("substitutions[%d].to must be -1 or a palette colour, got %d", i, s.To)
		}
	}

	switch c.Dispatch.ActionStyle {
	case "token", "numbered":
	default:
		return fmt.Errorf("dispatch.action_style must be token or numbered, got %q", c.Dispatch.ActionStyle)
	}
	if c.Dispatch.Timeout != "" {
		if _, err := time.ParseDuration(c.Dispatch.Timeout); err != nil {
			return fmt.Errorf("invalid dispatch.timeout '%s': %w", c.Dispatch.Timeout, err)
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// DispatchTimeout returns the parsed dispatch timeout, zero when unset.
func (c *Config) DispatchTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Dispatch.Timeout)
	return d
}

// ParseLevel maps debug|info|warn|error to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

func validColor(c int) bool { return c >= 0 && c < 16 }
