package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/zonetile/internal/layout"
)

// ValidationError names the config field that failed validation.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

// UserLayout is a layout definition from the config file, keyed by id in
// the layouts map.
type UserLayout struct {
	Name  string        `yaml:"name"`
	Zones []layout.Zone `yaml:"zones"`
}

// LoggingConfig configures the state-action log.
type LoggingConfig struct {
	// Enabled turns action logging on/off
	Enabled bool `yaml:"enabled,omitempty"`
	// Level controls verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is the log file path (default: ~/.local/share/zonetile/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	CycleZoneHotkey        string                `yaml:"cycle_zone_hotkey"`
	CycleZoneReverseHotkey string                `yaml:"cycle_zone_reverse_hotkey"`
	DefaultLayout          string                `yaml:"default_layout"`
	Layouts                map[string]UserLayout `yaml:"layouts,omitempty"`
	SweepIntervalSeconds   int                   `yaml:"sweep_interval_seconds"`
	LogLevel               string                `yaml:"log_level"`
	Logging                LoggingConfig         `yaml:"logging,omitempty"`
}

// DefaultConfig returns the effective defaults used when no config file
// exists.
func DefaultConfig() *Config {
	return &Config{
		CycleZoneHotkey:        "Mod4-Mod1-n",
		CycleZoneReverseHotkey: "Mod4-Mod1-p",
		DefaultLayout:          layout.DefaultTemplateID,
		Layouts:                map[string]UserLayout{},
		SweepIntervalSeconds:   30,
		LogLevel:               "info",
	}
}

// DefaultConfigPath returns ~/.config/zonetile/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "zonetile", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing
// file yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the configuration at path.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	if err := decodeStrictYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Layouts == nil {
		cfg.Layouts = map[string]UserLayout{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// UserLayouts converts the config-defined layouts into catalog entries.
// They are editable and not templates; an entry reusing a template id
// shadows it.
func (c *Config) UserLayouts() []layout.Layout {
	out := make([]layout.Layout, 0, len(c.Layouts))
	for id, ul := range c.Layouts {
		name := ul.Name
		if name == "" {
			name = id
		}
		out = append(out, layout.Layout{
			ID:       id,
			Name:     name,
			Zones:    layout.CloneZones(ul.Zones),
			Editable: true,
		})
	}
	return out
}

// GetLoggingConfig returns the logging configuration with defaults
// applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{}
	}
	cfg := c.Logging
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/zonetile/actions.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.CycleZoneHotkey == "" {
		return &ValidationError{Path: "cycle_zone_hotkey", Err: fmt.Errorf("cycle_zone_hotkey is required")}
	}
	if c.SweepIntervalSeconds < 0 {
		return &ValidationError{Path: "sweep_interval_seconds", Err: fmt.Errorf("sweep_interval_seconds must be >= 0")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warn" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.DefaultLayout == "" {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout is required")}
	}

	for id, ul := range c.Layouts {
		l := layout.Layout{ID: id, Name: ul.Name, Zones: ul.Zones, Editable: true}
		if l.Name == "" {
			l.Name = id
		}
		if err := layout.Validate(l); err != nil {
			return &ValidationError{Path: "layouts." + id, Err: err}
		}
	}
	return nil
}
