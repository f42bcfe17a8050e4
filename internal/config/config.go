// Package config handles configuration loading from TOML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Config is the root configuration structure.
type Config struct {
	Sandbox SandboxConfig `toml:"sandbox"`
	Log     LogConfig     `toml:"log"`
	Audit   AuditConfig   `toml:"audit"`
	Run     RunConfig     `toml:"run"`
}

// SandboxConfig extends the built-in sandbox boundaries.
type SandboxConfig struct {
	// PrivilegedDir is always allowed, whatever the project root.
	// "~" is expanded. Defaults to "~/.claude".
	PrivilegedDir string `toml:"privileged_dir"`
	// TempRoots are added to /tmp and $TMPDIR.
	TempRoots []string `toml:"temp_roots"`
	// SafeDevices are added to the built-in device list.
	SafeDevices []string `toml:"safe_devices"`
}

// PrivilegedDirOrDefault returns the configured privileged dir or "~/.claude" if unset.
func (s SandboxConfig) PrivilegedDirOrDefault() string {
	if s.PrivilegedDir == "" {
		return "~/.claude"
	}
	return s.PrivilegedDir
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	// File receives the log. Defaults to pathguard.log in the data dir;
	// stdout is reserved for hook decisions.
	File string `toml:"file"`
}

// LevelOrDefault returns the configured level or "info" if unset.
func (l LogConfig) LevelOrDefault() string {
	if l.Level == "" {
		return "info"
	}
	return l.Level
}

// AuditConfig holds decision log settings.
type AuditConfig struct {
	// Enabled is a pointer so an absent key can default to true.
	Enabled       *bool  `toml:"enabled"`
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

// IsEnabled reports whether decisions should be recorded. Defaults to true.
func (a AuditConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// RetentionDaysOrDefault returns the configured retention or 30 days if unset.
func (a AuditConfig) RetentionDaysOrDefault() int {
	if a.RetentionDays <= 0 {
		return 30
	}
	return a.RetentionDays
}

// RunConfig holds settings for guarded execution.
type RunConfig struct {
	// BlockedCommands are refused by name before execution.
	BlockedCommands []string `toml:"blocked_commands"`
}

// Load reads configuration from a TOML file and applies environment variable
// overrides. A missing file is not an error: the hook has to work with no
// setup at all, so defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zerolog.ParseLevel(c.Log.LevelOrDefault()); err != nil {
		errs = append(errs, fmt.Errorf("log.level=%q is invalid: %v", c.Log.Level, err))
	}

	for i, root := range c.Sandbox.TempRoots {
		if !isAbsOrHome(root) {
			errs = append(errs, fmt.Errorf("sandbox.temp_roots[%d]=%q must be absolute or start with ~", i, root))
		}
	}

	if p := c.Sandbox.PrivilegedDir; p != "" && !isAbsOrHome(p) {
		errs = append(errs, fmt.Errorf("sandbox.privileged_dir=%q must be absolute or start with ~", p))
	}

	for i, dev := range c.Sandbox.SafeDevices {
		if !filepath.IsAbs(dev) {
			errs = append(errs, fmt.Errorf("sandbox.safe_devices[%d]=%q must be absolute", i, dev))
		}
	}

	for i, name := range c.Run.BlockedCommands {
		if name == "" || strings.ContainsAny(name, " \t/") {
			errs = append(errs, fmt.Errorf("run.blocked_commands[%d]=%q must be a bare command name", i, name))
		}
	}

	if c.Audit.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("audit.retention_days=%d must not be negative", c.Audit.RetentionDays))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func isAbsOrHome(p string) bool {
	return filepath.IsAbs(p) || p == "~" || strings.HasPrefix(p, "~/")
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"PATHGUARD_LOG_LEVEL", func(v string) {
			if v != "" {
				cfg.Log.Level = v
			}
		}},
		{"PATHGUARD_AUDIT", func(v string) {
			switch strings.ToLower(v) {
			case "0", "false", "off", "no":
				off := false
				cfg.Audit.Enabled = &off
			case "1", "true", "on", "yes":
				on := true
				cfg.Audit.Enabled = &on
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}

// DataDir returns the path to the pathguard data directory (~/.config/pathguard).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pathguard"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogFileOrDefault returns the configured log file or pathguard.log in the
// data dir.
func (c *Config) LogFileOrDefault() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pathguard.log"), nil
}

// AuditPathOrDefault returns the configured audit database or audit.db in
// the data dir.
func (c *Config) AuditPathOrDefault() (string, error) {
	if c.Audit.Path != "" {
		return c.Audit.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.db"), nil
}
