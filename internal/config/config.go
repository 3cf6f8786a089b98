// Package config provides configuration types and defaults for intreg.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/intreg/internal/log"
	"github.com/zjrosen/intreg/internal/registry/domain"
	"github.com/zjrosen/intreg/internal/tracing"
)

// Config holds all configuration options for intreg.
type Config struct {
	DBPath     string           `mapstructure:"db_path"`
	Owner      string           `mapstructure:"owner"`  // administrator address
	Caller     string           `mapstructure:"caller"` // identity used for mutations when --caller is not given
	Controller ControllerConfig `mapstructure:"controller"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    tracing.Config   `mapstructure:"tracing"`
}

// ControllerConfig selects the module authority.
// Either Modules or WhitelistFile is used, never both.
type ControllerConfig struct {
	Modules       []string `mapstructure:"modules"`
	WhitelistFile string   `mapstructure:"whitelist_file"`
	Watch         bool     `mapstructure:"watch"` // reload WhitelistFile on change
}

// CacheConfig controls the lookup cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// DefaultDBPath returns ~/.config/intreg/registry.db, or a path relative to
// the working directory if the home directory cannot be resolved.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".intreg", "registry.db")
	}
	return filepath.Join(home, ".config", "intreg", "registry.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DBPath: DefaultDBPath(),
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Log: LogConfig{
			Path:  "debug.log",
			Level: "debug",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// OwnerAddress parses Owner. An empty owner yields the zero address, which
// admits nobody.
func (c Config) OwnerAddress() (domain.Address, error) {
	if c.Owner == "" {
		return domain.ZeroAddress, nil
	}
	addr, err := domain.ParseAddress(c.Owner)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("owner: %w", err)
	}
	return addr, nil
}

// ModuleAddresses parses Controller.Modules.
func (c Config) ModuleAddresses() ([]domain.Address, error) {
	modules := make([]domain.Address, 0, len(c.Controller.Modules))
	for i, s := range c.Controller.Modules {
		addr, err := domain.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("controller.modules[%d]: %w", i, err)
		}
		modules = append(modules, addr)
	}
	return modules, nil
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if _, err := cfg.OwnerAddress(); err != nil {
		return err
	}
	if cfg.Caller != "" {
		if _, err := domain.ParseAddress(cfg.Caller); err != nil {
			return fmt.Errorf("caller: %w", err)
		}
	}
	if err := ValidateController(cfg.Controller); err != nil {
		return err
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", cfg.Cache.TTL)
	}
	if err := ValidateLog(cfg.Log); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateController checks controller configuration for errors.
func ValidateController(ctrl ControllerConfig) error {
	if len(ctrl.Modules) > 0 && ctrl.WhitelistFile != "" {
		return fmt.Errorf("controller.modules and controller.whitelist_file are mutually exclusive")
	}
	if ctrl.Watch && ctrl.WhitelistFile == "" {
		return fmt.Errorf("controller.watch requires controller.whitelist_file")
	}
	for i, s := range ctrl.Modules {
		if _, err := domain.ParseAddress(s); err != nil {
			return fmt.Errorf("controller.modules[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateLog checks log configuration for errors.
func ValidateLog(l LogConfig) error {
	switch l.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", l.Level)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case "none", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# intreg configuration

# Path to the registry database (default: ~/.config/intreg/registry.db)
# db_path: /var/lib/intreg/registry.db

# Administrator address. Only this identity may add, edit or remove bindings.
# An empty owner rejects every mutation.
# owner: "0x0000000000000000000000000000000000000000"

# Identity used for mutations when --caller is not given
# caller: "0x0000000000000000000000000000000000000000"

# Module authority. Use either a fixed list or a whitelist file.
controller:
  # modules:
  #   - "0x1111111111111111111111111111111111111111"
  #
  # whitelist_file: /etc/intreg/modules.yaml
  # watch: true   # reload the whitelist file when it changes

# Lookup cache
cache:
  enabled: true
  ttl: 5m

# Debug log (written only with --debug or INTREG_DEBUG)
log:
  path: debug.log
  level: debug   # debug, info, warn, error

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: stdout               # Export backend: none, stdout, otlp (default: stdout)
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
#   service_name: intreg
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
