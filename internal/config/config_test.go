package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/intreg/internal/registry/domain"
	"github.com/zjrosen/intreg/internal/tracing"
)

const (
	ownerHex  = "0x00000000000000000000000000000000000000ad"
	moduleHex = "0x1111111111111111111111111111111111111111"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NotEmpty(t, cfg.DBPath)
	require.True(t, strings.HasSuffix(cfg.DBPath, "registry.db"))
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, tracing.DefaultConfig(), cfg.Tracing)
	require.NoError(t, Validate(cfg))
}

func TestOwnerAddress(t *testing.T) {
	cfg := Defaults()
	owner, err := cfg.OwnerAddress()
	require.NoError(t, err)
	require.True(t, owner.IsZero(), "empty owner admits nobody")

	cfg.Owner = ownerHex
	owner, err = cfg.OwnerAddress()
	require.NoError(t, err)
	require.Equal(t, domain.MustParseAddress(ownerHex), owner)

	cfg.Owner = "0x12"
	_, err = cfg.OwnerAddress()
	require.Error(t, err)
	require.Contains(t, err.Error(), "owner")
}

func TestModuleAddresses(t *testing.T) {
	cfg := Defaults()
	cfg.Controller.Modules = []string{moduleHex, strings.TrimPrefix(ownerHex, "0x")}
	modules, err := cfg.ModuleAddresses()
	require.NoError(t, err)
	require.Equal(t, []domain.Address{
		domain.MustParseAddress(moduleHex),
		domain.MustParseAddress(ownerHex),
	}, modules)

	cfg.Controller.Modules = []string{moduleHex, "nope"}
	_, err = cfg.ModuleAddresses()
	require.ErrorContains(t, err, "controller.modules[1]")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"missing db path", func(c *Config) { c.DBPath = "" }, "db_path is required"},
		{"bad owner", func(c *Config) { c.Owner = "owner" }, "owner"},
		{"bad caller", func(c *Config) { c.Caller = "0x" }, "caller"},
		{"bad module", func(c *Config) { c.Controller.Modules = []string{"x"} }, "controller.modules[0]"},
		{"modules and whitelist", func(c *Config) {
			c.Controller.Modules = []string{moduleHex}
			c.Controller.WhitelistFile = "modules.yaml"
		}, "mutually exclusive"},
		{"watch without whitelist", func(c *Config) { c.Controller.Watch = true }, "requires controller.whitelist_file"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"sample rate too high", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "file" }, "tracing.exporter"},
		{"otlp without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.OTLPEndpoint = ""
		}, "otlp_endpoint"},
		{"whitelist with watch", func(c *Config) {
			c.Controller.WhitelistFile = "modules.yaml"
			c.Controller.Watch = true
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// The template must load through viper onto the defaults.
	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "debug.log", cfg.Log.Path)
	require.NoError(t, Validate(cfg))
}

func TestConfig_UnmarshalFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `db_path: /tmp/reg.db
owner: "` + ownerHex + `"
controller:
  modules:
    - "` + moduleHex + `"
cache:
  enabled: false
  ttl: 30s
tracing:
  enabled: true
  exporter: none
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, "/tmp/reg.db", cfg.DBPath)
	require.Equal(t, ownerHex, cfg.Owner)
	require.Equal(t, []string{moduleHex}, cfg.Controller.Modules)
	require.False(t, cfg.Cache.Enabled)
	require.Equal(t, 30*time.Second, cfg.Cache.TTL)
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, "none", cfg.Tracing.Exporter)
	require.Equal(t, "intreg", cfg.Tracing.ServiceName, "unset keys keep their defaults")
	require.NoError(t, Validate(cfg))
}
