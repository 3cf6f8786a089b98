package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

var newOwner = domain.MustParseAddress("0x000000000000000000000000000000000000beef")

func TestSaveOwner_CreatesNewFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveOwner(configPath, newOwner))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `owner: "`+newOwner.Hex()+`"`)
}

func TestSaveOwner_PreservesOtherConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	initial := `# registry settings
db_path: /tmp/reg.db
owner: "0x00000000000000000000000000000000000000ad"
cache:
  enabled: false  # keep lookups uncached
`
	require.NoError(t, os.WriteFile(configPath, []byte(initial), 0o644))

	require.NoError(t, SaveOwner(configPath, newOwner))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# registry settings")
	assert.Contains(t, string(data), "# keep lookups uncached")
	assert.NotContains(t, string(data), "0x00000000000000000000000000000000000000ad")

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, "/tmp/reg.db", cfg.DBPath)
	assert.False(t, cfg.Cache.Enabled)

	owner, err := cfg.OwnerAddress()
	require.NoError(t, err)
	assert.Equal(t, newOwner, owner)
}

func TestSaveOwner_AppendsMissingKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("db_path: /tmp/reg.db\n"), 0o644))

	require.NoError(t, SaveOwner(configPath, newOwner))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, "/tmp/reg.db", v.GetString("db_path"))
	assert.Equal(t, newOwner.Hex(), v.GetString("owner"))
}

func TestSaveOwner_RejectsNonMapping(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("- a\n- b\n"), 0o644))

	err := SaveOwner(configPath, newOwner)
	require.ErrorContains(t, err, "not a mapping")
}

func TestSaveOwner_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveOwner(configPath, newOwner))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "config.yaml", entries[0].Name())
}
