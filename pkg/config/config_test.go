package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.StoreFile)
	assert.Empty(t, cfg.AdminToken)
	assert.Empty(t, cfg.ClientToken)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PUSH_REGISTRY_PORT", "9090")
	t.Setenv("PUSH_REGISTRY_STORE_FILE", " /var/lib/push-registry/subscriptions.json ")
	t.Setenv("PUSH_REGISTRY_ADMIN_TOKEN", "admin-secret")
	t.Setenv("PUSH_REGISTRY_CLIENT_TOKEN", "client-secret")
	t.Setenv("PUSH_REGISTRY_METRICS_ADDR", ":9100")
	t.Setenv("PUSH_REGISTRY_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("PUSH_REGISTRY_LOG_LEVEL", "debug")
	t.Setenv("PUSH_REGISTRY_LOG_FORMAT", "json")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/var/lib/push-registry/subscriptions.json", cfg.StoreFile)
	assert.Equal(t, "admin-secret", cfg.AdminToken)
	assert.Equal(t, "client-secret", cfg.ClientToken)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_FromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `port: "7000"
store_file: /data/subscriptions.json
client_token: from-file
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("PUSH_REGISTRY_CLIENT_TOKEN", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "/data/subscriptions.json", cfg.StoreFile)
	assert.Equal(t, "from-env", cfg.ClientToken, "environment overrides the config file")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidLogFormat(t *testing.T) {
	t.Setenv("PUSH_REGISTRY_LOG_FORMAT", "xml")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported log format")
}

func TestLoadConfigWithViper_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("PUSH_REGISTRY_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("port", "8080", "")
	require.NoError(t, flags.Parse([]string{"--port", "6060"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("port", flags.Lookup("port")))

	cfg, err := LoadConfigWithViper(v, "")
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Port)
}
