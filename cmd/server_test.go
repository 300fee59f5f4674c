package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerCmd(t *testing.T) {
	assert.Equal(t, "server", ServerCmd.Use)
	assert.Equal(t, "Start the push subscription registry", ServerCmd.Short)
	assert.NotNil(t, ServerCmd.RunE)
}

func TestServerCmdFlags(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		expectedPort string
		expectedCfg  string
		expectedVerb bool
	}{
		{
			name:         "default values",
			args:         []string{},
			expectedPort: "8080",
			expectedCfg:  "",
			expectedVerb: false,
		},
		{
			name:         "custom port",
			args:         []string{"-p", "9090"},
			expectedPort: "9090",
			expectedCfg:  "",
			expectedVerb: false,
		},
		{
			name:         "all flags",
			args:         []string{"-p", "3000", "-c", "registry.yaml", "-v"},
			expectedPort: "3000",
			expectedCfg:  "registry.yaml",
			expectedVerb: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ServerCmd.ResetFlags()
			ServerCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on")
			ServerCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file path (JSON or YAML)")
			ServerCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

			require.NoError(t, ServerCmd.ParseFlags(tt.args))

			portFlag, err := ServerCmd.Flags().GetString("port")
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedPort, portFlag)

			cfgFlag, err := ServerCmd.Flags().GetString("config")
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedCfg, cfgFlag)

			verbFlag, err := ServerCmd.Flags().GetBool("verbose")
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedVerb, verbFlag)

			v, err := newViper(ServerCmd.Flags())
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPort, v.GetString("port"))
		})
	}
}

func TestRunServerGracefulShutdown(t *testing.T) {
	storeFile := filepath.Join(t.TempDir(), "subscriptions.json")
	t.Setenv("PUSH_REGISTRY_STORE_FILE", storeFile)
	t.Setenv("PUSH_REGISTRY_METRICS_ADDR", "127.0.0.1:0")

	cfg = ""
	verbose = false
	flags := ServerCmd.Flags()
	require.NoError(t, flags.Set("port", "0"))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, flags)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestRunServerRefusesCorruptStore(t *testing.T) {
	storeFile := filepath.Join(t.TempDir(), "subscriptions.json")
	require.NoError(t, os.WriteFile(storeFile, []byte(`[{"identity":"alice","tokens":[]}]`), 0644))
	t.Setenv("PUSH_REGISTRY_STORE_FILE", storeFile)

	cfg = ""
	verbose = false
	flags := ServerCmd.Flags()
	require.NoError(t, flags.Set("port", "0"))

	err := runServer(context.Background(), flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must contain at least one non-empty token")
}

func TestRunServerInvalidConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(configFile, []byte("{ invalid json }"), 0644))

	cfg = configFile
	defer func() { cfg = "" }()
	verbose = false

	err := runServer(context.Background(), ServerCmd.Flags())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
