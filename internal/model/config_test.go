package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "127.0.0.1:7420", cfg.Host.Addr)
	assert.Equal(t, 300, cfg.Host.TokenTTLSec)
	assert.Equal(t, string(Monday), cfg.Display.WeekStart)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TODOBOARD_STORAGE_BACKEND", "sqlite")
	t.Setenv("TODOBOARD_DISPLAY_WEEK_START", "Sunday")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "Sunday", cfg.Display.WeekStart)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: floppy\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage backend "floppy"`)
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate func(*AppConfig)
		want   string
	}{
		"defaults": {mutate: func(*AppConfig) {}},
		"postgres without dsn": {
			mutate: func(c *AppConfig) { c.Storage.Backend = BackendPostgres },
			want:   "storage.dsn is required",
		},
		"postgres with dsn": {
			mutate: func(c *AppConfig) {
				c.Storage.Backend = BackendPostgres
				c.Storage.DSN = "postgres://localhost/todos"
			},
		},
		"remote without url": {
			mutate: func(c *AppConfig) {
				c.Storage.Backend = BackendRemote
				c.Storage.HostURL = ""
			},
			want: "storage.host_url is required",
		},
		"empty backend": {
			mutate: func(c *AppConfig) { c.Storage.Backend = "" },
			want:   "unknown storage backend",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultAppConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateFillsTokenTTL(t *testing.T) {
	cfg := defaultAppConfig()
	cfg.Host.TokenTTLSec = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300, cfg.Host.TokenTTLSec)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Storage.Backend = BackendSQLite
	cfg.Storage.DataDir = "/srv/todos"
	cfg.Log.Level = "debug"

	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, got.Storage.Backend)
	assert.Equal(t, "/srv/todos", got.Storage.DataDir)
	assert.Equal(t, "debug", got.Log.Level)
}
