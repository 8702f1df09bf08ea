package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SNAPDEMO_RING",
		"SNAPDEMO_MESSAGE",
		"SNAPDEMO_DOMAIN",
		"SNAPDEMO_CALL_TIMEOUT",
		"SNAPDEMO_METRICS_ADDR",
		"SNAPDEMO_PRIVATE_KEY",
		"SNAPDEMO_KEYSTORE_URL",
		"SNAPDEMO_KEYSTORE_DRIVER",
		"SNAPDEMO_KEYSTORE_NAME",
	} {
		unsetEnv(t, key)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults reproduce the demo", func(t *testing.T) {
		clearConfigEnv(t)
		dir := t.TempDir()
		t.Setenv(configDirPathEnv, dir)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Len(t, cfg.Ring, 3)
		assert.Equal(t, "030066ba293cc22d0eadbe494e9bd4d6d05c3e09d74dff0e991075de74b2359678", cfg.Ring[0])
		assert.Equal(t, "Hello Snap!", cfg.Message)
		assert.Equal(t, "demo-snap-signature", cfg.Domain)
		assert.Equal(t, 2*time.Minute, cfg.CallTimeout)
		assert.Equal(t, "sqlite", cfg.Keystore.Driver)
		assert.Equal(t, filepath.Join(dir, "snapdemo.db"), cfg.Keystore.Name)
		assert.Equal(t, dir, cfg.ConfigDir)
		assert.False(t, cfg.DotEnvLoaded)
	})

	t.Run("Dotenv file is applied", func(t *testing.T) {
		clearConfigEnv(t)
		dir := t.TempDir()
		t.Setenv(configDirPathEnv, dir)
		dotenv := "SNAPDEMO_MESSAGE=Hello Ring!\nSNAPDEMO_DOMAIN=other-domain\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600))

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.True(t, cfg.DotEnvLoaded)
		assert.Equal(t, "Hello Ring!", cfg.Message)
		assert.Equal(t, "other-domain", cfg.Domain)
	})

	t.Run("Environment overrides the ring", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv(configDirPathEnv, t.TempDir())
		t.Setenv("SNAPDEMO_RING", "0316d7da70ba247a6a40bb310187e8789b80c45fa6dc0061abb8ced49cbe7f887f")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, []string{"0316d7da70ba247a6a40bb310187e8789b80c45fa6dc0061abb8ced49cbe7f887f"}, cfg.Ring)
	})

	t.Run("Absolute keystore path is kept", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv(configDirPathEnv, t.TempDir())
		name := filepath.Join(t.TempDir(), "keys.db")
		t.Setenv("SNAPDEMO_KEYSTORE_NAME", name)

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, name, cfg.Keystore.Name)
	})

	t.Run("Malformed ring key is rejected", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv(configDirPathEnv, t.TempDir())
		t.Setenv("SNAPDEMO_RING", "not-a-key")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("Unknown keystore driver is rejected", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv(configDirPathEnv, t.TempDir())
		t.Setenv("SNAPDEMO_KEYSTORE_DRIVER", "mysql")

		_, err := LoadConfig()
		require.Error(t, err)
	})
}
