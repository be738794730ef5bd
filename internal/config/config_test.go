package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zk-thunder/da-pipeline/internal/errs"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func requiredEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"ML_RPC_URL":           "http://localhost:3030",
		"4EVERLAND_API_KEY":    "key",
		"4EVERLAND_SECRET_KEY": "secret",
		"4EVERLAND_BUCKET_NAME": "bucket",
		"DATABASE_URL":         "postgres://localhost/da",
	} {
		os.Setenv(k, v)
		t.Cleanup(func(k string) func() { return func() { os.Unsetenv(k) } }(k))
	}
}

func TestLoadAppliesDefaultsThenEnvOverrides(t *testing.T) {
	requiredEnv(t)
	clearEnv(t, "MINTLAYER_BATCH_SIZE")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 6, cfg.MintlayerBatchSize)
	require.Equal(t, "http://localhost:3030", cfg.MintlayerRPCURL)

	os.Setenv("MINTLAYER_BATCH_SIZE", "12")
	defer os.Unsetenv("MINTLAYER_BATCH_SIZE")

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, 12, cfg.MintlayerBatchSize)
}

func TestLoadMissingRequiredFieldIsConfigError(t *testing.T) {
	clearEnv(t, "ML_RPC_URL", "4EVERLAND_API_KEY", "4EVERLAND_SECRET_KEY", "4EVERLAND_BUCKET_NAME", "DATABASE_URL")

	_, err := Load("")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindConfig))
}

func TestLoadFileIsOverriddenByEnv(t *testing.T) {
	requiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`mintlayer_batch_size = 3`+"\n"), 0o600))

	os.Setenv("MINTLAYER_BATCH_SIZE", "9")
	defer os.Unsetenv("MINTLAYER_BATCH_SIZE")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9, cfg.MintlayerBatchSize)
}
