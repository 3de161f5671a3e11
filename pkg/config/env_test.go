package config

import (
	"testing"
	"time"

	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv("HDRGET_CACHE_DIR", "/env/cache")
	t.Setenv("HDRGET_RESOLUTION", "1k")
	t.Setenv("HDRGET_HTTP_TIMEOUT", "45s")
	t.Setenv("HDRGET_CATALOG_URL", "http://localhost:8080")
	t.Setenv("HDRGET_HOOK_TIMEOUT", "2m")

	cfg := DefaultConfig()
	cfg.Settings.Format = "exr"
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "/env/cache", cfg.Settings.CacheDir)
	assert.Equal(t, "1k", cfg.Settings.Resolution)
	assert.Equal(t, 45*time.Second, cfg.Settings.HTTPTimeout)
	assert.Equal(t, "http://localhost:8080", cfg.Settings.CatalogURL)
	assert.Equal(t, 2*time.Minute, cfg.Settings.HookTimeout)
	assert.Equal(t, "exr", cfg.Settings.Format, "unset variables keep file values")
	assert.Equal(t, DefaultProbeTimeout, cfg.Settings.ProbeTimeout)
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("HDRGET_PROBE_TIMEOUT", "quickly")
		err := DefaultConfig().ApplyEnv()
		assert.ErrorIs(t, err, errors.ErrConfigEnv)
	})

	t.Run("bad value", func(t *testing.T) {
		t.Setenv("HDRGET_FORMAT", "tiff")
		err := DefaultConfig().ApplyEnv()
		assert.ErrorIs(t, err, errors.ErrConfigValidation)
	})
}
