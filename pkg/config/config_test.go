package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/fsutil"
	"github.com/glorpus-work/hdrget/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, "text", cfg.Settings.OutputFormat)
	assert.Equal(t, 10*time.Minute, cfg.Settings.HTTPTimeout)
	assert.Equal(t, 8*time.Second, cfg.Settings.ProbeTimeout)
	assert.Equal(t, 30*time.Second, cfg.Settings.HookTimeout)
	assert.Equal(t, "https://api.polyhaven.com", cfg.Settings.CatalogURL)
	assert.Equal(t, "https://dl.polyhaven.org", cfg.Settings.DownloadURL)
	assert.Equal(t, model.Resolution4K, cfg.PreferredResolution())
	assert.Equal(t, model.FormatHDR, cfg.PreferredFormat())
	assert.True(t, strings.HasSuffix(cfg.GetCacheDir(), filepath.Join("hdrget", "hdris")))
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `settings:
  cache_dir: /data/hdris
  resolution: 8K
  format: exr
  log_level: debug
  probe_timeout: 2s
  hook_timeout: 5s
  post_acquire_hook: /home/me/apply.tengo`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/data/hdris", cfg.Settings.CacheDir)
	assert.Equal(t, model.Resolution8K, cfg.PreferredResolution())
	assert.Equal(t, model.FormatEXR, cfg.PreferredFormat())
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Settings.ProbeTimeout)
	assert.Equal(t, "/home/me/apply.tengo", cfg.Settings.PostAcquireHook)
	assert.Equal(t, 5*time.Second, cfg.Settings.HookTimeout)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Settings.HTTPTimeout, "defaults fill missing values")
	assert.Equal(t, "https://api.polyhaven.com", cfg.Settings.CatalogURL)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)

	_, err = LoadConfigFromReader(strings.NewReader("settings: [unclosed"))
	assert.ErrorIs(t, err, errors.ErrConfigParse)

	_, err = LoadConfigFromReader(strings.NewReader("settings:\n  resolution: 3k\n"))
	assert.ErrorIs(t, err, errors.ErrConfigValidation)
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.Format = "exr"

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))
	assert.NoFileExists(t, configPath+".tmp")

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	assert.ErrorIs(t, cfg.SaveConfig(""), errors.ErrEmptyConfigPath)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", mutate: func(*Settings) {}},
		{
			name: "uppercase values",
			mutate: func(s *Settings) {
				s.Resolution = "16K"
				s.Format = "EXR"
				s.LogLevel = "WARN"
			},
		},
		{name: "invalid resolution", mutate: func(s *Settings) { s.Resolution = "32k" }, wantErr: true, errMsg: "unsupported resolution"},
		{name: "invalid format", mutate: func(s *Settings) { s.Format = "png" }, wantErr: true, errMsg: "unsupported format"},
		{name: "negative timeout", mutate: func(s *Settings) { s.HTTPTimeout = -time.Second }, wantErr: true, errMsg: "http_timeout"},
		{name: "negative probe", mutate: func(s *Settings) { s.ProbeTimeout = -time.Second }, wantErr: true, errMsg: "probe_timeout"},
		{name: "negative hook timeout", mutate: func(s *Settings) { s.HookTimeout = -time.Second }, wantErr: true, errMsg: "hook_timeout"},
		{name: "bad catalog url", mutate: func(s *Settings) { s.CatalogURL = "ftp://example.org" }, wantErr: true, errMsg: "catalog_url"},
		{name: "download url without host", mutate: func(s *Settings) { s.DownloadURL = "https://" }, wantErr: true, errMsg: "download_url"},
		{name: "invalid output format", mutate: func(s *Settings) { s.OutputFormat = "yaml" }, wantErr: true, errMsg: "output format"},
		{name: "invalid log level", mutate: func(s *Settings) { s.LogLevel = "trace" }, wantErr: true, errMsg: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg.Settings)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrConfigValidation)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}

	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), errors.ErrConfigValidation)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join("hdrget", "config.yaml")))
}
