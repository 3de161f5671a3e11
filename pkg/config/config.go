// Package config provides configuration management for hdrget.
// Settings are read from a YAML file, filled with defaults and finally
// overridden by HDRGET_* environment variables.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/hdrget/internal/logger"
	"github.com/glorpus-work/hdrget/pkg/catalog"
	"github.com/glorpus-work/hdrget/pkg/download"
	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/fsutil"
	"github.com/glorpus-work/hdrget/pkg/hook"
	phttp "github.com/glorpus-work/hdrget/pkg/http"
	"github.com/glorpus-work/hdrget/pkg/model"
	"github.com/glorpus-work/hdrget/pkg/release"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Cache settings
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Remote endpoints
	CatalogURL  string `yaml:"catalog_url"`
	DownloadURL string `yaml:"download_url"`
	VersionURL  string `yaml:"version_url"`

	// Acquisition preferences
	Resolution string `yaml:"resolution"`
	Format     string `yaml:"format"`

	// Network settings
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	UserAgent    string        `yaml:"user_agent"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error

	// Tengo script run after a successful acquisition
	PostAcquireHook string        `yaml:"post_acquire_hook,omitempty"`
	HookTimeout     time.Duration `yaml:"hook_timeout"`
}

// Default configuration values.
const (
	// DefaultHTTPTimeout bounds a whole file transfer.
	DefaultHTTPTimeout = download.DefaultTransferTimeout

	// DefaultProbeTimeout bounds catalog queries and reachability probes.
	DefaultProbeTimeout = download.DefaultProbeTimeout

	// DefaultHookTimeout bounds one post-acquire script run.
	DefaultHookTimeout = hook.DefaultTimeout

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	// FileName is the name of the config file inside the config directory.
	FileName = "config.yaml"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName, "hdris")
	}

	return &Config{
		Settings: Settings{
			CacheDir:     cacheDir,
			CatalogURL:   catalog.DefaultCatalogURL,
			DownloadURL:  catalog.DefaultDownloadURL,
			VersionURL:   release.DefaultVersionURL,
			Resolution:   string(model.Resolution4K),
			Format:       string(model.FormatHDR),
			HTTPTimeout:  DefaultHTTPTimeout,
			ProbeTimeout: DefaultProbeTimeout,
			HookTimeout:  DefaultHookTimeout,
			UserAgent:    phttp.DefaultUserAgent,
			OutputFormat: string(logger.FormatText),
			LogLevel:     "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults. Environment overrides are not applied here; see ApplyEnv.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	s := c.Settings

	if _, err := model.ParseResolution(s.Resolution); err != nil {
		return errors.Wrap(errors.ErrConfigValidation, err.Error())
	}
	if _, err := model.ParseFormat(s.Format); err != nil {
		return errors.Wrap(errors.ErrConfigValidation, err.Error())
	}
	if s.HTTPTimeout < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "http_timeout cannot be negative")
	}
	if s.ProbeTimeout < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "probe_timeout cannot be negative")
	}
	if s.HookTimeout < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "hook_timeout cannot be negative")
	}
	for key, raw := range map[string]string{
		"catalog_url":  s.CatalogURL,
		"download_url": s.DownloadURL,
		"version_url":  s.VersionURL,
	} {
		if err := validateURL(raw); err != nil {
			return errors.Wrapf(errors.ErrConfigValidation, "%s: %v", key, err)
		}
	}
	if !strings.EqualFold(s.OutputFormat, string(logger.FormatText)) && !strings.EqualFold(s.OutputFormat, string(logger.FormatJSON)) {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid output format %q (valid: text, json)", s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q (valid: debug, info, warn, error)", s.LogLevel)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q needs an http or https scheme", errors.ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", errors.ErrInvalidURL, raw)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, FileName), nil
}

// GetCacheDir returns the cache directory from settings.
func (c *Config) GetCacheDir() string {
	return c.Settings.CacheDir
}

// PreferredResolution returns the configured default tier.
func (c *Config) PreferredResolution() model.Resolution {
	r, err := model.ParseResolution(c.Settings.Resolution)
	if err != nil {
		return model.Resolution4K
	}
	return r
}

// PreferredFormat returns the configured default encoding.
func (c *Config) PreferredFormat() model.Format {
	f, err := model.ParseFormat(c.Settings.Format)
	if err != nil {
		return model.FormatHDR
	}
	return f
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.CatalogURL == "" {
		c.Settings.CatalogURL = defaults.Settings.CatalogURL
	}
	if c.Settings.DownloadURL == "" {
		c.Settings.DownloadURL = defaults.Settings.DownloadURL
	}
	if c.Settings.VersionURL == "" {
		c.Settings.VersionURL = defaults.Settings.VersionURL
	}
	if c.Settings.Resolution == "" {
		c.Settings.Resolution = defaults.Settings.Resolution
	}
	if c.Settings.Format == "" {
		c.Settings.Format = defaults.Settings.Format
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.ProbeTimeout == 0 {
		c.Settings.ProbeTimeout = defaults.Settings.ProbeTimeout
	}
	if c.Settings.HookTimeout == 0 {
		c.Settings.HookTimeout = defaults.Settings.HookTimeout
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.Settings.UserAgent
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
