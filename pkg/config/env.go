package config

import (
	"time"

	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of environment overrides, e.g. HDRGET_CACHE_DIR.
const EnvPrefix = "hdrget"

// envOverrides mirrors Settings. Zero values mean "not set". Field names
// map to variables through split_words, so HTTPTimeout reads
// HDRGET_HTTP_TIMEOUT.
type envOverrides struct {
	CacheDir        string        `split_words:"true"`
	CatalogURL      string        `split_words:"true"`
	DownloadURL     string        `split_words:"true"`
	VersionURL      string        `split_words:"true"`
	Resolution      string        `split_words:"true"`
	Format          string        `split_words:"true"`
	HTTPTimeout     time.Duration `split_words:"true"`
	ProbeTimeout    time.Duration `split_words:"true"`
	UserAgent       string        `split_words:"true"`
	OutputFormat    string        `split_words:"true"`
	LogLevel        string        `split_words:"true"`
	PostAcquireHook string        `split_words:"true"`
	HookTimeout     time.Duration `split_words:"true"`
}

// ApplyEnv overrides settings from HDRGET_* environment variables and
// validates the result.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return errors.Wrap(errors.ErrConfigEnv, err.Error())
	}

	s := &c.Settings
	setString(&s.CacheDir, env.CacheDir)
	setString(&s.CatalogURL, env.CatalogURL)
	setString(&s.DownloadURL, env.DownloadURL)
	setString(&s.VersionURL, env.VersionURL)
	setString(&s.Resolution, env.Resolution)
	setString(&s.Format, env.Format)
	setString(&s.UserAgent, env.UserAgent)
	setString(&s.OutputFormat, env.OutputFormat)
	setString(&s.LogLevel, env.LogLevel)
	setString(&s.PostAcquireHook, env.PostAcquireHook)
	if env.HTTPTimeout > 0 {
		s.HTTPTimeout = env.HTTPTimeout
	}
	if env.ProbeTimeout > 0 {
		s.ProbeTimeout = env.ProbeTimeout
	}
	if env.HookTimeout > 0 {
		s.HookTimeout = env.HookTimeout
	}

	return c.Validate()
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
