package cli

import (
	"fmt"

	"github.com/glorpus-work/hdrget/internal/logger"
	"github.com/glorpus-work/hdrget/pkg/cache"
	"github.com/glorpus-work/hdrget/pkg/catalog"
	"github.com/glorpus-work/hdrget/pkg/config"
	"github.com/glorpus-work/hdrget/pkg/download"
	phttp "github.com/glorpus-work/hdrget/pkg/http"
	"github.com/glorpus-work/hdrget/pkg/orchestrator"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	OutputFormat *string
)

// services bundles the collaborators built from one configuration.
type services struct {
	cfg     *config.Config
	http    *phttp.HTTPClient
	cache   *cache.DefaultManager
	catalog *catalog.Client
	orch    *orchestrator.Orchestrator
}

// loadConfig reads the config file, applies HDRGET_* overrides and the
// global flags, then configures the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := loadFileConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	// Override config with CLI flags if provided
	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.ParseFormat(cfg.Settings.OutputFormat))
	return cfg, nil
}

// loadFileConfig reads the config file alone, for commands that write it
// back and must not persist environment overrides.
func loadFileConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadServices loads the configuration and wires the acquisition pipeline.
func loadServices() (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s := cfg.Settings
	hc := phttp.NewHTTPClient(s.ProbeTimeout, s.UserAgent)
	cacheManager := cache.NewManager(cfg.GetCacheDir())
	catalogClient := catalog.NewClient(hc, s.CatalogURL, s.DownloadURL)

	return &services{
		cfg:     cfg,
		http:    hc,
		cache:   cacheManager,
		catalog: catalogClient,
		orch: &orchestrator.Orchestrator{
			Catalog:           catalogClient,
			DL:                download.NewManager(s.HTTPTimeout, s.ProbeTimeout, s.UserAgent),
			Cache:             cacheManager,
			DefaultResolution: cfg.PreferredResolution(),
			DefaultFormat:     cfg.PreferredFormat(),
		},
	}, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// jsonOutput reports whether command results should be printed as JSON.
func jsonOutput(cfg *config.Config) bool {
	return logger.ParseFormat(cfg.Settings.OutputFormat) == logger.FormatJSON
}
