package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/fusion"
)

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageFiles  = "files"
	StorageNone   = "none"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Acquisition
	HTTPTimeout      time.Duration
	FetchConcurrency int
	RateLimit        float64
	CacheTTL         time.Duration
	SourcesFile      string

	// Fusion
	Recipe string

	// Storage
	StorageDriver string
	StorageDSN    string
	StorageDir    string

	// MetricsFile receives the Prometheus text exposition on shutdown
	MetricsFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (AGORAFLUX_ prefix)
// 3. .env files
// 4. Config file (--config or ~/.agoraflux.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("AGORAFLUX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".agoraflux")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must load
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "failed to read config file", err)
		}
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		HTTPTimeout:      v.GetDuration("http_timeout"),
		FetchConcurrency: v.GetInt("fetch_concurrency"),
		RateLimit:        v.GetFloat64("rate_limit"),
		CacheTTL:         v.GetDuration("cache_ttl"),
		SourcesFile:      v.GetString("sources_file"),

		Recipe: v.GetString("recipe"),

		StorageDriver: v.GetString("storage.driver"),
		StorageDSN:    v.GetString("storage.dsn"),
		StorageDir:    v.GetString("storage.dir"),

		MetricsFile: v.GetString("metrics_file"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("fetch_concurrency", constants.MaxConcurrentFetches)
	v.SetDefault("rate_limit", constants.DefaultRateLimit)
	v.SetDefault("cache_ttl", constants.DefaultCacheTTL)
	v.SetDefault("recipe", fusion.RecipeCivicEngagement)
	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("storage.dsn", "agoraflux.db")
	v.SetDefault("storage.dir", "datasets")
	v.SetDefault("log_format", getEnvOrDefault("LOG_FORMAT", "auto"))
	v.SetDefault("log_output", getEnvOrDefault("LOG_OUTPUT", "stderr"))
	v.SetDefault("log_level", os.Getenv("LOG_LEVEL"))
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags so flag values take
// precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
