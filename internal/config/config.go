// Package config loads server configuration from defaults, an optional YAML
// file and the environment.
//
// The variable names used by the original deployment (S3_ENDPOINT, S3_BUCKET,
// CLOUDFLARE_TEAM_DOMAIN, ...) are bound explicitly. Every other key can be
// set with the R2M_ prefix, e.g. R2M_SERVER_ADDRESS or R2M_LOG_LEVEL.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "R2M"

// Store drivers.
const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Listing ListingConfig `mapstructure:"listing"`
	Access  AccessConfig  `mapstructure:"access"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimit is requests per second across all clients. Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type StorageConfig struct {
	Driver          string `mapstructure:"driver"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// PublicDomain, when set, replaces the endpoint host in signed URLs handed
	// to the browser.
	PublicDomain    string `mapstructure:"public_domain"`
	ListPageSize    int    `mapstructure:"list_page_size"`
	DeleteChunkSize int    `mapstructure:"delete_chunk_size"`
}

type ListingConfig struct {
	DefaultPageSize int           `mapstructure:"default_page_size"`
	MaxPageSize     int           `mapstructure:"max_page_size"`
	SignConcurrency int           `mapstructure:"sign_concurrency"`
	ReadURLTTL      time.Duration `mapstructure:"read_url_ttl"`
	UploadURLTTL    time.Duration `mapstructure:"upload_url_ttl"`
}

type AccessConfig struct {
	TeamDomain      string        `mapstructure:"team_domain"`
	Audience        string        `mapstructure:"audience"`
	JWKSTTL         time.Duration `mapstructure:"jwks_ttl"`
	BypassLocalhost bool          `mapstructure:"bypass_localhost"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// legacyEnv maps config keys to the environment names of the original deployment.
var legacyEnv = map[string]string{
	"storage.endpoint":          "S3_ENDPOINT",
	"storage.access_key_id":     "S3_ACCESS_KEY_ID",
	"storage.secret_access_key": "S3_SECRET_ACCESS_KEY",
	"storage.bucket":            "S3_BUCKET",
	"storage.public_domain":     "S3_PUBLIC_DOMAIN",
	"access.team_domain":        "CLOUDFLARE_TEAM_DOMAIN",
	"access.audience":           "CLOUDFLARE_AUD_TAG",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.rate_burst", 50)

	v.SetDefault("storage.driver", DriverMinio)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.public_domain", "")
	v.SetDefault("storage.list_page_size", 1000)
	v.SetDefault("storage.delete_chunk_size", 1000)

	v.SetDefault("listing.default_page_size", 50)
	v.SetDefault("listing.max_page_size", 1000)
	v.SetDefault("listing.sign_concurrency", 16)
	v.SetDefault("listing.read_url_ttl", time.Hour)
	v.SetDefault("listing.upload_url_ttl", 5*time.Minute)

	v.SetDefault("access.team_domain", "")
	v.SetDefault("access.audience", "")
	v.SetDefault("access.jwks_ttl", 10*time.Minute)
	v.SetDefault("access.bypass_localhost", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
}

// Load builds a Config. path may be empty, in which case only defaults and the
// environment are consulted.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMinio, DriverS3:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverMinio, DriverS3, c.Storage.Driver)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required (S3_BUCKET)")
	}
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("storage.endpoint is required (S3_ENDPOINT)")
	}
	if c.Storage.ListPageSize < 1 || c.Storage.ListPageSize > 1000 {
		return fmt.Errorf("storage.list_page_size must be between 1 and 1000")
	}
	if c.Storage.DeleteChunkSize < 1 || c.Storage.DeleteChunkSize > 1000 {
		return fmt.Errorf("storage.delete_chunk_size must be between 1 and 1000")
	}
	if c.Listing.DefaultPageSize < 1 || c.Listing.MaxPageSize < c.Listing.DefaultPageSize {
		return fmt.Errorf("listing page sizes must satisfy 1 <= default_page_size <= max_page_size")
	}
	if c.Listing.SignConcurrency < 1 {
		return fmt.Errorf("listing.sign_concurrency must be positive")
	}
	if c.Listing.ReadURLTTL <= 0 || c.Listing.UploadURLTTL <= 0 {
		return fmt.Errorf("signed URL lifetimes must be positive")
	}
	return nil
}

// AccessEnabled reports whether the Cloudflare Access gate has enough settings to run.
func (c *Config) AccessEnabled() bool {
	return c.Access.TeamDomain != "" && c.Access.Audience != ""
}
