package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kwhite/azchat/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Azure   AzureConfig   `mapstructure:"azure"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

// AzureConfig identifies the service principal and the deployment it
// talks to. Immutable after load.
type AzureConfig struct {
	TenantID     string `mapstructure:"tenant_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Endpoint     string `mapstructure:"endpoint"`
	Deployment   string `mapstructure:"deployment"`
	APIVersion   string `mapstructure:"api_version"`
}

// ChatConfig holds generation defaults applied when a call does not
// override them.
type ChatConfig struct {
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SystemMessage string        `mapstructure:"system_message"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ArchiveConfig controls transcript persistence.
type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a config from the conventional AZURE_* environment
// variables, with defaults for everything else.
func FromEnv() *Config {
	cfg := Defaults()
	cfg.Azure.TenantID = os.Getenv("AZURE_TENANT_ID")
	cfg.Azure.ClientID = os.Getenv("AZURE_CLIENT_ID")
	cfg.Azure.ClientSecret = os.Getenv("AZURE_CLIENT_SECRET")
	cfg.Azure.Endpoint = os.Getenv("AZURE_ENDPOINT")
	if d := os.Getenv("AZURE_DEPLOYMENT_NAME"); d != "" {
		cfg.Azure.Deployment = d
	}
	if v := os.Getenv("AZURE_API_VERSION"); v != "" {
		cfg.Azure.APIVersion = v
	}
	return cfg
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Azure: AzureConfig{
			Deployment: "gpt-4",
			APIVersion: "2024-02-15-preview",
		},
		Chat: ChatConfig{
			Temperature: 0.1,
			MaxTokens:   4000,
			Timeout:     30 * time.Second,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "localfs",
		},
	}
}

// required maps mandatory config keys to their values for validation.
func (a AzureConfig) required() map[string]string {
	return map[string]string{
		"azure.tenant_id":     a.TenantID,
		"azure.client_id":     a.ClientID,
		"azure.client_secret": a.ClientSecret,
		"azure.endpoint":      a.Endpoint,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Azure credential validation
	var missing []string
	for key, val := range c.Azure.required() {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("missing required keys: %s", strings.Join(missing, ", ")))
	}

	u, err := url.Parse(c.Azure.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("endpoint must be an http(s) URL, got %q", c.Azure.Endpoint))
	}

	// Chat validation
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("temperature must be between 0 and 2, got %f", c.Chat.Temperature))
	}
	if c.Chat.MaxTokens <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_tokens must be positive, got %d", c.Chat.MaxTokens))
	}
	if c.Chat.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("timeout must be positive, got %s", c.Chat.Timeout))
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Archive validation
	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.path required when type is localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.s3.bucket required when type is s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type: %s", c.Archive.Type))
		}
	}

	return nil
}
