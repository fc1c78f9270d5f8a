package client

import (
	"codesearch/internal/application/common/logging"
	"codesearch/internal/codesearch"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	// DefaultCacheTTL bounds the age of a cached backend response.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultLogLevel keeps diagnostics quiet unless --loglevel is given.
	DefaultLogLevel = "warn"

	// DefaultLogFormat is the structured log encoding.
	DefaultLogFormat = "json"

	// EnvPrefix prefixes every environment override, e.g. CODESEARCH_SERVER_URL.
	EnvPrefix = "CODESEARCH"
)

// Supported URL schemes.
const (
	schemeHTTP  = "http://"
	schemeHTTPS = "https://"
)

// Config holds the client configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Cache  CacheConfig  `mapstructure:"cache"  yaml:"cache"`
	Source SourceConfig `mapstructure:"source" yaml:"source"`
	Log    LogConfig    `mapstructure:"log"    yaml:"log"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	// URL is the backend base URL. Must include the scheme.
	URL     string        `mapstructure:"url"     yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Package is the package name stamped on every file spec.
	Package string `mapstructure:"package" yaml:"package"`
}

// CacheConfig controls the on-disk response cache. A zero TTL never expires.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// SourceConfig controls source root discovery.
type SourceConfig struct {
	// Marker is the file whose presence identifies the source root.
	Marker string `mapstructure:"marker" yaml:"marker"`
}

// LogConfig holds diagnostic settings.
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			URL:     codesearch.DefaultServerURL,
			Timeout: codesearch.DefaultTimeout,
			Package: codesearch.DefaultPackageName,
		},
		Cache:  CacheConfig{TTL: DefaultCacheTTL},
		Source: SourceConfig{Marker: codesearch.DefaultSourceMarker},
		Log:    LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("server.url", def.Server.URL)
	v.SetDefault("server.timeout", def.Server.Timeout)
	v.SetDefault("server.package", def.Server.Package)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("source.marker", def.Source.Marker)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
}

// NewViper builds the configuration source: defaults, then the config file,
// then CODESEARCH_* environment variables. With an empty cfgFile the file is
// looked up as config.yaml in $HOME/.config/codesearch and the working
// directory; a missing file is not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "codesearch"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// New decodes and validates the configuration held by v.
func New(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads the configuration from cfgFile (optional) and the
// environment.
func LoadConfig(cfgFile string) (*Config, error) {
	v, err := NewViper(cfgFile)
	if err != nil {
		return nil, err
	}
	return New(v)
}

// ParseConfigFromYAML parses a configuration document on top of the defaults.
func ParseConfigFromYAML(yamlContent string) (*Config, error) {
	var configData map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &configData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	if err := v.MergeConfigMap(configData); err != nil {
		return nil, fmt.Errorf("failed to merge YAML: %w", err)
	}

	return New(v)
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var problems []string

	switch {
	case c.Server.URL == "":
		problems = append(problems, "server.url cannot be empty")
	case !strings.HasPrefix(c.Server.URL, schemeHTTP) && !strings.HasPrefix(c.Server.URL, schemeHTTPS):
		problems = append(problems, fmt.Sprintf("server.url must have http:// or https:// scheme, got %q", c.Server.URL))
	}

	if c.Server.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("server.timeout must be positive, got %v", c.Server.Timeout))
	}

	if c.Cache.TTL < 0 {
		problems = append(problems, fmt.Sprintf("cache.ttl cannot be negative, got %v", c.Cache.TTL))
	}

	if c.Source.Marker == "" {
		problems = append(problems, "source.marker cannot be empty")
	}

	if !logging.IsValidLevel(c.Log.Level) {
		problems = append(problems, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		problems = append(problems, fmt.Sprintf("log.format %q is not one of json, text", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
