package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pcdash/internal/models"
)

// EnvPrefix namespaces every environment override, e.g. PCDASH_LOG_LEVEL.
const EnvPrefix = "PCDASH"

// Config holds every configurable value of the dashboard.
type Config struct {
	// HTTP
	ListenAddr     string   `mapstructure:"listen_addr" validate:"required"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedIPs     []string `mapstructure:"allowed_ips"`
	RateLimit      float64  `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst      int      `mapstructure:"rate_burst" validate:"gt=0"`

	// Sampling
	SampleInterval  time.Duration `mapstructure:"sample_interval" validate:"gt=0"`
	Capacity        int           `mapstructure:"capacity" validate:"gte=60"`
	DefaultLookback int           `mapstructure:"default_lookback" validate:"gte=60,lte=3600"`
	SysfsRoot       string        `mapstructure:"sysfs_root" validate:"required"`

	// Alerts
	AlertCooldown time.Duration      `mapstructure:"alert_cooldown" validate:"gte=0"`
	Thresholds    map[string]float64 `mapstructure:"thresholds"`

	// Output
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Console  bool   `mapstructure:"console"`
}

// ThresholdDefaults resolves the configured thresholds to metrics. Metrics
// without an entry are left out, which keeps their alerts disabled.
func (c *Config) ThresholdDefaults() map[models.Metric]float64 {
	out := make(map[models.Metric]float64, len(c.Thresholds))
	for name, v := range c.Thresholds {
		m, err := models.ParseMetric(name)
		if err != nil {
			continue
		}
		out[m] = v
	}
	return out
}

// Loader reads configuration from (in decreasing priority):
//  1. environment variables (PCDASH_*), including a .env file if present
//  2. a yaml file (explicit path, or config.yaml in ./configs or .)
//  3. built-in defaults
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate
}

// NewLoader prepares a loader. An empty configFile searches the default paths.
func NewLoader(configFile string) *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Rate thresholds have no default, so bind them explicitly for env overrides.
	_ = v.BindEnv("thresholds.download")
	_ = v.BindEnv("thresholds.upload")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	return &Loader{v: v, validate: validator.New()}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", "localhost:8080")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("allowed_ips", []string{})
	v.SetDefault("rate_limit", 100.0)
	v.SetDefault("rate_burst", 200)

	v.SetDefault("sample_interval", time.Second)
	v.SetDefault("capacity", 3600)
	v.SetDefault("default_lookback", 60)
	v.SetDefault("sysfs_root", "/sys")

	v.SetDefault("alert_cooldown", 10*time.Second)
	// Percentages cannot exceed 100, so these keep alerts off until the user sets one.
	v.SetDefault("thresholds.cpu", 100.0)
	v.SetDefault("thresholds.gpu", 100.0)
	v.SetDefault("thresholds.memory", 100.0)

	v.SetDefault("log_level", "info")
	v.SetDefault("console", false)
}

// Load reads the .env file, the optional config file and the environment, then
// decodes and validates the result.
func (l *Loader) Load() (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return l.decode()
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch re-decodes the config whenever the loaded file changes and hands the
// result to onChange. It returns false when no config file is in use.
func (l *Loader) Watch(onChange func(*Config, error)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		onChange(l.decode())
	})
	l.v.WatchConfig()
	return true
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := l.validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for name, v := range cfg.Thresholds {
		if _, err := models.ParseMetric(name); err != nil {
			return nil, fmt.Errorf("invalid config: thresholds: %w", err)
		}
		if math.IsNaN(v) {
			return nil, fmt.Errorf("invalid config: thresholds.%s is NaN", name)
		}
	}
	return &cfg, nil
}
