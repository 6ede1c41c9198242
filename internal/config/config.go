package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quantlab/signalcore/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Provider ProviderConfig `mapstructure:"provider"`
	Online   OnlineConfig   `mapstructure:"online"`
	Labeling LabelingConfig `mapstructure:"labeling"`
	Trainer  TrainerConfig  `mapstructure:"trainer"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	DSN     string        `mapstructure:"dsn"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type ProviderConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type OnlineConfig struct {
	LearningRate float64 `mapstructure:"learning_rate"`
	// FlushEvery controls how many learn updates are applied before the
	// state blob is persisted. 1 means persist after every update.
	FlushEvery int `mapstructure:"flush_every"`
}

type LabelingConfig struct {
	// Threshold is the realized-return fraction above which an article is
	// labeled positive, e.g. 0.01 for 1%.
	Threshold       float64 `mapstructure:"threshold"`
	MinWaitDays     int     `mapstructure:"min_wait_days"`
	HorizonSessions int     `mapstructure:"horizon_sessions"`
	MaxArticles     int     `mapstructure:"max_articles"`
}

type TrainerConfig struct {
	HistoryDays       int     `mapstructure:"history_days"`
	HalfLifeDays      float64 `mapstructure:"half_life_days"`
	ValidationRatio   float64 `mapstructure:"validation_ratio"`
	Ridge             float64 `mapstructure:"ridge"`
	BoostRounds       int     `mapstructure:"boost_rounds"`
	BoostLearningRate float64 `mapstructure:"boost_learning_rate"`
	Retention         string  `mapstructure:"retention"` // "none", "window", "all"
	RetentionDays     int     `mapstructure:"retention_days"`
}

type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "redis"
	Addr string        `mapstructure:"addr"`
	DB   int           `mapstructure:"db"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
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

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8600,
		},
		Storage: StorageConfig{
			Archive: ArchiveConfig{
				Type: "localfs",
				Path: "artifacts",
			},
		},
		Provider: ProviderConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Online: OnlineConfig{
			LearningRate: 0.05,
			FlushEvery:   1,
		},
		Labeling: LabelingConfig{
			Threshold:       0.01,
			MinWaitDays:     7,
			HorizonSessions: 3,
			MaxArticles:     500,
		},
		Trainer: TrainerConfig{
			HistoryDays:       730,
			HalfLifeDays:      90,
			ValidationRatio:   0.2,
			Ridge:             1.0,
			BoostRounds:       200,
			BoostLearningRate: 0.1,
			Retention:         "window",
			RetentionDays:     180,
		},
		Cache: CacheConfig{
			Type: "memory",
			TTL:  5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("server port must be in [1, 65535], got %d", c.Server.Port))
	}
	if c.Labeling.Threshold < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("labeling threshold cannot be negative, got %f", c.Labeling.Threshold))
	}
	if c.Labeling.MinWaitDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_wait_days must be at least 1, got %d", c.Labeling.MinWaitDays))
	}
	if c.Labeling.HorizonSessions < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("horizon_sessions must be at least 1, got %d", c.Labeling.HorizonSessions))
	}

	if c.Online.LearningRate <= 0 || c.Online.LearningRate > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("learning_rate must be in (0, 1], got %f", c.Online.LearningRate))
	}
	if c.Online.FlushEvery < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("flush_every must be at least 1, got %d", c.Online.FlushEvery))
	}

	if c.Trainer.ValidationRatio <= 0 || c.Trainer.ValidationRatio >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("validation_ratio must be in (0, 1), got %f", c.Trainer.ValidationRatio))
	}
	if c.Trainer.HalfLifeDays <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("half_life_days must be positive, got %f", c.Trainer.HalfLifeDays))
	}
	switch c.Trainer.Retention {
	case "none", "window", "all":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("retention must be none, window or all, got %q", c.Trainer.Retention))
	}
	if c.Trainer.Retention == "window" && c.Trainer.RetentionDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("retention_days must be at least 1 for window retention, got %d", c.Trainer.RetentionDays))
	}

	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cache type must be memory or redis, got %q", c.Cache.Type))
	}
	if c.Cache.Type == "redis" && c.Cache.Addr == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("cache addr required when cache type is redis"))
	}

	switch c.Storage.Archive.Type {
	case "localfs", "s3":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("archive type must be localfs or s3, got %q", c.Storage.Archive.Type))
	}
	if c.Storage.Archive.Type == "s3" && c.Storage.Archive.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("s3 bucket required when archive type is s3"))
	}

	return nil
}
