package models

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type FeedConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type StoreConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=postgres kafka jsonl"`
	PostgresURL     string `mapstructure:"postgres_url" validate:"required_if=Driver postgres"`
	ConnectAttempts int    `mapstructure:"connect_attempts" validate:"gte=1"`
	KafkaBrokerList string `mapstructure:"kafka_broker_list" validate:"required_if=Driver kafka"`
	OutputPath      string `mapstructure:"output_path" validate:"required_if=Driver jsonl"`
}

// ArchiveConfig controls the parquet copy of every reading. Destination "s3"
// uploads the files when the archive is closed.
type ArchiveConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	OutputPath  string `mapstructure:"output_path"`
	Destination string `mapstructure:"destination" validate:"omitempty,oneof=local s3"`
	Region      string `mapstructure:"region"`
	BucketName  string `mapstructure:"bucket_name" validate:"required_if=Destination s3"`
}

type Config struct {
	Feed        FeedConfig    `mapstructure:"feed"`
	Corridor    string        `mapstructure:"corridor" validate:"required"`
	StaleWindow time.Duration `mapstructure:"stale_window" validate:"gt=0"`
	Schedule    int           `mapstructure:"schedule" validate:"gte=0"` // seconds between readings, 0 runs once
	LogLevel    string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Progress    bool          `mapstructure:"progress"`
	Store       StoreConfig   `mapstructure:"store"`
	Archive     ArchiveConfig `mapstructure:"archive"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", DefaultFeedURL)
	v.SetDefault("feed.timeout", 30*time.Second)
	v.SetDefault("corridor", DefaultCorridor)
	v.SetDefault("stale_window", DefaultStaleWindow)
	v.SetDefault("schedule", 0)
	v.SetDefault("log_level", "debug")
	v.SetDefault("progress", false)
	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("store.postgres_url", DefaultPostgresURL)
	v.SetDefault("store.connect_attempts", 3)
	v.SetDefault("store.kafka_broker_list", "")
	v.SetDefault("store.output_path", "")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.output_path", "archive")
	v.SetDefault("archive.destination", "local")
	v.SetDefault("archive.region", "us-west-2")
	v.SetDefault("archive.bucket_name", "")
}

// LoadConfig reads the configuration using Viper. A missing file is only an
// error when cfgFile was given explicitly.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".cotraffic")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("cotraffic")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHookFunc(),
			config.DecodeHook,
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (cfg *Config) Once() bool {
	return cfg.Schedule == 0
}

func (cfg *Config) Interval() time.Duration {
	return time.Duration(cfg.Schedule) * time.Second
}

// secondsToDurationHookFunc lets config files give durations as a bare
// number of seconds ("stale_window: 300").
func secondsToDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		}
		return data, nil
	}
}
