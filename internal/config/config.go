package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort            string  `mapstructure:"SERVER_PORT"`
	RedisAddr             string  `mapstructure:"REDIS_ADDR"`
	RedisPassword         string  `mapstructure:"REDIS_PASSWORD"`
	ThrottleEnabled       bool    `mapstructure:"THROTTLE_ENABLED"`
	ThrottleWindowSeconds float64 `mapstructure:"THROTTLE_WINDOW_SECONDS"`
	LocationHistoryCap    int     `mapstructure:"LOCATION_HISTORY_CAP"`
	SpeedRecordCap        int     `mapstructure:"SPEED_RECORD_CAP"`
	BulkMaxBatch          int     `mapstructure:"BULK_MAX_BATCH"`
}

func Load() Config {
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("THROTTLE_ENABLED", true)
	viper.SetDefault("THROTTLE_WINDOW_SECONDS", 2.0)
	viper.SetDefault("LOCATION_HISTORY_CAP", 200)
	viper.SetDefault("SPEED_RECORD_CAP", 50)
	viper.SetDefault("BULK_MAX_BATCH", 50)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}

// ThrottleWindow converts the configured window to a duration.
func (c Config) ThrottleWindow() time.Duration {
	return time.Duration(c.ThrottleWindowSeconds * float64(time.Second))
}
