package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisPass    string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB int    `mapstructure:"REDIS_QUEUE_DB"`

	// Booking engine knobs.
	HorizonDays        int           `mapstructure:"BOOKING_HORIZON_DAYS"`
	SlotGranularityMin int           `mapstructure:"SLOT_GRANULARITY_MINUTES"`
	MaxRetryAttempts   int           `mapstructure:"BOOKING_MAX_RETRIES"`
	RetryBaseDelay     time.Duration `mapstructure:"BOOKING_RETRY_BASE_DELAY"`
	MaxAlternatives    int           `mapstructure:"BOOKING_MAX_ALTERNATIVES"`
	AvailabilityTTL    time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("BOOKING_HORIZON_DAYS", 30)
	viper.SetDefault("SLOT_GRANULARITY_MINUTES", 30)
	viper.SetDefault("BOOKING_MAX_RETRIES", 3)
	viper.SetDefault("BOOKING_RETRY_BASE_DELAY", time.Second)
	viper.SetDefault("BOOKING_MAX_ALTERNATIVES", 3)
	viper.SetDefault("AVAILABILITY_CACHE_TTL", 2*time.Minute)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
