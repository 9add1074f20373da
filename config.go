package main

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the service. Business constants
// (shipping threshold, fees, cart TTL, order prefix) live here so no
// call site hardcodes them.
type Config struct {
	Port     string
	Env      string
	MongoURL string
	MongoDB  string
	RedisURL string

	CartTTL time.Duration

	FreeShippingThreshold int64
	StandardShippingFee   int64
	OrderNumberPrefix     string

	OrderEventsTopicARN string
}

// LoadConfig reads configuration from environment variables with
// sensible local defaults.
func LoadConfig() Config {
	return Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("APP_ENV", "development"),
		MongoURL: getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "medicare"),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		CartTTL: getEnvDuration("CART_TTL", 30*24*time.Hour),

		FreeShippingThreshold: getEnvInt64("FREE_SHIPPING_THRESHOLD", 500000),
		StandardShippingFee:   getEnvInt64("STANDARD_SHIPPING_FEE", 30000),
		OrderNumberPrefix:     getEnv("ORDER_NUMBER_PREFIX", "MD"),

		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
