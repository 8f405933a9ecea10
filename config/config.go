package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Session configuration
	CodeLength          int
	CodeMaxAttempts     int
	DefaultMaxListeners int

	// Reaction configuration
	ReactionCooldown time.Duration
	PersistReactions bool

	// Lock / timeout configuration
	SessionLockTimeout time.Duration
	OperationTimeout   time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Sessions
		CodeLength:          getEnvAsInt("SESSION_CODE_LENGTH", 6),
		CodeMaxAttempts:     getEnvAsInt("SESSION_CODE_MAX_ATTEMPTS", 5),
		DefaultMaxListeners: getEnvAsInt("SESSION_MAX_PARTICIPANTS", 50),

		// Reactions
		ReactionCooldown: getEnvAsDuration("REACTION_COOLDOWN", "1500ms"),
		PersistReactions: getEnvAsBool("PERSIST_REACTIONS", false),

		// Locks / timeouts
		SessionLockTimeout: getEnvAsDuration("SESSION_LOCK_TIMEOUT", "10s"),
		OperationTimeout:   getEnvAsDuration("OPERATION_TIMEOUT", "5s"),

		// Rate limiting
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
