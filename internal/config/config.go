package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the API server
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	RedisURI string

	AdminUsername string
	AdminPassword string
	JWTSecret     string

	CORSAllowedOrigins string

	LogLevel  string
	LogFormat string

	// Hot-lead ranking size returned by GET /v1/leads/hot
	HotLeadLimit int
	// TTL in seconds for cached analytics responses
	AnalyticsCacheTTL int
}

// Load reads configuration from the environment, with an optional .env file
func Load() *Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		MongoURI: getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnvOrDefault("MONGO_DB", "leadscore"),
		RedisURI: getEnvOrDefault("REDIS_URI", "localhost:6379"),

		AdminUsername: getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", "password123"),
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "super-secret-key-change-in-production"),

		CORSAllowedOrigins: getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		HotLeadLimit:      getEnvIntOrDefault("HOT_LEAD_LIMIT", 10),
		AnalyticsCacheTTL: getEnvIntOrDefault("ANALYTICS_CACHE_TTL", 300),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
