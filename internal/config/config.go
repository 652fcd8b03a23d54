package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string
	MongoURI    string

	// Session tokens
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// Calendar provider
	CalendarLookaheadDays int

	// Recall.ai
	RecallAPIKey  string
	RecallBaseURL string

	// OpenAI
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Background loops. The cron overrides, when set, replace the fixed
	// intervals.
	BotSenderInterval  time.Duration
	BotManagerInterval time.Duration
	BotSenderCron      string
	BotManagerCron     string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENVIRONMENT", "development"),
		MongoURI:    getEnv("MONGODB_URI", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "meetscribe"),
		JWTTTL:    getDurationEnv("JWT_TTL", 12*time.Hour),

		CalendarLookaheadDays: getIntEnv("CALENDAR_LOOKAHEAD_DAYS", 30),

		RecallAPIKey:  getEnv("RECALL_API_KEY", ""),
		RecallBaseURL: getEnv("RECALL_API_BASE_URL", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_API_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", ""),

		BotSenderInterval:  getDurationEnv("BOT_SENDER_INTERVAL", time.Minute),
		BotManagerInterval: getDurationEnv("BOT_MANAGER_INTERVAL", time.Minute),
		BotSenderCron:      getEnv("BOT_SENDER_CRON", ""),
		BotManagerCron:     getEnv("BOT_MANAGER_CRON", ""),
	}
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
