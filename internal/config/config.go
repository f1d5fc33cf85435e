package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	CORSOrigins    []string
	AdminJWTSecret string

	// Inference provider
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	AnalyzeTimeout time.Duration
	MaxTokens      int

	// Token pricing in USD per million tokens
	InputPricePerMillion  float64
	OutputPricePerMillion float64

	// Outbound webhook delivery
	DeliveryTimeout time.Duration

	// Ingest
	// MonitoredChannelIDs is the raw CHANNEL_IDS value: "ALL" (or empty)
	// monitors every channel, otherwise a comma-separated id allow-list.
	MonitoredChannelIDs string
	UseMemoryQueue      bool
	WorkerCount         int
	IngestQueueKey      string
	// IngestRateLimit is requests/sec per IP on the ingest endpoint;
	// zero disables the limiter.
	IngestRateLimit float64
	IngestBurst     int

	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CORSOrigins:    splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		AnalyzeTimeout: getEnvAsDuration("ANALYZE_TIMEOUT", 30*time.Second),
		MaxTokens:      getEnvAsInt("OPENAI_MAX_TOKENS", 1024),

		InputPricePerMillion:  getEnvAsFloat("PRICE_INPUT_PER_MILLION", 0.050),
		OutputPricePerMillion: getEnvAsFloat("PRICE_OUTPUT_PER_MILLION", 0.400),

		DeliveryTimeout: getEnvAsDuration("DELIVERY_TIMEOUT", 10*time.Second),

		MonitoredChannelIDs: getEnv("CHANNEL_IDS", "ALL"),
		UseMemoryQueue:      getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:         getEnvAsInt("WORKER_COUNT", 2),
		IngestQueueKey:      getEnv("INGEST_QUEUE_KEY", "triage:ingest"),
		IngestRateLimit:     getEnvAsFloat("INGEST_RATE_LIMIT", 0),
		IngestBurst:         getEnvAsInt("INGEST_BURST", 20),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
