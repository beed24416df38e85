package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	LogFile            string
	BusinessTimezone   string
	CORSAllowedOrigins []string
	AdminJWTSecret     string

	// Document store backend: memory, redis, postgres, sqlite, dynamodb, s3.
	StoreBackend    string
	DatabaseURL     string
	SQLitePath      string
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	DocumentsTable  string
	DocumentsBucket string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	EventsQueueURL      string

	// Conversational AI
	LLMProvider           string
	GeminiAPIKey          string
	GeminiChatModel       string
	GeminiExtractionModel string
	BedrockModelID        string
	VoiceCheckInterval    time.Duration
	VoiceMinTurns         int

	// Outbound calling (VAPI)
	VAPIAPIKey        string
	VAPIBaseURL       string
	VAPIWebhookSecret string
	PhoneRegion       string

	// Public chat rate limit per client IP.
	ChatRatePerSecond float64
	ChatBurst         int

	MetricsEnabled bool

	BusinessSettingsFile string
	SeedDemoData         bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is honoured when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		BusinessTimezone:   getEnv("BUSINESS_TIMEZONE", "Australia/Sydney"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),

		StoreBackend:    strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", "memory"))),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SQLitePath:      getEnv("SQLITE_PATH", "arcticflow.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		DocumentsTable:  getEnv("DOCUMENTS_TABLE", "arcticflow_documents"),
		DocumentsBucket: getEnv("DOCUMENTS_BUCKET", ""),

		AWSRegion:           getEnv("AWS_REGION", "ap-southeast-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		EventsQueueURL:      getEnv("EVENTS_QUEUE_URL", ""),

		LLMProvider:           strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "gemini"))),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiChatModel:       getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
		GeminiExtractionModel: getEnv("GEMINI_EXTRACTION_MODEL", "gemini-2.5-flash"),
		BedrockModelID:        getEnv("BEDROCK_MODEL_ID", ""),
		VoiceCheckInterval:    getEnvAsDuration("VOICE_CHECK_INTERVAL", 12*time.Second),
		VoiceMinTurns:         getEnvAsInt("VOICE_MIN_TURNS", 5),

		VAPIAPIKey:        getEnv("VAPI_API_KEY", ""),
		VAPIBaseURL:       getEnv("VAPI_BASE_URL", "https://api.vapi.ai"),
		VAPIWebhookSecret: getEnv("VAPI_WEBHOOK_SECRET", ""),
		PhoneRegion:       getEnv("PHONE_REGION", "AU"),

		ChatRatePerSecond: getEnvAsFloat("CHAT_RATE_PER_SECOND", 1),
		ChatBurst:         getEnvAsInt("CHAT_BURST", 10),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),

		BusinessSettingsFile: getEnv("BUSINESS_SETTINGS_FILE", ""),
		SeedDemoData:         getEnvAsBool("SEED_DEMO_DATA", false),
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

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
