package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Context  ContextConfig
	Search   SearchConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	EntityTopic        string // watermill topic for entity change messages
}

type DatabaseConfig struct {
	Connection  string
	AutoMigrate bool
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
	Jina         string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama", "gemini", "openai" or "jina"
	EmbeddingModel    string // empty means the provider's default
	OllamaBaseURL     string
	OpenAIBaseURL     string
	GeminiBaseURL     string
	JinaBaseURL       string
	RetryAttempts     int
}

type ContextConfig struct {
	MaxTokens    int
	CacheBackend string // "memory" or "redis"
	CacheTTL     time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

type SearchConfig struct {
	Threshold float64
	Limit     int
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

var ErrMissingJwtSecret = errors.New("JWT_SECRET must be set in production")

// Validate rejects settings the server must not start with.
func (c *Config) Validate() error {
	if c.IsProduction() && c.App.JwtSecret == "" {
		return ErrMissingJwtSecret
	}
	return nil
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			EntityTopic:        getEnv("ENTITY_CHANGED_TOPIC_NAME", "ENTITY_CHANGED"),
		},
		Database: DatabaseConfig{
			Connection:  getEnv("DB_CONNECTION_STRING", ""),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			GeminiBaseURL:     getEnv("GEMINI_BASE_URL", ""),
			JinaBaseURL:       getEnv("JINA_BASE_URL", ""),
			RetryAttempts:     getEnvAsInt("EMBEDDING_RETRY_ATTEMPTS", 3),
		},
		Context: ContextConfig{
			MaxTokens:    getEnvAsInt("CONTEXT_MAX_TOKENS", 2000),
			CacheBackend: getEnv("CONTEXT_CACHE_BACKEND", "memory"),
			CacheTTL:     getEnvAsDuration("CONTEXT_CACHE_TTL", 10*time.Minute),
		},
		Search: SearchConfig{
			Threshold: getEnvAsFloat("SEARCH_THRESHOLD", 0.4),
			Limit:     getEnvAsInt("SEARCH_LIMIT", 10),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-novelwriter-backend"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
