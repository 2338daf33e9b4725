package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Postgres
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Content source
	WikiAPIURL string

	// AI
	LLMBaseURL        string
	LLMAPIKey         string
	ChatModelID       string
	EmbeddingModelID  string
	SpeechModelID     string

	// Audio
	AudioDir string

	// Graph
	EdgesLimit int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "wikigraph"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		WikiAPIURL:       getEnv("WIKI_API_URL", "https://en.wikipedia.org/w/api.php"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "http://localhost:4000"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		ChatModelID:      getEnv("CHAT_MODEL_ID", "gemini-2.0-flash"),
		EmbeddingModelID: getEnv("EMBEDDING_MODEL_ID", "text-embedding-004"),
		SpeechModelID:    getEnv("SPEECH_MODEL_ID", "tts-1"),
		AudioDir:         getEnv("AUDIO_DIR", "audio_artifacts"),
		EdgesLimit:       getEnvInt("EDGES_LIMIT", 20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}
	if c.WikiAPIURL == "" {
		return fmt.Errorf("WIKI_API_URL is required")
	}
	if c.LLMBaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL is required")
	}
	if c.ChatModelID == "" {
		return fmt.Errorf("CHAT_MODEL_ID is required")
	}
	if c.EmbeddingModelID == "" {
		return fmt.Errorf("EMBEDDING_MODEL_ID is required")
	}
	if c.EdgesLimit < 1 {
		return fmt.Errorf("EDGES_LIMIT must be positive")
	}
	// LLM API key is optional when running against a local gateway
	return nil
}

// DSN builds the Postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSLMode)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
