package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	AgentModeDirect    = "direct"
	AgentModeDelegated = "delegated"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Agent    AgentConfig
	Cleanup  CleanupConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// AgentConfig selects and tunes the AI backend. Mode "direct" talks to an
// OpenAI-compatible chat-completions endpoint with primary/fallback models;
// mode "delegated" forwards the three agent operations to a separate service.
type AgentConfig struct {
	Mode string

	// Direct provider mode
	APIKey        string
	BaseURL       string
	PrimaryModel  string
	FallbackModel string
	Temperature   float32
	MaxTokens     int
	Timeout       time.Duration

	// Delegated service mode
	ServiceURL     string
	ServiceTimeout time.Duration

	// Shared retry policy around each operation
	RetryMaxAttempts int
	RetryDelay       time.Duration
}

type CleanupConfig struct {
	Schedule  string
	Retention time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pre_view"),
		},
		Agent: AgentConfig{
			Mode:             getEnv("AGENT_MODE", AgentModeDirect),
			APIKey:           getEnv("AGENT_API_KEY", ""),
			BaseURL:          getEnv("AGENT_BASE_URL", "https://api.groq.com/openai/v1"),
			PrimaryModel:     getEnv("AGENT_PRIMARY_MODEL", "qwen/qwen3-32b"),
			FallbackModel:    getEnv("AGENT_FALLBACK_MODEL", "llama-3.3-70b-versatile"),
			Temperature:      getEnvAsFloat32("AGENT_TEMPERATURE", 0.5),
			MaxTokens:        getEnvAsInt("AGENT_MAX_TOKENS", 800),
			Timeout:          getEnvAsDuration("AGENT_TIMEOUT", "60s"),
			ServiceURL:       getEnv("AGENT_SERVICE_URL", "http://localhost:8000"),
			ServiceTimeout:   getEnvAsDuration("AGENT_SERVICE_TIMEOUT", "60s"),
			RetryMaxAttempts: getEnvAsInt("AGENT_RETRY_MAX_ATTEMPTS", 3),
			RetryDelay:       getEnvAsDuration("AGENT_RETRY_DELAY", "2s"),
		},
		Cleanup: CleanupConfig{
			Schedule:  getEnv("CLEANUP_SCHEDULE", "0 3 * * *"),
			Retention: getEnvAsDuration("CLEANUP_RETENTION", "720h"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
