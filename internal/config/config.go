package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type GeminiConfig struct {
	ApiKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type FetchConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

type LoggerConfig struct {
	LogLevel string
}

type AppConfig struct {
	Environment string
	PSQL        PostgresConfig
	Server      struct {
		Address string
	}
	Logging LoggerConfig
	Gemini  GeminiConfig
	Fetch   FetchConfig
}

func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}

func LoadEnvConfig(envFiles ...string) (*AppConfig, error) {
	var cfg AppConfig
	err := godotenv.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg.Environment = GetEnvOrDie("ENVIRONMENT")

	// DB
	cfg.PSQL = DefaultPostgresConfig()

	// Server
	cfg.Server.Address = GetEnvOrDie("SERVER_ADDRESS")

	cfg.Logging = LoggerConfig{
		LogLevel: GetEnvWithDefault("LOG_LEVEL", "info"),
	}

	// Gemini
	maxRetries, err := strconv.Atoi(GetEnvWithDefault("GEMINI_MAX_RETRIES", "2"))
	if err != nil {
		return nil, fmt.Errorf("parsing GEMINI_MAX_RETRIES: %w", err)
	}
	cfg.Gemini = GeminiConfig{
		ApiKey:     GetEnvOrDie("GEMINI_API_KEY"),
		Model:      GetEnvWithDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Timeout:    30 * time.Second,
		MaxRetries: maxRetries,
	}

	// Page fetching
	fetchTimeout, err := strconv.Atoi(GetEnvWithDefault("FETCH_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("parsing FETCH_TIMEOUT_SECONDS: %w", err)
	}
	cfg.Fetch = FetchConfig{
		Timeout:      time.Duration(fetchTimeout) * time.Second,
		MaxBodyBytes: 2 << 20,
		UserAgent:    GetEnvWithDefault("FETCH_USER_AGENT", "Mozilla/5.0 (compatible; linkhive/1.0)"),
	}

	return &cfg, nil
}

func GetEnvWithDefault(envName, defaultValue string) string {
	if value := os.Getenv(envName); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvOrDie(envName string) string {
	value := os.Getenv(envName)
	if value == "" {
		panic("Environment variable " + envName + " is not set")
	}
	return value
}
