package config

import (
	"fmt"
	"strings"
)

// PostgresConfig holds the connection settings for the bookmark store.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DbName   string
	SslMode  string
}

// DefaultPostgresConfig reads the connection settings from the
// environment, with localhost defaults suitable for development.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     GetEnvWithDefault("POSTGRES_HOST", "localhost"),
		Port:     GetEnvWithDefault("POSTGRES_PORT", "5432"),
		User:     GetEnvWithDefault("POSTGRES_USER", "postgres"),
		Password: GetEnvWithDefault("POSTGRES_PASS", "postgres"),
		DbName:   GetEnvWithDefault("DB_NAME", "postgres"),
		SslMode:  GetEnvWithDefault("POSTGRES_SSLMODE", "disable"),
	}
}

func (cfg PostgresConfig) sslMode() string {
	if cfg.SslMode == "" {
		return "disable"
	}
	return cfg.SslMode
}

// PgConnectionString builds the URL form used by the migration runner.
func (cfg PostgresConfig) PgConnectionString(options ...string) string {
	options = append(options, "sslmode="+cfg.sslMode())
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DbName, strings.Join(options, "&"))
}

// String renders the keyword/value form pgxpool parses.
func (cfg PostgresConfig) String() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DbName, cfg.sslMode())
}
