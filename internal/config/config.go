package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

const minJWTSecretBytes = 32

// Config is the process-wide configuration, constructed once at startup and
// passed to the components that need it.
type Config struct {
	ListenAddr      string
	Database        DatabaseConfig
	Auth            AuthConfig
	MonitoringToken string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxIdleMinutes     int
	ConnMaxLifetimeMinutes int
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
	Issuer          string
}

// ConnString builds a lib/pq connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: getEnvOrDefault("LISTEN_ADDR", ":8080"),
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "password"),
			Name:     getEnvOrDefault("DB_NAME", "books"),
			SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),

			MaxOpenConns:           getIntEnvOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:           getIntEnvOrDefault("DB_MAX_IDLE_CONNS", 25),
			ConnMaxIdleMinutes:     getIntEnvOrDefault("DB_CONN_MAX_IDLE_MINUTES", 5),
			ConnMaxLifetimeMinutes: getIntEnvOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		},
		Auth: AuthConfig{
			JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
			TokenTTLMinutes: getIntEnvOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
			Issuer:          getEnvOrDefault("JWT_ISSUER", "book-management-api"),
		},
		MonitoringToken: strings.TrimSpace(os.Getenv("MONITORING_TOKEN")),
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if len(cfg.Auth.JWTSecret) < minJWTSecretBytes {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretBytes)
	}

	return cfg, nil
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("Invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}

	return value
}
