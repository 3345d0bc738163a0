package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iamasit07/drop4/pkg/logger"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	FrontendURL    string
	JWTSecret      string
	GameTokenTTL   time.Duration
	LogLevel       string

	Oracle OracleConfig

	RedisURL      string
	RedisPassword string

	KafkaBrokers  []string
	KafkaTopic    string
	KafkaUser     string
	KafkaPassword string

	GameIdleTTL     time.Duration
	CleanupInterval time.Duration
}

type OracleConfig struct {
	Provider      string // "openai" or "local"
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	MaxAttempts   int
	Fallback      string // "lowest", "easy", "medium" or "hard"
	Difficulty    string // strategy used by the local provider
	RatePerSecond float64
	Burst         int
	CacheTTL      time.Duration
}

var AppConfig *Config

func LoadConfig() *Config {
	port := GetEnv("PORT", "8080")

	// Frontend & CORS
	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:5173")
	allowedOrigins := []string{frontendURL}
	allowedOrigins = append(allowedOrigins, GetEnvAsList("ALLOWED_ORIGINS")...)

	// Security
	jwtSecret := GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production")

	apiKey := GetEnv("ORACLE_API_KEY", GetEnv("OPENAI_API_KEY", ""))
	provider := GetEnv("ORACLE_PROVIDER", "")
	if provider == "" {
		if apiKey != "" {
			provider = "openai"
		} else {
			provider = "local"
		}
	}

	oracle := OracleConfig{
		Provider:      strings.ToLower(provider),
		APIKey:        apiKey,
		BaseURL:       strings.TrimRight(GetEnv("ORACLE_BASE_URL", "https://api.openai.com/v1"), "/"),
		Model:         GetEnv("ORACLE_MODEL", "gpt-4o-mini"),
		Timeout:       GetEnvAsDuration("ORACLE_TIMEOUT_SECONDS", 20, time.Second),
		MaxAttempts:   GetEnvAsInt("ORACLE_MAX_ATTEMPTS", 3),
		Fallback:      strings.ToLower(GetEnv("ORACLE_FALLBACK", "lowest")),
		Difficulty:    strings.ToLower(GetEnv("ORACLE_DIFFICULTY", "medium")),
		RatePerSecond: GetEnvAsFloat("ORACLE_RATE_PER_SECOND", 2),
		Burst:         GetEnvAsInt("ORACLE_BURST", 4),
		CacheTTL:      GetEnvAsDuration("ORACLE_CACHE_TTL_MINUTES", 60, time.Minute),
	}

	AppConfig = &Config{
		Port:            port,
		AllowedOrigins:  allowedOrigins,
		FrontendURL:     frontendURL,
		JWTSecret:       jwtSecret,
		GameTokenTTL:    GetEnvAsDuration("GAME_TOKEN_TTL_HOURS", 24, time.Hour),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		Oracle:          oracle,
		RedisURL:        GetEnv("REDIS_URL", ""),
		RedisPassword:   GetEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    GetEnvAsList("KAFKA_BROKERS"),
		KafkaTopic:      GetEnv("KAFKA_TOPIC", "game-events"),
		KafkaUser:       GetEnv("KAFKA_USER", ""),
		KafkaPassword:   GetEnv("KAFKA_PASSWORD", ""),
		GameIdleTTL:     GetEnvAsDuration("GAME_IDLE_TTL_MINUTES", 60, time.Minute),
		CleanupInterval: GetEnvAsDuration("CLEANUP_INTERVAL_MINUTES", 5, time.Minute),
	}

	return AppConfig
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case "openai":
		if c.Oracle.APIKey == "" {
			return fmt.Errorf("ORACLE_API_KEY is required for the openai provider")
		}
	case "local":
	default:
		return fmt.Errorf("unknown ORACLE_PROVIDER %q", c.Oracle.Provider)
	}

	switch c.Oracle.Fallback {
	case "lowest", "easy", "medium", "hard":
	default:
		return fmt.Errorf("unknown ORACLE_FALLBACK %q", c.Oracle.Fallback)
	}

	if c.Oracle.MaxAttempts < 1 {
		return fmt.Errorf("ORACLE_MAX_ATTEMPTS must be at least 1")
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT_SECONDS must be positive")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Warn("CONFIG", "Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Warn("CONFIG", "Invalid number for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsDuration reads an integer count of unit.
func GetEnvAsDuration(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(GetEnvAsInt(key, defaultValue)) * unit
}

// GetEnvAsList splits a comma separated value, dropping blanks.
func GetEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
