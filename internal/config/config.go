package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds the configuration for the application.
type Config struct {
	// TheMealDB client
	MealDBBaseURL   string        `validate:"required,url"`
	MealDBTimeout   time.Duration `validate:"gt=0"`
	MealDBRateLimit float64       `validate:"gte=0"`
	MealDBRateBurst int           `validate:"gte=0"`

	// Recipe cache; size 0 disables it
	RecipeCacheSize int           `validate:"gte=0"`
	RecipeCacheTTL  time.Duration `validate:"gte=0"`

	// Persistence
	StorageBackend string `validate:"oneof=file sqlite redis memory"`
	DataDir        string `validate:"required_if=StorageBackend file"`
	DatabasePath   string `validate:"required"`
	RedisAddr      string `validate:"required_if=StorageBackend redis"`
	RedisPassword  string
	RedisDB        int `validate:"gte=0"`
	RedisPrefix    string

	// Logging
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// Telegram Config (Optional for CLI, required for Bot)
	TelegramBotToken       string
	TelegramWebhookURL     string `validate:"omitempty,url"`
	TelegramAllowedUserIDs []int64
	Port                   string `validate:"required,numeric"`
}

var validate = validator.New()

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		MealDBBaseURL:      getEnv("MEALDB_BASE_URL", "https://www.themealdb.com/api/json/v1/1"),
		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
		DataDir:            getEnv("DATA_DIR", "data"),
		DatabasePath:       getEnv("DATABASE_PATH", "data/planneat.db"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisPrefix:        getEnv("REDIS_PREFIX", "planneat:"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "console")),
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramWebhookURL: getEnv("TELEGRAM_WEBHOOK_URL", ""),
		Port:               getEnv("PORT", "8080"),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	cfg.MealDBTimeout, err = getEnvDuration("MEALDB_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.MealDBRateLimit, err = getEnvFloat("MEALDB_RATE_LIMIT", 5)
	collect(err)
	cfg.MealDBRateBurst, err = getEnvInt("MEALDB_RATE_BURST", 5)
	collect(err)
	cfg.RecipeCacheSize, err = getEnvInt("RECIPE_CACHE_SIZE", 256)
	collect(err)
	cfg.RecipeCacheTTL, err = getEnvDuration("RECIPE_CACHE_TTL", 10*time.Minute)
	collect(err)
	cfg.RedisDB, err = getEnvInt("REDIS_DB", 0)
	collect(err)
	cfg.TelegramAllowedUserIDs, err = getEnvInt64List("TELEGRAM_ALLOWED_USER_IDS")
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ValidateBot checks the settings the Telegram bot cannot run without.
func (c *Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// IsUserAllowed reports whether a Telegram user may use the bot.
// An empty allow list admits nobody.
func (c *Config) IsUserAllowed(userID int64) bool {
	for _, id := range c.TelegramAllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

// getEnvInt64List parses a comma-separated list such as "123,456".
func getEnvInt64List(key string) ([]int64, error) {
	raw := os.Getenv(key)
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", key, part, err)
		}
		out = append(out, id)
	}
	return out, nil
}
