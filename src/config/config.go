package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Security settings
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	TokenEncryptionKey string
	MaxUploadSizeBytes int64
	AllowedOrigins     []string

	// Import settings
	MaxImportRows int
	ImportLockTTL time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Broker API settings
	KiteBaseURL     string
	KiteHTTPTimeout time.Duration
	SyncSchedule    string

	// Reporting
	AnalyticsCacheTTL time.Duration
	DisplayCurrency   string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	defaults := Defaults()

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", strconv.FormatInt(defaults.MaxUploadSizeBytes, 10))
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = defaults.MaxUploadSizeBytes
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", defaults.Port),
		DatabasePath: getEnv("DATABASE_PATH", defaults.DatabasePath),
		LogLevel:     getEnv("LOG_LEVEL", defaults.LogLevel),

		JWTSecret:          getRequiredEnv("JWT_SECRET"),
		AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", defaults.AccessTokenExpiry),
		TokenEncryptionKey: getRequiredEnv("TOKEN_ENCRYPTION_KEY"),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", defaults.AllowedOrigins),

		MaxImportRows: getEnvAsInt("MAX_IMPORT_ROWS", defaults.MaxImportRows),
		ImportLockTTL: getEnvAsDuration("IMPORT_LOCK_TTL", defaults.ImportLockTTL),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		KiteBaseURL:     getEnv("KITE_BASE_URL", defaults.KiteBaseURL),
		KiteHTTPTimeout: getEnvAsDuration("KITE_HTTP_TIMEOUT", defaults.KiteHTTPTimeout),
		SyncSchedule:    getEnv("SYNC_SCHEDULE", ""),

		AnalyticsCacheTTL: getEnvAsDuration("ANALYTICS_CACHE_TTL", defaults.AnalyticsCacheTTL),
		DisplayCurrency:   getEnv("DISPLAY_CURRENCY", defaults.DisplayCurrency),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, KiteBaseURL=%s, SyncSchedule=%q",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.KiteBaseURL, Cfg.SyncSchedule)
}

// Defaults returns a configuration with every optional value set and no secrets.
// The CLI and the tests start from it instead of the environment.
func Defaults() *AppConfig {
	return &AppConfig{
		Port:               "8080",
		DatabasePath:       "./tradejournal.db",
		LogLevel:           "info",
		AccessTokenExpiry:  24 * time.Hour,
		MaxUploadSizeBytes: 10 * 1024 * 1024,
		AllowedOrigins:     []string{"http://localhost:3000"},
		MaxImportRows:      20000,
		ImportLockTTL:      2 * time.Minute,
		KiteBaseURL:        "https://api.kite.trade",
		KiteHTTPTimeout:    20 * time.Second,
		AnalyticsCacheTTL:  15 * time.Minute,
		DisplayCurrency:    "INR",
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start securely.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList retrieves a comma-separated environment variable as a trimmed list.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
