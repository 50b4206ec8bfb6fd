package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Push     PushConfig
	Queue    QueueConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds the secret used to verify identity tokens
type JWTConfig struct {
	Secret string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// PushConfig holds device push configuration
type PushConfig struct {
	Endpoint  string
	ServerKey string
}

// QueueConfig holds queue automation settings
type QueueConfig struct {
	NoShowGrace          time.Duration
	QuotaResetCron       string
	NoShowCron           string
	SSEHeartbeat         time.Duration
	DefaultPriorityLimit int
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Log:      loadLogConfig(appMode),
		Push: PushConfig{
			Endpoint:  getEnv("PUSH_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
			ServerKey: getEnv("PUSH_SERVER_KEY", ""),
		},
		Queue: QueueConfig{
			NoShowGrace:          time.Duration(getEnvInt("NO_SHOW_GRACE_MINUTES", 30)) * time.Minute,
			QuotaResetCron:       getEnv("QUOTA_RESET_CRON", "0 0 * * *"),
			NoShowCron:           getEnv("NO_SHOW_CRON", "*/5 * * * *"),
			SSEHeartbeat:         time.Duration(getEnvInt("SSE_HEARTBEAT_SECONDS", 30)) * time.Second,
			DefaultPriorityLimit: getEnvInt("DEFAULT_PRIORITY_LIMIT", 3),
		},
	}

	if config.IsProd() && config.JWT.Secret == defaultJWTSecret {
		return nil, fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}

	// Set global config
	AppConfig = config

	log.Info().Str("mode", appMode).Msg("configuration loaded")
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "salonq"),
	}
}

const defaultJWTSecret = "default_secret"

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	return JWTConfig{
		Secret: getEnv(modePrefix(mode)+"JWT_SECRET", defaultJWTSecret),
	}
}

// loadLogConfig loads logging config; dev defaults to console output
func loadLogConfig(mode string) LogConfig {
	format := "json"
	level := "info"
	if mode == "dev" {
		format = "console"
		level = "debug"
	}
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", level),
		Format: getEnv("LOG_FORMAT", format),
		File:   getEnv("LOG_FILE", ""),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://app.salonq.io"
	}
	return origins
}
