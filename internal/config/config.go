package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StorageFS     = "fs"
	StorageMemory = "memory"
	StorageS3     = "s3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Blob storage configuration
	Storage StorageConfig

	// Upload limits
	Upload UploadConfig

	// Bearer token verification
	Auth AuthConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// StorageConfig selects and configures the blob store
type StorageConfig struct {
	Backend   string // "fs", "memory" or "s3"
	Dir       string
	URLPrefix string
	S3        S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicURL       string
}

// UploadConfig holds image upload limits
type UploadConfig struct {
	MaxImageSize      int64 // in bytes
	AllowedImageTypes []string
}

// AuthConfig holds settings for verifying externally issued tokens
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "news_publishing"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", StorageFS)),
			Dir:       getEnv("STORAGE_DIR", "./data/storage"),
			URLPrefix: getEnv("STORAGE_URL_PREFIX", "/storage"),
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				UsePathStyle:    getBoolEnv("S3_USE_PATH_STYLE", false),
				PublicURL:       getEnv("S3_PUBLIC_URL", ""),
			},
		},
		Upload: UploadConfig{
			MaxImageSize:      getInt64Env("UPLOAD_MAX_IMAGE_SIZE", 2*1024*1024), // 2MB
			AllowedImageTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer: getEnv("AUTH_JWT_ISSUER", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	switch c.Storage.Backend {
	case StorageFS:
		if c.Storage.Dir == "" {
			return fmt.Errorf("STORAGE_DIR is required for the fs backend")
		}
	case StorageMemory:
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Upload.MaxImageSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_IMAGE_SIZE must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
