// Package config loads application configuration from environment variables.
// In development a .env file is read via godotenv; in production the
// variables come from the deployment environment directly.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL builds a pgx-compatible connection string.
func (c *DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// UploadConfig holds file-storage settings for fiscal XML uploads.
type UploadConfig struct {
	Dir     string // local storage directory (development)
	BaseURL string // base URL files are served from
}

// R2Config holds Cloudflare R2 / S3-compatible storage credentials.
// When AccountID is empty the server falls back to local disk storage.
type R2Config struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// Config is the full application configuration.
type Config struct {
	Port         string
	JWTSecret    string
	DB           DBConfig
	Upload       UploadConfig
	R2           R2Config
	ReformAPIURL string // external NCM-based reform-tax calculation service
	XMLBatchMax  int    // max import ids accepted per batch request
}

// Load reads configuration from the environment, applying defaults
// suitable for local development. Returns an error when a required
// value (JWT secret) is absent.
func Load() (*Config, error) {
	// Best effort: absent .env is fine in production
	_ = godotenv.Load()

	cfg := &Config{
		Port:      envOr("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		DB: DBConfig{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     envOr("DB_PORT", "5432"),
			User:     envOr("DB_USER", "postgres"),
			Password: envOr("DB_PASSWORD", "postgres"),
			Name:     envOr("DB_NAME", "tributech"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
		},
		Upload: UploadConfig{
			Dir:     envOr("UPLOAD_DIR", "uploads"),
			BaseURL: envOr("UPLOAD_BASE_URL", "/api/files"),
		},
		R2: R2Config{
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
			Bucket:    envOr("R2_BUCKET", "tributech-xml"),
			PublicURL: os.Getenv("R2_PUBLIC_URL"),
		},
		ReformAPIURL: os.Getenv("REFORM_API_URL"),
		XMLBatchMax:  envIntOr("XML_BATCH_MAX", 50),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
