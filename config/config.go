// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all application configuration.
type Config struct {
	// Database – DB_DRIVER selects postgres (default) or mysql.
	DBDriver string

	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// MySQL – used when DBDriver is mysql.
	MySQLDSN string

	// JWT signing secret for session cookies.
	JWTSecret string

	// Server
	Debug          bool
	Port           string
	TLSDomains     []string
	MaxUploadBytes int64

	// Photo store (any S3-compatible service).
	S3Bucket     string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	PhotoBaseURL string

	// PhotoCleanupTimeout bounds detached photo deletions.
	PhotoCleanupTimeout time.Duration
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	cfg := fromViper(newViper())
	if err := cfg.Validate(); err != nil {
		log.Fatal("config: ", err)
	}
	return cfg
}

func fromViper(v *viper.Viper) *Config {
	// Defaults
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_USER", "rungroop")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "rungroop")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("PORT", ":9000")
	v.SetDefault("TLS_DOMAINS", "rungroop.app,www.rungroop.app")
	v.SetDefault("DEBUG", false)
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("PHOTO_CLEANUP_TIMEOUT", "30s")

	cfg := &Config{
		DBDriver:            strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		DBUser:              v.GetString("DB_USER"),
		DBPass:              v.GetString("DB_PASS"),
		DBHost:              v.GetString("DB_HOST"),
		DBPort:              v.GetString("DB_PORT"),
		DBName:              v.GetString("DB_NAME"),
		DBSSLMode:           v.GetString("DB_SSLMODE"),
		MySQLDSN:            v.GetString("MYSQL_DSN"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		Debug:               v.GetBool("DEBUG"),
		Port:                v.GetString("PORT"),
		TLSDomains:          splitTrimmed(v.GetString("TLS_DOMAINS")),
		MaxUploadBytes:      v.GetInt64("MAX_UPLOAD_BYTES"),
		S3Bucket:            v.GetString("S3_BUCKET"),
		S3Region:            v.GetString("S3_REGION"),
		S3AccessKey:         v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:         v.GetString("S3_SECRET_KEY"),
		S3Endpoint:          v.GetString("S3_ENDPOINT"),
		PhotoBaseURL:        strings.TrimRight(v.GetString("PHOTO_BASE_URL"), "/"),
		PhotoCleanupTimeout: v.GetDuration("PHOTO_CLEANUP_TIMEOUT"),
	}

	if cfg.PhotoBaseURL == "" && cfg.S3Bucket != "" {
		cfg.PhotoBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	return cfg
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" && c.DBPass == "" {
			return fmt.Errorf("DATABASE_URL or DB_PASS must be set")
		}
	case DriverMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN must be set when DB_DRIVER=mysql")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET must be set")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.PhotoCleanupTimeout <= 0 {
		return fmt.Errorf("PHOTO_CLEANUP_TIMEOUT must be positive")
	}
	return nil
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
