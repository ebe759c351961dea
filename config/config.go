package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Environment string
	Port        string
	LogLevel    string

	// AWS / DynamoDB
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	EventsTable        string
	InvitationsTable   string
	RSVPsTable         string
	UsersTable         string
	StudentsTable      string

	// Email
	EmailProvider    string
	EnableEmail      bool
	FromEmail        string
	FromName         string
	BaseURL          string
	OrganizationName string
	SupportEmail     string
	MaxRecipients    int
	EmailBatchDelay  time.Duration

	// Auth
	JWTSecret   string
	TokenExpiry time.Duration

	// Legacy calendar store kept alive during the DynamoDB migration.
	// Empty disables the fallback feed.
	LegacyDBUrl string

	CORSAllowedOrigins []string
}

// Load loads configuration from environment variables.
// It attempts to load from a .env file if not in production.
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production we rely on system environment variables only.
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{
		Environment: env,
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		AWSRegion:          getEnv("AWS_DEFAULT_REGION", "us-east-1"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		EventsTable:        getEnv("EVENTS_TABLE", "jcesports-db-events"),
		InvitationsTable:   getEnv("INVITATIONS_TABLE", "jcesports-db-invitations"),
		RSVPsTable:         getEnv("RSVPS_TABLE", "jcesports-db-rsvps"),
		UsersTable:         getEnv("USERS_TABLE", "jcesports-db-users"),
		StudentsTable:      getEnv("STUDENTS_TABLE", "jcesports-db"),

		EmailProvider:    getEnv("EMAIL_PROVIDER", "ses"),
		EnableEmail:      getEnv("ENABLE_EMAIL", "true") != "false",
		FromEmail:        getEnv("FROM_EMAIL", "noreply@jcesports.edu"),
		FromName:         getEnv("FROM_NAME", "Juniata College Esports"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		OrganizationName: getEnv("ORGANIZATION_NAME", "Juniata College Esports"),
		SupportEmail:     getEnv("SUPPORT_EMAIL", "support@jcesports.edu"),
		MaxRecipients:    getEnvInt("MAX_RECIPIENTS", 50),
		EmailBatchDelay:  getEnvDuration("EMAIL_BATCH_DELAY", 2*time.Second),

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenExpiry: getEnvDuration("TOKEN_EXPIRY", 24*time.Hour),

		LegacyDBUrl: os.Getenv("LEGACY_DATABASE_URL"),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = strings.Split(origins, ",")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
