package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendDatabase = "database"
	BackendRemote   = "remote"
)

const devJWTSecret = "slist-dev-secret"

// Config holds the configuration for the API server.
type Config struct {
	Port        string
	Env         string
	LogLevel    slog.Level
	FrontendURL string

	// Shopping list persistence
	StorageBackend string
	DataFile       string
	RemoteDataURL  string
	SeedFile       string
	ArchiveDir     string

	// Database (users, and documents when StorageBackend is "database")
	DatabaseDriver string
	DatabaseURL    string

	// Auth
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptRounds int
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getenv("APP_PORT", "8080"),
		Env:            getenv("APP_ENV", "development"),
		FrontendURL:    getenv("FRONTEND_URL", "http://localhost:3000"),
		StorageBackend: strings.ToLower(getenv("STORAGE_BACKEND", BackendFile)),
		DataFile:       getenv("DATA_FILE", "data/slist-data.json"),
		RemoteDataURL:  os.Getenv("REMOTE_DATA_URL"),
		SeedFile:       os.Getenv("SEED_FILE"),
		ArchiveDir:     os.Getenv("ARCHIVE_DIR"),
		DatabaseDriver: strings.ToLower(getenv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.StorageBackend {
	case BackendFile, BackendMemory:
	case BackendDatabase:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable not set")
		}
	case BackendRemote:
		if cfg.RemoteDataURL == "" {
			return nil, fmt.Errorf("REMOTE_DATA_URL environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET environment variable not set")
		}
		cfg.JWTSecret = devJWTSecret
	}

	ttl, err := time.ParseDuration(getenv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}
	cfg.JWTTTL = ttl

	rounds, err := strconv.Atoi(getenv("BCRYPT_ROUNDS", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_ROUNDS: %w", err)
	}
	if rounds < 4 || rounds > 31 {
		return nil, fmt.Errorf("BCRYPT_ROUNDS must be between 4 and 31")
	}
	cfg.BcryptRounds = rounds

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
