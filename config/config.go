package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Drafts  DraftConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type StorageConfig struct {
	// Backend is "file" (JSON day-files) or "postgres".
	Backend     string
	DataDir     string
	OutputDir   string
	DatabaseURL string
}

type AuthConfig struct {
	User string
	Pass string
}

type DraftConfig struct {
	TTL time.Duration
}

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", BackendFile),
			DataDir:     getEnv("DATA_DIR", "./data"),
			OutputDir:   getEnv("OUTPUT_DIR", "./invoices"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			User: getEnv("AUTH_USER", ""),
			Pass: getEnv("AUTH_PASS", ""),
		},
		Drafts: DraftConfig{
			TTL: getEnvDuration("DRAFT_TTL", 12*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s", "12h") or a bare
// number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs := getEnvInt(key, -1); secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
