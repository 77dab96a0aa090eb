package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	// DBDriver selects the message store backend: "sqlite" or "postgres".
	DBDriver    string
	SQLitePath  string
	DatabaseURL string

	JWTSecret            string
	AccessTokenHours     int
	EncryptKey           string
	EncryptionLegacyKeys []string

	UploadDir   string
	CORSOrigins []string
	Debug       bool

	// Heartbeat tuning for the websocket connection lifecycle.
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	WriteTimeout      time.Duration

	HistoryPageSize int
}

// UploadSubdirs lists the subdirectories created under UploadDir.
var UploadSubdirs = []string{"profiles", "wallpapers", "files", "voice"}

func Load() (*Config, error) {
	dbHost := getEnv("POSTGRES_HOST", "localhost")
	dbPort := getEnv("POSTGRES_PORT", "5432")
	dbUser := getEnv("POSTGRES_USER", "postgres")
	dbPass := getEnv("POSTGRES_PASSWORD", "postgres")
	dbName := getEnv("POSTGRES_DB", "whisperlink")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPass),
		Host:     fmt.Sprintf("%s:%s", dbHost, dbPort),
		Path:     dbName,
		RawQuery: "sslmode=disable",
	}

	cfg := &Config{
		AppName: getEnv("APP_NAME", "WhisperLink Chat API"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("HTTP_PORT", 8000),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "whisperlink.db"),
		DatabaseURL: u.String(),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTokenHours: getEnvAsInt("ACCESS_TOKEN_EXPIRE_HOURS", 24*7),
		EncryptKey:       os.Getenv("ENCRYPTION_KEY"),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		Debug:     getEnvAsBool("DEBUG", true),

		HeartbeatInterval: getEnvAsDuration("WS_HEARTBEAT_INTERVAL", 20*time.Second),
		HeartbeatTimeout:  getEnvAsDuration("WS_HEARTBEAT_TIMEOUT", 60*time.Second),
		WriteTimeout:      getEnvAsDuration("WS_WRITE_TIMEOUT", 10*time.Second),

		HistoryPageSize: getEnvAsInt("HISTORY_PAGE_SIZE", 50),
	}

	if legacy := getEnv("ENCRYPTION_LEGACY_KEYS", ""); legacy != "" {
		for _, k := range strings.Split(legacy, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.EncryptionLegacyKeys = append(cfg.EncryptionLegacyKeys, k)
			}
		}
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be 'sqlite' or 'postgres', got %q", cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EncryptKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if cfg.HeartbeatTimeout <= cfg.HeartbeatInterval {
		return nil, fmt.Errorf("WS_HEARTBEAT_TIMEOUT must exceed WS_HEARTBEAT_INTERVAL")
	}

	for _, sub := range UploadSubdirs {
		if err := os.MkdirAll(filepath.Join(cfg.UploadDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating upload dir: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenHours) * time.Hour
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
