package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	StoreDriver  string
	DatabasePath string // sqlite
	DatabaseURL  string // postgres

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenMinutes int
	RefreshTokenDays   int

	ClientURL      string
	ClientLoginURL string
	CORSOrigins    []string

	SMTPHost     string
	SMTPPort     int
	SMTPEmail    string
	SMTPPassword string

	RedisAddr string

	HistoryLimit int
	Debug        bool
}

func Load() (*Config, error) {
	cfg := &Config{
		AppName: getEnv("APP_NAME", "Task Management API"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("PORT", 8000),

		StoreDriver:  getEnv("STORE_DRIVER", DriverSQLite),
		DatabasePath: getEnv("DATABASE_PATH", "taskhub.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15),
		RefreshTokenDays:   getEnvAsInt("REFRESH_TOKEN_EXPIRE_DAYS", 7),

		ClientURL:      getEnv("CLIENT_URL", "http://localhost:5173"),
		ClientLoginURL: getEnv("CLIENT_LOGIN_URL", "http://localhost:5173/login"),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPEmail:    os.Getenv("MY_EMAIL"),
		SMTPPassword: os.Getenv("APP_PASSWORD"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		HistoryLimit: getEnvAsInt("HISTORY_LIMIT", 50),
		Debug:        getEnvAsBool("DEBUG", true),
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{cfg.ClientURL}
	}

	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether secure cookies should be used.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
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
