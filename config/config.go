package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Env     string
	WebURL  string
	BaseURL string

	DBConnectionString string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	SessionKey      string
	SessionTTL      time.Duration
	CatalogCacheTTL time.Duration

	DefaultWhatsappNumber string

	SMTP SMTPConfig
}

type SMTPConfig struct {
	Server       string
	Port         int
	Username     string
	Password     string
	From         string
	ResetSubject string
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %v", err)
		}
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8000"),
		Env:                   getEnv("APP_ENV", "production"),
		WebURL:                getEnv("WEB_URL", "http://localhost:3000"),
		DBConnectionString:    os.Getenv("DB_CONNECTION_STRING"),
		RedisHost:             getEnv("REDIS_HOST", "localhost"),
		RedisPort:             getEnv("REDIS_PORT", "6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		SessionKey:            os.Getenv("SESSION_KEY"),
		DefaultWhatsappNumber: getEnv("DEFAULT_WHATSAPP_NUMBER", "919529989096"),
		SMTP: SMTPConfig{
			Server:       os.Getenv("EMAIL_SMTP_SERVER"),
			Username:     os.Getenv("EMAIL_SMTP_USERNAME"),
			Password:     os.Getenv("EMAIL_SMTP_PASSWORD"),
			From:         os.Getenv("EMAIL_MESSAGE_FROM"),
			ResetSubject: getEnv("EMAIL_RESET_SUBJECT", "Reset your password"),
		},
	}
	cfg.BaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port)

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CatalogCacheTTL, err = getDuration("CATALOG_CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}

	if raw := getEnv("EMAIL_SMTP_PORT", "587"); raw != "" {
		if cfg.SMTP.Port, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("EMAIL_SMTP_PORT: %v", err)
		}
	}

	if cfg.DBConnectionString == "" {
		return nil, fmt.Errorf("please provide DB_CONNECTION_STRING environment variable")
	}
	if cfg.SessionKey == "" {
		return nil, fmt.Errorf("please provide SESSION_KEY environment variable")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", key, err)
	}
	return d, nil
}
