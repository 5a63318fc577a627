package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultSessionTTL    = 120 * time.Minute
	DefaultResetTokenTTL = 20 * time.Minute
)

// AppConfig holds everything outside of the database connection
type AppConfig struct {
	Port          string
	Env           string // "production" enables the Secure cookie flag
	DevMode       bool   // echoes reset tokens in responses when mail is not an option
	SessionSecret string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration

	AdminEmail    string // seed admin account, created at startup if missing
	AdminPassword string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string
	BaseURL  string // used in reset mails to link back to the portal
}

// LoadAppConfig loads application configuration from environment variables
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:          getEnv("SERVER_PORT", "8080"),
		Env:           getEnv("APP_ENV", "development"),
		SessionSecret: os.Getenv("SESSION_SECRET_KEY"),
		SessionTTL:    getEnvMinutes("SESSION_TTL_MINUTES", DefaultSessionTTL),
		ResetTokenTTL: getEnvMinutes("RESET_TOKEN_TTL_MINUTES", DefaultResetTokenTTL),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      os.Getenv("SMTP_PORT"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		MailFrom:      getEnv("MAIL_FROM", os.Getenv("SMTP_USER")),
		BaseURL:       getEnv("BASE_URL", "http://localhost:3000"),
	}
	cfg.DevMode = getEnv("DEV_MODE", "") == "true" || cfg.Env != "production"

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET_KEY not set in environment")
	}
	return cfg, nil
}

// Production reports whether the service runs in a production posture
func (c *AppConfig) Production() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvMinutes(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	minutes, err := strconv.Atoi(v)
	if err != nil || minutes <= 0 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}
