package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// SMTPConfig holds mail-transport settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config holds all application settings, loaded once at startup and passed
// down explicitly.
type Config struct {
	ServerPort        string
	UploadsDir        string
	JWTSecret         string
	AccessTokenTTL    time.Duration
	CookieExpiresDays int
	CookieSecure      bool
	SMTP              SMTPConfig
}

// Load reads application configuration from environment variables
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	jwtExpHours := int64(24)
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("Invalid JWT_EXPIRATION_HOURS, defaulting to 24: %v", err)
		} else {
			jwtExpHours = parsed
		}
	}

	cookieDays := 90
	if v := os.Getenv("JWT_COOKIE_EXPIRES_DAYS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Invalid JWT_COOKIE_EXPIRES_DAYS, defaulting to 90: %v", err)
		} else {
			cookieDays = parsed
		}
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}

	smtpPort := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Invalid SMTP_PORT, defaulting to 587: %v", err)
		} else {
			smtpPort = parsed
		}
	}

	return &Config{
		ServerPort:        serverPort,
		UploadsDir:        uploadsDir,
		JWTSecret:         jwtSecret,
		AccessTokenTTL:    time.Duration(jwtExpHours) * time.Hour,
		CookieExpiresDays: cookieDays,
		CookieSecure:      os.Getenv("COOKIE_SECURE") == "true",
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("EMAIL_FROM"),
		},
	}, nil
}
