package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL      string
	RedisAddr        string
	Port             string
	Env              string
	SeparationAPIURL string
	SeparationAPIKey string
	WebhookSecret    string
	PollInterval     time.Duration
	MaxPollDuration  time.Duration
	JobRetentionDays int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		Port:             os.Getenv("PORT"),
		Env:              os.Getenv("ENV"),
		SeparationAPIURL: os.Getenv("SEPARATION_API_URL"),
		SeparationAPIKey: os.Getenv("SEPARATION_API_KEY"),
		WebhookSecret:    os.Getenv("BILLING_WEBHOOK_SECRET"),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}

	cfg.PollInterval = envDuration("POLL_INTERVAL", 2*time.Second)
	cfg.MaxPollDuration = envDuration("MAX_POLL_DURATION", 10*time.Minute)
	cfg.JobRetentionDays = envInt("JOB_RETENTION_DAYS", 30)

	return cfg
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return n
}
