package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DBURL          string
	Port           string
	RabbitMQURL    string
	AllowedOrigins []string
	RelayInterval  time.Duration
	EventsEnabled  bool
}

func LoadConfig() (*Config, error) {
	// .env is optional, deployments set env vars directly
	_ = godotenv.Load()

	cfg := &Config{
		DBURL:       os.Getenv("DB_URL"),
		Port:        os.Getenv("PORT"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
	}

	if cfg.DBURL == "" {
		log.Error().Msg("DB_URL environment variable is not set")
		return nil, errors.New("DB_URL is required")
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.EventsEnabled = cfg.RabbitMQURL != ""
	if !cfg.EventsEnabled {
		log.Info().Msg("RABBITMQ_URL not set, customer event publishing disabled")
	}

	origins := os.Getenv("ALLOWED_ORIGINS")
	if origins == "" {
		cfg.AllowedOrigins = []string{"*"}
	} else {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	cfg.RelayInterval = 10 * time.Second
	if raw := os.Getenv("RELAY_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			log.Warn().Str("value", raw).Msg("invalid RELAY_INTERVAL, using default 10s")
		} else {
			cfg.RelayInterval = interval
		}
	}

	return cfg, nil
}
