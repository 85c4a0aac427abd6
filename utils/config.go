package utils

import (
	"os"

	"github.com/go-playground/validator/v10"
)

// Config collects the environment the server needs up front so a bad
// deployment fails at startup instead of on the first request. The data
// loader owns GOOGLE_DRIVE_FILE_ID: its absence is a recoverable data
// error, not a startup failure.
type Config struct {
	SentimentProvider string `validate:"oneof=huggingface openai"`
	Port              string `validate:"required,numeric"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		SentimentProvider: envDefault("SENTIMENT_PROVIDER", "huggingface"),
		Port:              envDefault("PORT", "8080"),
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
