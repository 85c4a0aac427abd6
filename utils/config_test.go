package utils

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SENTIMENT_PROVIDER", "")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SentimentProvider != "huggingface" {
		t.Errorf("expected default provider huggingface, got %q", cfg.SentimentProvider)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("SENTIMENT_PROVIDER", "watson")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error for unknown provider")
	}
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "eight-thousand")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error for non-numeric port")
	}
}
