// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the API service needs at startup.
type Config struct {
	// Port is the HTTP listen port.
	Port string
	// DatabasePath is the SQLite database file.
	DatabasePath string
	// JWTSecret signs and verifies access-gate tokens.
	JWTSecret string
	// ReceiptBucket enables receipt archiving when non-empty.
	ReceiptBucket string
	// GeminiModel is the extraction model name.
	GeminiModel string
}

// Load reads configuration. A missing .env file is fine; a missing JWT
// secret is not.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		DatabasePath:  getenv("LEDGER_DB", "ledger.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ReceiptBucket: os.Getenv("RECEIPT_BUCKET"),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-2.5-flash"),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
