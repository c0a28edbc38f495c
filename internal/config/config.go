// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	TelegramToken string
	DoctorChatID  int64
	DefaultLocale string
}

// Load reads a .env file if present (ignored if missing) and then the
// process environment, applying defaults the same way cmd/server's teacher
// predecessor did with plain os.Getenv.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "tr-TR"),
	}
	if id, err := strconv.ParseInt(os.Getenv("DOCTOR_CHAT_ID"), 10, 64); err == nil {
		cfg.DoctorChatID = id
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
