package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string

	// Message throttle: MessageBudget sends per RateWindow per identity.
	MessageBudget int
	RateWindow    time.Duration

	// Quiet period before a typing indicator is auto-stopped.
	TypingTimeout time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		MessageBudget:   getEnvAsInt("MESSAGE_RATE_BUDGET", 30),
		RateWindow:      time.Duration(getEnvAsInt("MESSAGE_RATE_WINDOW_SECONDS", 60)) * time.Second,
		TypingTimeout:   time.Duration(getEnvAsInt("TYPING_TIMEOUT_SECONDS", 5)) * time.Second,
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
