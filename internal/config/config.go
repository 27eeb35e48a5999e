package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        string
	LogLevel    string
	LogPretty   bool
	DatabaseURL string

	Countdown        time.Duration
	ResultsDelay     time.Duration
	GameOverDelay    time.Duration
	LobbyReturnDelay time.Duration
	ReconnectWindow  time.Duration

	MessagesPerSecond   float64
	MessageBurst        int
	CategoryPresetsFile string
}

// Load reads .env when present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("[config] could not read .env")
	}

	return Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvBool("LOG_PRETTY", true),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		Countdown:        getEnvDuration("COUNTDOWN_MS", 3*time.Second),
		ResultsDelay:     getEnvDuration("RESULTS_DELAY_MS", 3*time.Second),
		GameOverDelay:    getEnvDuration("GAME_OVER_DELAY_MS", 5*time.Second),
		LobbyReturnDelay: getEnvDuration("LOBBY_RETURN_DELAY_MS", 30*time.Second),
		ReconnectWindow:  getEnvDuration("RECONNECT_WINDOW_MS", 5*time.Minute),

		MessagesPerSecond:   getEnvFloat("MESSAGES_PER_SECOND", 20),
		MessageBurst:        getEnvInt("MESSAGE_BURST", 40),
		CategoryPresetsFile: os.Getenv("CATEGORY_PRESETS_FILE"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration reads a millisecond count.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}
