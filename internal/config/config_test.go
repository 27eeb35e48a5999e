package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "LOG_PRETTY", "DATABASE_URL", "COUNTDOWN_MS",
	"RESULTS_DELAY_MS", "GAME_OVER_DELAY_MS", "LOBBY_RETURN_DELAY_MS",
	"RECONNECT_WINDOW_MS", "MESSAGES_PER_SECOND", "MESSAGE_BURST",
	"CATEGORY_PRESETS_FILE",
}

func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 3*time.Second, cfg.Countdown)
	assert.Equal(t, 3*time.Second, cfg.ResultsDelay)
	assert.Equal(t, 5*time.Second, cfg.GameOverDelay)
	assert.Equal(t, 30*time.Second, cfg.LobbyReturnDelay)
	assert.Equal(t, 5*time.Minute, cfg.ReconnectWindow)
	assert.Equal(t, 20.0, cfg.MessagesPerSecond)
	assert.Equal(t, 40, cfg.MessageBurst)
	assert.Empty(t, cfg.CategoryPresetsFile)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("DATABASE_URL", "postgres://localhost/basta")
	t.Setenv("COUNTDOWN_MS", "500")
	t.Setenv("RECONNECT_WINDOW_MS", "60000")
	t.Setenv("MESSAGES_PER_SECOND", "2.5")
	t.Setenv("MESSAGE_BURST", "5")
	t.Setenv("CATEGORY_PRESETS_FILE", "presets.csv")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, "postgres://localhost/basta", cfg.DatabaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Countdown)
	assert.Equal(t, time.Minute, cfg.ReconnectWindow)
	assert.Equal(t, 2.5, cfg.MessagesPerSecond)
	assert.Equal(t, 5, cfg.MessageBurst)
	assert.Equal(t, "presets.csv", cfg.CategoryPresetsFile)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("COUNTDOWN_MS", "abc")
	t.Setenv("RESULTS_DELAY_MS", "-5")
	t.Setenv("MESSAGE_BURST", "lots")
	t.Setenv("LOG_PRETTY", "maybe")

	cfg := Load()

	assert.Equal(t, 3*time.Second, cfg.Countdown)
	assert.Equal(t, 3*time.Second, cfg.ResultsDelay)
	assert.Equal(t, 40, cfg.MessageBurst)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_ZeroDelayAllowed(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOBBY_RETURN_DELAY_MS", "0")

	cfg := Load()

	assert.Equal(t, time.Duration(0), cfg.LobbyReturnDelay)
}
