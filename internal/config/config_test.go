package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads; blank is treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NER_SERVER_URL", "NER_TIMEOUT", "SELECTION_FILE", "POLL_INTERVAL",
		"MASK_CACHE_SIZE", "CONTROL_ADDR", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.NERServerURL)
	assert.Equal(t, 60*time.Second, cfg.NERTimeout)
	assert.Equal(t, "selected_fields.json", cfg.SelectionFile)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 4096, cfg.CacheSize)
	assert.Empty(t, cfg.ControlAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.ErrorIs(t, cfg.RequireNER(), ErrMissingNERURL)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NER_SERVER_URL", " http://ner.internal:8000/ner ")
	t.Setenv("NER_TIMEOUT", "15s")
	t.Setenv("SELECTION_FILE", "/tmp/fields.json")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("MASK_CACHE_SIZE", "128")
	t.Setenv("CONTROL_ADDR", "127.0.0.1:8765")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://ner.internal:8000/ner", cfg.NERServerURL)
	assert.Equal(t, 15*time.Second, cfg.NERTimeout)
	assert.Equal(t, "/tmp/fields.json", cfg.SelectionFile)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 128, cfg.CacheSize)
	assert.Equal(t, "127.0.0.1:8765", cfg.ControlAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.NoError(t, cfg.RequireNER())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"NER_TIMEOUT", "soon"},
		{"NER_TIMEOUT", "-1s"},
		{"POLL_INTERVAL", "0s"},
		{"MASK_CACHE_SIZE", "lots"},
		{"MASK_CACHE_SIZE", "0"},
		{"LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
