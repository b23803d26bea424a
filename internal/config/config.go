package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gonkalabs/eraseme/internal/sanitize"
	"github.com/gonkalabs/eraseme/internal/sanitize/ner"
	"github.com/gonkalabs/eraseme/internal/selection"
	"github.com/gonkalabs/eraseme/internal/watcher"
)

// ErrMissingNERURL is returned by RequireNER when NER_SERVER_URL is unset.
var ErrMissingNERURL = errors.New("NER_SERVER_URL must be set")

// Cfg holds all runtime configuration loaded from environment variables.
type Cfg struct {
	// Remote tagger
	NERServerURL string        // NER_SERVER_URL=http://ner.internal:8000/ner
	NERTimeout   time.Duration // NER_TIMEOUT=60s

	// Selection written by the selection UI
	SelectionFile string // SELECTION_FILE=selected_fields.json

	// Watcher
	PollInterval time.Duration // POLL_INTERVAL=500ms
	CacheSize    int           // MASK_CACHE_SIZE=4096

	// Optional loopback control API; empty disables it
	ControlAddr string // CONTROL_ADDR=127.0.0.1:8765

	LogLevel slog.Level // LOG_LEVEL=info
}

// Load reads .env (if present) then environment variables and returns Cfg.
// A missing NER_SERVER_URL is not an error here; commands that call the
// tagger check it with RequireNER.
func Load() (*Cfg, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	nerTimeout, err := durationEnv("NER_TIMEOUT", ner.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	pollInterval, err := durationEnv("POLL_INTERVAL", watcher.DefaultInterval)
	if err != nil {
		return nil, err
	}

	cacheSize := sanitize.DefaultCacheSize
	if raw := strings.TrimSpace(os.Getenv("MASK_CACHE_SIZE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MASK_CACHE_SIZE must be a positive integer, got %q", raw)
		}
		cacheSize = n
	}

	selectionFile := strings.TrimSpace(os.Getenv("SELECTION_FILE"))
	if selectionFile == "" {
		selectionFile = selection.DefaultFile
	}

	logLevel := slog.LevelInfo
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if err := logLevel.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	return &Cfg{
		NERServerURL:  strings.TrimSpace(os.Getenv("NER_SERVER_URL")),
		NERTimeout:    nerTimeout,
		SelectionFile: selectionFile,
		PollInterval:  pollInterval,
		CacheSize:     cacheSize,
		ControlAddr:   strings.TrimSpace(os.Getenv("CONTROL_ADDR")),
		LogLevel:      logLevel,
	}, nil
}

// RequireNER reports ErrMissingNERURL when no tagging endpoint is configured.
func (c *Cfg) RequireNER() error {
	if c.NERServerURL == "" {
		return ErrMissingNERURL
	}
	return nil
}

// durationEnv parses a Go duration from key, falling back to def when unset.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}
