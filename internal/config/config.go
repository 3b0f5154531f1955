package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"tinyuno/internal/game"
)

// Config holds process settings read from the environment.
type Config struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	LogFormat   string
	LockIdleTTL time.Duration

	HandSize            int
	StarterFlips        int
	MaxDraw             int
	TwoSeatReverseSkips bool
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	c := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFormat:   envOr("LOG_FORMAT", "json"),
	}
	if c.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}

	var err error
	if c.LockIdleTTL, err = durationEnv("LOCK_IDLE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if c.HandSize, err = intEnv("HAND_SIZE", 7, 1); err != nil {
		return Config{}, err
	}
	if c.StarterFlips, err = intEnv("STARTER_FLIPS", 20, 1); err != nil {
		return Config{}, err
	}
	if c.MaxDraw, err = intEnv("MAX_DRAW", 10, 1); err != nil {
		return Config{}, err
	}
	if c.TwoSeatReverseSkips, err = boolEnv("TWO_SEAT_REVERSE_SKIPS", true); err != nil {
		return Config{}, err
	}
	return c, nil
}

// GameOptions returns the rule settings for the engine.
func (c Config) GameOptions() game.Options {
	return game.Options{
		HandSize:            c.HandSize,
		StarterFlips:        c.StarterFlips,
		MaxDraw:             c.MaxDraw,
		TwoSeatReverseSkips: c.TwoSeatReverseSkips,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback, least int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n < least {
		return 0, fmt.Errorf("invalid %s %q: must be at least %d", key, v, least)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}
