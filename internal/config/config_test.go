package config

import (
	"testing"
	"time"
)

var keys = []string{
	"DATABASE_URL", "HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT", "LOCK_IDLE_TTL",
	"HAND_SIZE", "STARTER_FLIPS", "MAX_DRAW", "TWO_SEAT_REVERSE_SKIPS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	// set but empty, so a stray .env cannot fill them in
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/uno")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":8080" || c.LogLevel != "info" || c.LogFormat != "json" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.LockIdleTTL != 24*time.Hour {
		t.Fatalf("LockIdleTTL = %s, want 24h", c.LockIdleTTL)
	}
	opts := c.GameOptions()
	if opts.HandSize != 7 || opts.StarterFlips != 20 || opts.MaxDraw != 10 || !opts.TwoSeatReverseSkips {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/uno")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("HAND_SIZE", "5")
	t.Setenv("TWO_SEAT_REVERSE_SKIPS", "false")
	t.Setenv("LOCK_IDLE_TTL", "90m")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":9000" || c.HandSize != 5 || c.TwoSeatReverseSkips || c.LockIdleTTL != 90*time.Minute {
		t.Fatalf("overrides not applied: %+v", c)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"missing database", "DATABASE_URL", ""},
		{"hand size not a number", "HAND_SIZE", "seven"},
		{"hand size zero", "HAND_SIZE", "0"},
		{"max draw negative", "MAX_DRAW", "-1"},
		{"bad bool", "TWO_SEAT_REVERSE_SKIPS", "maybe"},
		{"bad duration", "LOCK_IDLE_TTL", "soon"},
		{"negative duration", "LOCK_IDLE_TTL", "-1h"},
		{"bad format", "LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATABASE_URL", "postgres://localhost/uno")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}
