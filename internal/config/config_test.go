package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefault(t *testing.T) {
	t.Setenv("PORT", "9999")
	cfg := Default()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RoomCodeDigits != 4 {
		t.Fatalf("expected 4 code digits, got %d", cfg.RoomCodeDigits)
	}
	if cfg.RecentGamesWindow != 24*time.Hour {
		t.Fatalf("expected 24h recent window, got %s", cfg.RecentGamesWindow)
	}
	if !cfg.LogGameUpdates {
		t.Fatal("expected game update logging on by default")
	}
	if cfg.Client.CheckOffline != 10 || cfg.Client.MinimumAppVersion != 2 {
		t.Fatalf("unexpected client settings %#v", cfg.Client)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RECENT_GAMES_WINDOW", "2h")
	t.Setenv("CLIENT_UPDATE_FREQUENT", "0.5")
	t.Setenv("LOG_GAME_UPDATES", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.RecentGamesWindow != 2*time.Hour {
		t.Fatalf("expected 2h, got %s", cfg.RecentGamesWindow)
	}
	if cfg.Client.UpdateFrequent != 0.5 {
		t.Fatalf("expected 0.5, got %v", cfg.Client.UpdateFrequent)
	}
	if cfg.LogGameUpdates {
		t.Fatal("expected game update logging disabled")
	}
}

func TestLoadRejectsBadDigits(t *testing.T) {
	t.Setenv("ROOM_CODE_DIGITS", "12")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for 12 digit codes")
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("EXPLAIN_IT_TEST_A=file\nEXPLAIN_IT_TEST_B=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("EXPLAIN_IT_TEST_A", "process")
	t.Cleanup(func() { os.Unsetenv("EXPLAIN_IT_TEST_B") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("EXPLAIN_IT_TEST_A"); got != "process" {
		t.Fatalf("expected process value kept, got %q", got)
	}
	if got := os.Getenv("EXPLAIN_IT_TEST_B"); got != "file" {
		t.Fatalf("expected file value loaded, got %q", got)
	}
}

func TestLoggerLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "DEBUG"
	if got := cfg.Logger(io.Discard).GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", got)
	}
	cfg.LogLevel = "chatty"
	if got := cfg.Logger(io.Discard).GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %v", got)
	}
}

func TestLoadDotEnvFirstFileWins(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	if err := os.WriteFile(local, []byte("EXPLAIN_IT_TEST_C=local\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	if err := os.WriteFile(shared, []byte("EXPLAIN_IT_TEST_C=shared\nEXPLAIN_IT_TEST_D=shared\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("EXPLAIN_IT_TEST_C")
		os.Unsetenv("EXPLAIN_IT_TEST_D")
	})

	if err := LoadDotEnv(local, filepath.Join(dir, "missing.env"), shared); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("EXPLAIN_IT_TEST_C"); got != "local" {
		t.Fatalf("expected local value, got %q", got)
	}
	if got := os.Getenv("EXPLAIN_IT_TEST_D"); got != "shared" {
		t.Fatalf("expected shared value, got %q", got)
	}
}
