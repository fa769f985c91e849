package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"explain-it/internal/config"
)

const migrationsDir = "db/migrations"

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	create := flag.String("create", "", "scaffold a new migration pair with this name")
	flag.Parse()

	dotenvErr := config.LoadDotEnv(".env.local", ".env")
	cfg, err := config.Load()
	logger := cfg.Logger(os.Stderr)
	if dotenvErr != nil {
		logger.Warn().Err(dotenvErr).Msg("failed to load .env")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	if *create != "" {
		up, downPath, err := createMigration(migrationsDir, *create, time.Now().UTC())
		if err != nil {
			logger.Fatal().Err(err).Msg("create migration")
		}
		logger.Info().Str("up", up).Str("down", downPath).Msg("migration created")
		return
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	m, err := migrate.New("file://"+migrationsDir, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("migration setup failed")
	}
	if err := run(m, *down); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	version, dirty, _ := m.Version()
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("database migrations applied")
}

func run(m *migrate.Migrate, down int) error {
	var err error
	if down > 0 {
		err = m.Steps(-down)
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func createMigration(dir, name string, now time.Time) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", errors.New("migration name is required")
	}
	if strings.ContainsAny(name, " /\\") {
		return "", "", errors.New("migration name must not contain spaces or slashes")
	}
	base := fmt.Sprintf("%s_%s", now.Format("20060102150405"), name)
	upPath := filepath.Join(dir, base+".up.sql")
	downPath := filepath.Join(dir, base+".down.sql")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create migrations dir: %w", err)
	}
	if err := writeFile(upPath, "-- up migration\n"); err != nil {
		return "", "", fmt.Errorf("create up migration: %w", err)
	}
	if err := writeFile(downPath, "-- down migration\n"); err != nil {
		return "", "", fmt.Errorf("create down migration: %w", err)
	}
	return upPath, downPath, nil
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
