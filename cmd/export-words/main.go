package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"explain-it/internal/config"
	"explain-it/internal/db"
	"explain-it/internal/game"
	"explain-it/internal/store"
)

type wordSource interface {
	WordEvents(ctx context.Context, since time.Time, fn func(game.WordEvent) error) error
}

func main() {
	outPath := flag.String("out", "words.csv", "path to write, - for stdout")
	sinceFlag := flag.Duration("since", 30*24*time.Hour, "export words judged within this window")
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

	conn, err := db.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}

	since := time.Now().UTC().Add(-*sinceFlag)
	source := store.NewGorm(conn)
	var written int
	if *outPath == "-" {
		written, err = exportWords(context.Background(), source, since, os.Stdout)
	} else {
		written, err = exportToFile(context.Background(), source, since, *outPath)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("out", *outPath).Msg("export words")
	}
	logger.Info().Int("words", written).Str("out", *outPath).Msg("exported words")
}

// exportToFile writes the export to path. The file is closed before
// returning so a failed close is reported with the export result.
func exportToFile(ctx context.Context, source wordSource, since time.Time, path string) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	written, err := exportWords(ctx, source, since, file)
	if closeErr := file.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close output: %w", closeErr))
	}
	return written, err
}

func exportWords(ctx context.Context, source wordSource, since time.Time, out io.Writer) (int, error) {
	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"game_id", "word", "status", "time_guessed", "created_at"}); err != nil {
		return 0, err
	}
	written := 0
	err := source.WordEvents(ctx, since, func(event game.WordEvent) error {
		written++
		return writer.Write([]string{
			event.GameID,
			event.Word,
			string(event.Status),
			strconv.Itoa(event.TimeGuessed),
			event.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return written, err
	}
	writer.Flush()
	return written, writer.Error()
}
