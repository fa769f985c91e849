package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads every env file in paths that exists. Earlier files win
// over later ones and the real environment wins over all of them.
func LoadDotEnv(paths ...string) error {
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		existing = append(existing, path)
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
