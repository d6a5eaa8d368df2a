package env

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Load reads environment files into the process environment, without overriding
// variables that are already set. Missing files are skipped. With no paths it reads .env.
func Load(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Error().Err(err).Str("path", path).Msg("Failed to load env file")
			}
			continue
		}
		log.Debug().Str("path", path).Msg("Loaded env file")
	}
}
