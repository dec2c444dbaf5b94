package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env and .env.local when present. Variables already set
// in the process environment are never overwritten.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if err := godotenv.Load(name); err == nil {
			slog.Debug("Loaded environment variables", "path", name)
		}
	}
}
