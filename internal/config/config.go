// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mvsouza/cakefund/internal/evidence"
)

// Config holds everything the server needs at startup.
type Config struct {
	ServerPort string
	DBPath     string
	LogLevel   slog.Level
	Cloudinary evidence.CloudinaryConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg := Config{
		ServerPort: envOr("PORT", "8080"),
		DBPath:     envOr("DB_PATH", "data/cakefund.db"),
		LogLevel:   parseLevel(os.Getenv("LOG_LEVEL")),
		Cloudinary: evidence.CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    envOr("CLOUDINARY_FOLDER", "evidence"),
		},
	}
	return cfg
}

// EvidenceConfigured reports whether the external media service can be used.
// Without credentials the server still runs, it just refuses file uploads.
func (c Config) EvidenceConfigured() bool {
	cld := c.Cloudinary
	return cld.CloudName != "" && cld.APIKey != "" && cld.APISecret != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
