// Package config provides environment configuration helpers for the
// analyzer commands.
package config

import (
	"os"
	"strconv"
)

// Defaults for the analyzer service.
const (
	DefaultPort      = "5001"
	DefaultLocation  = "Divisoria"
	DefaultStatsFile = "data/tracking_statistics.json"
	DefaultModelPath = "models/yolov8n.onnx"
)

// Port returns the HTTP listen port from PORT or the default.
func Port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// LogLevel returns the log level from LOG_LEVEL or "info".
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

// DatabaseURL returns the Postgres connection string from DB_URL.
// Empty means the database sink is disabled.
func DatabaseURL() string {
	return os.Getenv("DB_URL")
}

// StatsFile returns the JSON statistics file path from STATS_FILE or the default.
func StatsFile() string {
	if f := os.Getenv("STATS_FILE"); f != "" {
		return f
	}
	return DefaultStatsFile
}

// ModelPath returns the detector model path from MODEL_PATH or the default.
func ModelPath() string {
	if m := os.Getenv("MODEL_PATH"); m != "" {
		return m
	}
	return DefaultModelPath
}

// VideoSource returns the stream to open at startup from VIDEO_SOURCE.
// Empty means no stream is started until one is requested via the API.
func VideoSource() string {
	return os.Getenv("VIDEO_SOURCE")
}

// Location returns the location label from LOCATION or the default.
func Location() string {
	if loc := os.Getenv("LOCATION"); loc != "" {
		return loc
	}
	return DefaultLocation
}

// IntEnv returns the integer value of name, or fallback when unset or invalid.
func IntEnv(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
