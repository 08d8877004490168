// Package main is the entry point for the svcbind CLI.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/svcbind/svcbind/cmd/svcbind/app"
)

// getLogLevel parses the SVCBIND_LOG_LEVEL environment variable and returns
// the corresponding slog.Level. Falls back to LOG_LEVEL.
// Defaults to slog.LevelInfo if neither is set or if the value is invalid.
func getLogLevel() slog.Level {
	levelStr := os.Getenv("SVCBIND_LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
		return slog.LevelInfo
	}
}

func main() {
	// Use stderr to keep stdout clean for commands that output data
	// (e.g. resolve and version --format json).
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: getLogLevel()})
	slog.SetDefault(slog.New(handler))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
