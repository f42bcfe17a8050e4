package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/pathguard/internal/config"
)

// setupLogging points the global logger at the configured file. Stdout
// carries hook decisions, so nothing is logged there. If the file cannot be
// opened, logs go to stderr.
func setupLogging(cfg *config.Config) *os.File {
	level, err := zerolog.ParseLevel(cfg.Log.LevelOrDefault())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	f, err := openLogFile(cfg)
	if err != nil {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		log.Warn().Err(err).Msg("logging to stderr")
		return nil
	}
	log.Logger = zerolog.New(f).With().Timestamp().Int("pid", os.Getpid()).Logger()
	return f
}

func openLogFile(cfg *config.Config) (*os.File, error) {
	path, err := cfg.LogFileOrDefault()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
