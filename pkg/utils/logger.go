package utils

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	config "github.com/maheshrc27/postflow/configs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a JSON slog logger on stdout, teed into a rotating file
// when a log path is configured.
func NewLogger(cfg config.Log) *slog.Logger {
	var out io.Writer = os.Stdout

	if cfg.Path != "" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.Level)}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
