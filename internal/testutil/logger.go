package testutil

import (
	"io"
	"log/slog"

	"github.com/dtroode/leads-server/internal/logger"
)

// MakeNoopLogger returns a logger that discards every record.
func MakeNoopLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, int(slog.LevelDebug))
}
