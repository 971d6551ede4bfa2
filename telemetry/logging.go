package telemetry

import (
	"io"
	"log/slog"
	"strings"
)

// SetupLogging installs the default slog logger from LOG_LEVEL / LOG_FORMAT style values.
// Defaults: level=info, format=text. An unknown level keeps info and is reported once.
func SetupLogging(w io.Writer, level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	unknown := false
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		unknown = true
	}

	var handler slog.Handler
	format = strings.ToLower(format)
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		format = "text"
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	if unknown {
		logger.Warn("unknown LOG_LEVEL, using info", slog.String("value", level))
	}
	logger.Debug("logger initialized", slog.String("level", lvl.String()), slog.String("format", format))
	return logger
}
