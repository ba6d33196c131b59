package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global zerolog logger for env and returns a cleanup func.
// Outside prod it writes human readable lines to stdout at debug level.
// In prod it writes JSON to logs/labourconnect.log and stdout at info level.
func Setup(env string) func() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if env != "prod" {
		log.Logger = log.Level(zerolog.DebugLevel).Output(zerolog.ConsoleWriter{Out: os.Stdout})
		return func() {}
	}

	outputs := []io.Writer{os.Stdout}
	cleanup := func() {}

	logDir := "logs"
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Warn().Err(err).Msg("failed to create log dir, logging to stdout only")
	} else {
		logPath := filepath.Join(logDir, "labourconnect.log")
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn().Err(err).Str("path", logPath).Msg("failed to open log file, logging to stdout only")
		} else {
			outputs = append(outputs, f)
			cleanup = func() { _ = f.Close() }
		}
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(outputs...)).
		Level(zerolog.InfoLevel).
		With().Timestamp().Str("app", "labourconnect").Logger()
	return cleanup
}
