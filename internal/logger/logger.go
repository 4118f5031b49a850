package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process-wide logger. JSON to stderr, unix timestamps;
// human-readable console output when ENV=development.
func New() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if os.Getenv("ENV") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return logger.Level(zerolog.InfoLevel)
}
