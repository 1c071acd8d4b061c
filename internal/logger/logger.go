package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New создаёт логгер с уровнем level ("debug", "info", ...).
// pretty включает человекочитаемый вывод вместо JSON.
func New(level string, pretty bool) zerolog.Logger {
	var writer io.Writer = os.Stderr
	if pretty {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	return NewWithWriter(writer, ParseLevel(level))
}

func NewWithWriter(writer io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel разбирает уровень; неизвестное значение даёт info.
func ParseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}
