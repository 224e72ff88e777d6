// Package logger provides JSON structured logging using zerolog
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var globalLogger zerolog.Logger

type Config struct {
	Level      string
	Debug      bool
	Output     string
	TimeFormat string
}

func init() {
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = time.RFC3339
}

// ConfigFromEnv reads LOG_LEVEL, DEBUG, LOG_OUTPUT and LOG_TIME_FORMAT.
func ConfigFromEnv() Config {
	return Config{
		Level:      getEnvOrDefault("LOG_LEVEL", "info"),
		Debug:      getEnvBool("DEBUG"),
		Output:     getEnvOrDefault("LOG_OUTPUT", "stdout"),
		TimeFormat: os.Getenv("LOG_TIME_FORMAT"),
	}
}

func Init(config Config) error {
	var output io.Writer = os.Stdout

	switch config.Output {
	case "stderr":
		output = os.Stderr
	case "console":
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return err
		}
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	globalLogger = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = globalLogger

	return nil
}

func Fatal() *zerolog.Event {
	return globalLogger.Fatal()
}

func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvBool(key string) bool {
	value := strings.ToLower(os.Getenv(key))

	return value == "true" || value == "1" || value == "yes" || value == "on"
}
