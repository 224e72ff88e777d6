package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
)

const (
	defaultInterval = 10 * time.Second
	defaultTop      = 5
	defaultMinDelta = 5
	defaultBaudRate = 115200
)

// Config holds runtime configuration for the monitor service.
type Config struct {
	SerialPort   string
	BaudRate     int
	Format       frame.Format
	StartCommand string
	StopCommand  string
	ReplayFile   string

	Interval time.Duration
	Duration time.Duration
	Top      int
	MinDelta int
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		BaudRate: defaultBaudRate,
		Format:   frame.FormatLegacy,
		Interval: defaultInterval,
		Top:      defaultTop,
		MinDelta: defaultMinDelta,
	}

	cfg.SerialPort = strings.TrimSpace(os.Getenv("GATEWAY_SERIAL_PORT"))
	cfg.ReplayFile = strings.TrimSpace(os.Getenv("GATEWAY_REPLAY_FILE"))
	if cfg.SerialPort == "" && cfg.ReplayFile == "" {
		return cfg, errors.New("GATEWAY_SERIAL_PORT or GATEWAY_REPLAY_FILE is required")
	}

	if v := strings.TrimSpace(os.Getenv("GATEWAY_BAUD_RATE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid GATEWAY_BAUD_RATE: %s", v)
		}
		cfg.BaudRate = n
	}

	if v := strings.TrimSpace(os.Getenv("GATEWAY_FORMAT")); v != "" {
		f, err := frame.ParseFormat(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid GATEWAY_FORMAT: %w", err)
		}
		cfg.Format = f
	}

	cfg.StartCommand = os.Getenv("GATEWAY_START_COMMAND")
	cfg.StopCommand = os.Getenv("GATEWAY_STOP_COMMAND")

	if v := strings.TrimSpace(os.Getenv("MONITOR_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid MONITOR_INTERVAL: %w", err)
		}
		if d <= 0 {
			return cfg, fmt.Errorf("invalid MONITOR_INTERVAL: %s", v)
		}
		cfg.Interval = d
	}

	if v := strings.TrimSpace(os.Getenv("MONITOR_DURATION")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid MONITOR_DURATION: %w", err)
		}
		cfg.Duration = d
	}

	if v := strings.TrimSpace(os.Getenv("MONITOR_TOP")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid MONITOR_TOP: %s", v)
		}
		cfg.Top = n
	}

	if v := strings.TrimSpace(os.Getenv("MONITOR_MIN_DELTA")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid MONITOR_MIN_DELTA: %s", v)
		}
		cfg.MinDelta = n
	}

	return cfg, nil
}
