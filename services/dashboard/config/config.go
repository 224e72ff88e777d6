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

// Config holds environment-driven settings for the dashboard service.
type Config struct {
	Port int

	SerialPort   string
	BaudRate     int
	Format       frame.Format
	StartCommand string
	StopCommand  string
	AutoConnect  bool
	ReadBuffer   int

	ReplayFile     string
	ReplayInterval time.Duration
	ReplayChunk    int
	ReplayLoop     bool

	Collation      string
	AllowedOrigins []string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:           8080,
		BaudRate:       115200,
		Format:         frame.FormatLegacy,
		ReadBuffer:     4096,
		ReplayInterval: 50 * time.Millisecond,
		ReplayChunk:    64,
		Collation:      "en",
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	cfg.SerialPort = os.Getenv("GATEWAY_SERIAL_PORT")
	cfg.ReplayFile = os.Getenv("GATEWAY_REPLAY_FILE")

	if baudStr := os.Getenv("GATEWAY_BAUD_RATE"); baudStr != "" {
		if baud, err := strconv.Atoi(baudStr); err == nil && baud > 0 {
			cfg.BaudRate = baud
		} else {
			return cfg, fmt.Errorf("invalid GATEWAY_BAUD_RATE: %s", baudStr)
		}
	}

	if formatStr := os.Getenv("GATEWAY_FORMAT"); formatStr != "" {
		format, err := frame.ParseFormat(formatStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid GATEWAY_FORMAT: %w", err)
		}
		cfg.Format = format
	}

	cfg.StartCommand = os.Getenv("GATEWAY_START_COMMAND")
	cfg.StopCommand = os.Getenv("GATEWAY_STOP_COMMAND")

	if autoStr := os.Getenv("GATEWAY_AUTO_CONNECT"); autoStr != "" {
		auto, err := strconv.ParseBool(autoStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid GATEWAY_AUTO_CONNECT: %s", autoStr)
		}
		cfg.AutoConnect = auto
	}

	if bufStr := os.Getenv("GATEWAY_READ_BUFFER"); bufStr != "" {
		if size, err := strconv.Atoi(bufStr); err == nil && size > 0 {
			cfg.ReadBuffer = size
		} else {
			return cfg, fmt.Errorf("invalid GATEWAY_READ_BUFFER: %s", bufStr)
		}
	}

	if intervalStr := os.Getenv("GATEWAY_REPLAY_INTERVAL"); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil || interval < 0 {
			return cfg, fmt.Errorf("invalid GATEWAY_REPLAY_INTERVAL: %s", intervalStr)
		}
		cfg.ReplayInterval = interval
	}

	if chunkStr := os.Getenv("GATEWAY_REPLAY_CHUNK"); chunkStr != "" {
		if chunk, err := strconv.Atoi(chunkStr); err == nil && chunk > 0 {
			cfg.ReplayChunk = chunk
		} else {
			return cfg, fmt.Errorf("invalid GATEWAY_REPLAY_CHUNK: %s", chunkStr)
		}
	}

	if loopStr := os.Getenv("GATEWAY_REPLAY_LOOP"); loopStr != "" {
		loop, err := strconv.ParseBool(loopStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid GATEWAY_REPLAY_LOOP: %s", loopStr)
		}
		cfg.ReplayLoop = loop
	}

	if cfg.AutoConnect && cfg.SerialPort == "" && cfg.ReplayFile == "" {
		return cfg, errors.New("GATEWAY_AUTO_CONNECT requires GATEWAY_SERIAL_PORT or GATEWAY_REPLAY_FILE")
	}

	if collation := os.Getenv("DASHBOARD_COLLATION"); collation != "" {
		cfg.Collation = collation
	}

	if origins := os.Getenv("DASHBOARD_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// OriginAllowed reports whether a browser origin may open the live stream.
// An empty allow-list accepts every origin.
func (c Config) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
