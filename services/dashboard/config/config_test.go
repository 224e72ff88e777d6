package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "API_PORT", "GATEWAY_SERIAL_PORT", "GATEWAY_BAUD_RATE", "GATEWAY_FORMAT",
		"GATEWAY_START_COMMAND", "GATEWAY_STOP_COMMAND", "GATEWAY_AUTO_CONNECT",
		"GATEWAY_READ_BUFFER", "GATEWAY_REPLAY_FILE", "GATEWAY_REPLAY_INTERVAL",
		"GATEWAY_REPLAY_CHUNK", "GATEWAY_REPLAY_LOOP", "DASHBOARD_COLLATION", "DASHBOARD_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, frame.FormatLegacy, cfg.Format)
	assert.Equal(t, 4096, cfg.ReadBuffer)
	assert.Equal(t, 50*time.Millisecond, cfg.ReplayInterval)
	assert.False(t, cfg.AutoConnect)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_PORT", "9000")
	t.Setenv("GATEWAY_SERIAL_PORT", "/dev/ttyUSB0")
	t.Setenv("GATEWAY_BAUD_RATE", "57600")
	t.Setenv("GATEWAY_FORMAT", "json")
	t.Setenv("GATEWAY_AUTO_CONNECT", "true")
	t.Setenv("GATEWAY_START_COMMAND", "SYS_STATUS")
	t.Setenv("DASHBOARD_ORIGINS", "http://localhost:3000, https://dash.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 57600, cfg.BaudRate)
	assert.Equal(t, frame.FormatProfile, cfg.Format)
	assert.True(t, cfg.AutoConnect)
	assert.Equal(t, "SYS_STATUS", cfg.StartCommand)
	assert.Equal(t, []string{"http://localhost:3000", "https://dash.example.com"}, cfg.AllowedOrigins)

	assert.True(t, cfg.OriginAllowed("https://dash.example.com"))
	assert.False(t, cfg.OriginAllowed("https://evil.example.com"))
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"PORT":                    "abc",
		"GATEWAY_BAUD_RATE":       "-1",
		"GATEWAY_FORMAT":          "xml",
		"GATEWAY_AUTO_CONNECT":    "maybe",
		"GATEWAY_READ_BUFFER":     "0",
		"GATEWAY_REPLAY_INTERVAL": "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAutoConnectNeedsTransport(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEWAY_AUTO_CONNECT", "1")

	_, err := Load()
	assert.Error(t, err)
}
