package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/session"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/transport"
	"github.com/02loveslollipop/ble-gateway-viewer/services/monitor/internal/config"
)

func TestWatchReportsLastTickOnConnectionLoss(t *testing.T) {
	mem := transport.NewMemory()
	sess := session.New(session.Options{Opener: mem, Format: frame.FormatLegacy})
	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	_, err := sess.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, mem.Send("BLE_DEVICE:aa,-70,A;BLE_DEVICE:bb,-50,B;"))
	require.Eventually(t, func() bool { return sess.State().DeviceCount == 2 }, time.Second, 5*time.Millisecond)

	var buf bytes.Buffer
	cfg := config.Config{Interval: 20 * time.Millisecond, Top: 3, MinDelta: 5}

	done := make(chan error, 1)
	go func() { done <- watch(context.Background(), sess, events, cfg, zerolog.New(&buf)) }()

	// Let a few ticks record the two devices.
	time.Sleep(100 * time.Millisecond)
	mem.Fail(errors.New("cable pulled"))

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after the connection was lost")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.Contains(t, last, "gateway connection lost")
	assert.Contains(t, last, `"last_seen":["aa","bb"]`)
	for _, line := range lines {
		assert.NotContains(t, line, `"lost":["aa","bb"]`)
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	sess := session.New(session.Options{Opener: transport.NewMemory()})
	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := watch(ctx, sess, events, config.Config{Interval: 10 * time.Millisecond}, zerolog.Nop())
	assert.NoError(t, err)
}
