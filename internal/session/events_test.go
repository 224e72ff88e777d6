package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
)

// collectEvents reads until no event arrives for quiet.
func collectEvents(events <-chan Event, quiet time.Duration) []EventType {
	var got []EventType
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev.Type)
		case <-time.After(quiet):
			return got
		}
	}
}

func TestSlowSubscriberStillGetsResponse(t *testing.T) {
	s, _ := newTestSession(t, frame.FormatLegacy)
	events, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		s.IngestAt(fmt.Sprintf("BLE_DEVICE:aa:%02d,-70,Dev%d;", i, i), t0)
	}
	s.IngestAt("STATUS:OK;\r\n", t0)

	got := collectEvents(events, 200*time.Millisecond)
	assert.Contains(t, got, EventSnapshot)
	assert.Contains(t, got, EventResponse)
	// Snapshots published while nobody was reading merge.
	assert.Less(t, len(got), 11)
}

func TestSlowSubscriberStillGetsNotice(t *testing.T) {
	s, mem := newTestSession(t, frame.FormatLegacy)
	events, cancel := s.Subscribe()
	defer cancel()

	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.True(t, mem.Send(fmt.Sprintf("BLE_DEVICE:bb:%02d,-60,Dev%d;", i, i)))
	}
	mem.Fail(errors.New("cable pulled"))
	require.Eventually(t, func() bool { return !s.State().Connected }, time.Second, 5*time.Millisecond)

	got := collectEvents(events, 200*time.Millisecond)
	require.NotEmpty(t, got)
	assert.Contains(t, got, EventNotice)
	assert.Equal(t, EventNotice, got[len(got)-1])
}

func TestPendingEventsMergeAndKeepOrder(t *testing.T) {
	sub := &subscriber{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan Event),
	}
	defer close(sub.done)

	sub.mark(EventNotice)
	sub.mark(EventResponse)
	sub.mark(EventSnapshot)
	sub.mark(EventState)
	sub.mark(EventSnapshot)
	go sub.pump()

	got := collectEvents(sub.out, 100*time.Millisecond)
	assert.Equal(t, []EventType{EventState, EventSnapshot, EventResponse, EventNotice}, got)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s, _ := newTestSession(t, frame.FormatLegacy)
	events, cancel := s.Subscribe()

	s.Refresh()
	cancel()
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// Publishing with no subscribers is fine.
	s.Refresh()
}
