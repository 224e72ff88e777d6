package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ReplayOpener plays back a captured gateway log in fixed-size chunks, for
// running the dashboard without hardware attached.
type ReplayOpener struct {
	Path      string
	Interval  time.Duration
	ChunkSize int
	Loop      bool
	Logger    zerolog.Logger
}

func (o *ReplayOpener) Describe() string {
	return "replay:" + o.Path
}

func (o *ReplayOpener) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(o.Path)
	if err != nil {
		return nil, fmt.Errorf("read replay capture: %w", err)
	}
	chunk := o.ChunkSize
	if chunk <= 0 {
		chunk = 64
	}
	return &replayStream{
		data:     data,
		chunk:    chunk,
		interval: o.Interval,
		loop:     o.Loop,
		logger:   o.Logger,
		done:     make(chan struct{}),
	}, nil
}

type replayStream struct {
	data     []byte
	offset   int
	chunk    int
	interval time.Duration
	loop     bool
	logger   zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func (s *replayStream) Read(p []byte) (int, error) {
	if s.interval > 0 {
		timer := time.NewTimer(s.interval)
		defer timer.Stop()
		select {
		case <-s.done:
			return 0, io.ErrClosedPipe
		case <-timer.C:
		}
	}

	select {
	case <-s.done:
		return 0, io.ErrClosedPipe
	default:
	}

	if s.offset >= len(s.data) {
		if !s.loop || len(s.data) == 0 {
			return 0, io.EOF
		}
		s.offset = 0
	}

	end := min(s.offset+s.chunk, len(s.data), s.offset+len(p))
	n := copy(p, s.data[s.offset:end])
	s.offset += n
	return n, nil
}

// Write discards outbound commands after logging them.
func (s *replayStream) Write(p []byte) (int, error) {
	select {
	case <-s.done:
		return 0, io.ErrClosedPipe
	default:
	}
	s.logger.Debug().Str("command", string(bytes.TrimSpace(p))).Msg("replay transport dropped command")
	return len(p), nil
}

func (s *replayStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
