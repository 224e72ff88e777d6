package transport

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrAlreadyOpen is returned when a Memory transport is opened twice
// without being closed in between.
var ErrAlreadyOpen = errors.New("memory transport already open")

// Memory is an in-process gateway used by tests and local tooling. The
// gateway side pushes chunks with Send and inspects commands with Written.
type Memory struct {
	mu      sync.Mutex
	stream  *memoryStream
	written strings.Builder
	opens   int
}

// NewMemory returns a closed memory transport.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Describe() string { return "memory" }

func (m *Memory) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil && !m.stream.closed() {
		return nil, ErrAlreadyOpen
	}
	m.stream = &memoryStream{
		owner:  m,
		chunks: make(chan []byte, 64),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	m.opens++
	return m.stream, nil
}

// Send delivers one chunk to the host side. It reports false when no stream
// is open.
func (m *Memory) Send(chunk string) bool {
	s := m.current()
	if s == nil || s.closed() {
		return false
	}
	select {
	case s.chunks <- []byte(chunk):
		return true
	case <-s.done:
		return false
	}
}

// End makes the host's next Read return io.EOF once queued chunks drain.
func (m *Memory) End() {
	m.Fail(io.EOF)
}

// Fail makes the host's next Read return err once queued chunks drain.
func (m *Memory) Fail(err error) {
	if s := m.current(); s != nil {
		select {
		case s.errs <- err:
		default:
		}
	}
}

// Written returns every byte the host wrote so far.
func (m *Memory) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

// Opens counts successful Open calls.
func (m *Memory) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

func (m *Memory) current() *memoryStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream
}

type memoryStream struct {
	owner     *Memory
	chunks    chan []byte
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func (s *memoryStream) Read(p []byte) (int, error) {
	select {
	case chunk := <-s.chunks:
		return copy(p, chunk), nil
	default:
	}

	select {
	case chunk := <-s.chunks:
		return copy(p, chunk), nil
	case err := <-s.errs:
		return 0, err
	case <-s.done:
		return 0, io.ErrClosedPipe
	}
}

func (s *memoryStream) Write(p []byte) (int, error) {
	if s.closed() {
		return 0, io.ErrClosedPipe
	}
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.owner.written.Write(p)
	return len(p), nil
}

func (s *memoryStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *memoryStream) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
