// Package session owns the live state of one dashboard: the transport
// handle, the read loop, the device table and the user's view settings.
//
// Every mutation goes through one mutex, so a chunk is ingested to
// completion before any user action (pause, format switch, refresh, view
// changes) is applied, and vice versa.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/collate"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/chart"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/command"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/control"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/metrics"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/protocol"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/transport"
)

var (
	ErrNotConnected     = errors.New("gateway not connected")
	ErrAlreadyConnected = errors.New("gateway already connected")
)

const defaultReadBuffer = 4096

// Options configures a Session.
type Options struct {
	Opener       transport.Opener
	Format       frame.Format
	Collator     *collate.Collator
	StartCommand string
	StopCommand  string
	ReadBuffer   int
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Session is the explicit context object behind the dashboard.
type Session struct {
	mu sync.Mutex

	opener       transport.Opener
	startCommand string
	stopCommand  string
	readBuffer   int
	collator     *collate.Collator
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	now          func() time.Time

	table      *devices.Table
	decoder    *frame.Decoder
	classifier *control.Classifier
	parser     protocol.Parser

	view     View
	paused   bool
	response *control.Response
	notice   string

	conn        *connection
	connectedAt time.Time

	subscribers map[int]*subscriber
	nextSubID   int
}

type connection struct {
	id     string
	stream io.ReadWriteCloser
	cancel context.CancelFunc
	done   chan struct{}
}

// View holds the user's projection settings.
type View struct {
	Filter string           `json:"filter"`
	Sort   devices.SortMode `json:"sort"`
	Chart  chart.Kind       `json:"chart"`
	Metric chart.Metric     `json:"metric"`
}

// New builds an idle session.
func New(opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReadBuffer <= 0 {
		opts.ReadBuffer = defaultReadBuffer
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Collator == nil {
		opts.Collator, _ = devices.NewCollator("")
	}

	return &Session{
		opener:       opts.Opener,
		startCommand: opts.StartCommand,
		stopCommand:  opts.StopCommand,
		readBuffer:   opts.ReadBuffer,
		collator:     opts.Collator,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		now:          opts.Now,
		table:        devices.NewTable(),
		decoder:      frame.NewDecoder(opts.Format),
		classifier:   control.NewClassifier(),
		parser:       protocol.For(opts.Format),
		view: View{
			Sort:   devices.SortByMeasurement,
			Chart:  chart.KindBar,
			Metric: chart.MetricSignal,
		},
		subscribers: make(map[int]*subscriber),
	}
}

// Connect opens the transport and starts the read loop. The loop outlives
// ctx only as far as opening is concerned; use Disconnect to stop it.
func (s *Session) Connect(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return "", ErrAlreadyConnected
	}
	if s.opener == nil {
		return "", errors.New("no transport configured")
	}

	stream, err := s.opener.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", s.opener.Describe(), err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	conn := &connection{
		id:     uuid.NewString(),
		stream: stream,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.conn = conn
	s.connectedAt = s.now()
	s.notice = ""
	s.decoder.Reset()
	s.classifier.Reset()
	s.metrics.Connected.Set(1)

	s.logger.Info().
		Str("session_id", conn.id).
		Str("transport", s.opener.Describe()).
		Str("format", s.decoder.Format().String()).
		Msg("Gateway connected")

	if s.startCommand != "" {
		if err := s.writeLocked(s.startCommand); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to send start command")
		}
	}

	go s.readLoop(loopCtx, conn)
	s.publishLocked(EventState)

	return conn.id, nil
}

// Disconnect stops the read loop, closes the transport and clears the table.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}

	if s.stopCommand != "" {
		if err := s.writeLocked(s.stopCommand); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to send stop command")
		}
	}
	s.teardownLocked()
	s.mu.Unlock()

	conn.cancel()
	closeErr := conn.stream.Close()
	<-conn.done

	s.logger.Info().Str("session_id", conn.id).Msg("Gateway disconnected")
	if closeErr != nil {
		return fmt.Errorf("close transport: %w", closeErr)
	}
	return nil
}

// teardownLocked resets everything tied to the current connection.
func (s *Session) teardownLocked() {
	s.conn = nil
	s.table.Clear()
	s.decoder.Reset()
	s.classifier.Reset()
	s.metrics.Connected.Set(0)
	s.metrics.DevicesTracked.Set(0)
	s.metrics.CarryOverBytes.Set(0)
	s.publishLocked(EventSnapshot)
}

func (s *Session) readLoop(ctx context.Context, conn *connection) {
	defer close(conn.done)

	buf := make([]byte, s.readBuffer)
	for {
		n, err := conn.stream.Read(buf)
		if n > 0 {
			s.ingest(conn, string(buf[:n]), s.now())
		}
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			return
		}
		s.fail(conn, err)
		return
	}
}

// fail handles a transport failure: the session resets and one notice is
// surfaced. There is no reconnect.
func (s *Session) fail(conn *connection, cause error) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	conn.cancel()
	_ = conn.stream.Close()
	s.teardownLocked()
	s.notice = "gateway connection lost, please reconnect"
	s.metrics.TransportErrors.Inc()
	s.publishLocked(EventNotice)
	s.mu.Unlock()

	if errors.Is(cause, io.EOF) {
		cause = io.ErrUnexpectedEOF
	}
	s.logger.Error().Err(cause).Str("session_id", conn.id).Msg("Gateway connection lost")
}

// Ingest runs one read-loop iteration over chunk using the current clock.
func (s *Session) Ingest(chunk string) {
	s.IngestAt(chunk, s.now())
}

// IngestAt runs one read-loop iteration over chunk: control classification,
// frame extraction, parsing and, unless paused, batch application.
func (s *Session) IngestAt(chunk string, now time.Time) {
	s.ingest(nil, chunk, now)
}

// ingest drops chunks read on a connection that has since been torn down.
func (s *Session) ingest(from *connection, chunk string, now time.Time) {
	if chunk == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if from != nil && s.conn != from {
		return
	}

	s.metrics.ChunksReceived.Inc()

	if resp, ok, handled := s.classifier.Classify(chunk); handled {
		if ok {
			s.response = &resp
			s.metrics.ControlResponses.WithLabelValues(string(resp.Kind)).Inc()
			s.logger.Debug().Str("kind", string(resp.Kind)).Str("message", resp.Message).Msg("Control response")
			s.publishLocked(EventResponse)
		}
		return
	}

	frames := s.decoder.Feed(chunk)
	s.metrics.CarryOverBytes.Set(float64(s.decoder.Pending()))

	batch := s.parseLocked(frames, now)
	if s.paused || len(batch) == 0 {
		return
	}

	_, evicted := s.table.ApplyBatch(batch, now)
	if evicted > 0 {
		s.metrics.DevicesEvicted.Add(float64(evicted))
	}
	s.metrics.DevicesTracked.Set(float64(s.table.Len()))
	s.publishLocked(EventSnapshot)
}

func (s *Session) parseLocked(frames []string, now time.Time) []protocol.Observation {
	format := s.parser.Format().String()
	batch := make([]protocol.Observation, 0, len(frames))

	for _, raw := range frames {
		obs, err := s.parser.Parse(raw, now)
		if err == nil {
			batch = append(batch, obs)
			s.metrics.FramesDecoded.WithLabelValues(format).Inc()
			continue
		}

		var perr *protocol.ParseError
		if errors.As(err, &perr) {
			s.metrics.FramesDropped.WithLabelValues(format, perr.Kind()).Inc()
			s.logger.Debug().Err(err).Str("format", format).Msg("Dropped malformed frame")
		}
	}
	return batch
}

// SendCommand writes a command to the gateway, forcing a CRLF terminator.
func (s *Session) SendCommand(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(cmd)
}

func (s *Session) writeLocked(cmd string) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	line := command.Normalize(cmd)
	if _, err := io.WriteString(s.conn.stream, line); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	s.logger.Debug().Str("command", line[:len(line)-2]).Msg("Command sent")
	return nil
}

// SetPaused toggles whether decoded batches reach the table.
func (s *Session) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	s.publishLocked(EventState)
}

// SetFormat switches the wire format. The table and carry-over are cleared.
func (s *Session) SetFormat(format frame.Format) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decoder.SetFormat(format)
	s.parser = protocol.For(format)
	s.table.Clear()
	s.metrics.DevicesTracked.Set(0)
	s.metrics.CarryOverBytes.Set(0)
	s.publishLocked(EventSnapshot)
}

// Refresh clears the whole table.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table.Clear()
	s.metrics.DevicesTracked.Set(0)
	s.publishLocked(EventSnapshot)
}

// ResetCounters zeroes update counts; in line-chart view the history is
// wiped as well so the chart restarts.
func (s *Session) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table.ResetCounters(s.view.Chart == chart.KindLine)
	s.publishLocked(EventSnapshot)
}

// SetView replaces the projection settings.
func (s *Session) SetView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.publishLocked(EventSnapshot)
}

// ClearNotice dismisses the transport failure notice.
func (s *Session) ClearNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = ""
}
