package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/session"
)

// streamTiming controls WebSocket liveness. Clients answer ping control
// frames with pongs automatically, so a passive client stays connected.
type streamTiming struct {
	pingPeriod time.Duration
	pongWait   time.Duration
	writeWait  time.Duration
}

var defaultStreamTiming = streamTiming{
	pingPeriod: 30 * time.Second,
	pongWait:   60 * time.Second,
	writeWait:  10 * time.Second,
}

// StreamMessage is one frame pushed over the live stream.
type StreamMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// handleV1Stream upgrades to a WebSocket and pushes session changes
// GET /api/v1/stream
func (s *Server) handleV1Stream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.cfg.OriginAllowed(r.Header.Get("Origin"))
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", c.Request.RemoteAddr).
			Str("origin", c.Request.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")
		return
	}
	defer conn.Close()

	clientAddr := c.Request.RemoteAddr
	s.logger.Info().Str("client_addr", clientAddr).Msg("WebSocket stream opened")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, unsubscribe := s.session.Subscribe()
	defer unsubscribe()

	go s.drainClient(ctx, conn, cancel)

	// The client starts from a full picture.
	for _, t := range []session.EventType{session.EventState, session.EventSnapshot} {
		if err := s.sendEvent(conn, t); err != nil {
			s.logger.Debug().Err(err).Str("client_addr", clientAddr).Msg("Initial stream write failed")
			return
		}
	}

	ticker := time.NewTicker(s.stream.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str("client_addr", clientAddr).Msg("WebSocket stream closed")
			return

		case <-ticker.C:
			deadline := time.Now().Add(s.stream.writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Warn().Err(err).Str("client_addr", clientAddr).Msg("WebSocket ping failed")
				return
			}

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.sendEvent(conn, ev.Type); err != nil {
				s.logger.Warn().Err(err).Str("client_addr", clientAddr).Msg("WebSocket write failed")
				return
			}
		}
	}
}

// drainClient reads until the client goes away; the stream is push-only.
// Pongs and any client message extend the read deadline.
func (s *Server) drainClient(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	extend := func() error {
		return conn.SetReadDeadline(time.Now().Add(s.stream.pongWait))
	}
	conn.SetPongHandler(func(string) error { return extend() })
	if err := extend(); err != nil {
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Unexpected WebSocket close")
			}
			return
		}
		if err := extend(); err != nil {
			return
		}
	}
}

func (s *Server) sendEvent(conn *websocket.Conn, t session.EventType) error {
	msg := StreamMessage{Type: string(t), Timestamp: time.Now()}

	switch t {
	case session.EventSnapshot:
		msg.Data = gin.H{
			"devices": s.session.Devices(),
			"chart":   s.session.Chart(),
		}
	case session.EventResponse:
		resp, ok := s.session.Response()
		if !ok {
			return nil
		}
		msg.Data = resp
	default:
		msg.Data = s.session.State()
	}

	return s.writeMessage(conn, msg)
}

func (s *Server) writeMessage(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.stream.writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write %s message: %w", msg.Type, err)
	}
	return nil
}
