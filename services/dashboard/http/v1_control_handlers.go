package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/command"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/control"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/session"
)

// commandRequest carries either a raw command line or a catalogue name
// with arguments.
type commandRequest struct {
	Command string   `json:"command"`
	Name    string   `json:"name"`
	Args    []string `json:"args"`
}

// handleV1ListPorts lists serial ports visible to the host
// GET /api/v1/ports
func (s *Server) handleV1ListPorts(c *gin.Context) {
	ports, err := s.listPorts()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to enumerate serial ports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": ports,
		"meta": gin.H{
			"count":      len(ports),
			"configured": s.cfg.SerialPort,
		},
	})
}

// handleV1ListCommands returns the gateway command catalogue
// GET /api/v1/control/commands
func (s *Server) handleV1ListCommands(c *gin.Context) {
	catalogue := command.Catalogue()
	c.JSON(http.StatusOK, gin.H{
		"data": catalogue,
		"meta": gin.H{"count": len(catalogue)},
	})
}

// handleV1SendCommand writes one command to the gateway
// POST /api/v1/control/command
func (s *Server) handleV1SendCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command payload"})
		return
	}

	line := req.Command
	if req.Name != "" {
		built, err := command.Build(req.Name, req.Args...)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		line = built
	}
	if strings.TrimSpace(line) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command or name is required"})
		return
	}

	if err := s.session.SendCommand(line); err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"sent": command.Normalize(line)}})
}

// handleV1LatestResponse returns the latest control response. Connection
// lists are expanded into their targets.
// GET /api/v1/control/response
func (s *Server) handleV1LatestResponse(c *gin.Context) {
	resp, ok := s.session.Response()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no response yet"})
		return
	}

	meta := gin.H{}
	if resp.Kind == control.KindConnList {
		targets := control.ParseConnList(resp.Raw)
		meta["targets"] = targets
		meta["count"] = len(targets)
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "meta": meta})
}
