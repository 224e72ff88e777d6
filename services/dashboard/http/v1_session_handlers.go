package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/chart"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/session"
)

type pauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

type formatRequest struct {
	Format string `json:"format" binding:"required"`
}

type viewRequest struct {
	Filter *string `json:"filter"`
	Sort   string  `json:"sort"`
	Chart  string  `json:"chart"`
	Metric string  `json:"metric"`
}

// handleV1SessionState returns the session summary
// GET /api/v1/session
func (s *Server) handleV1SessionState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": s.session.State(),
		"meta": gin.H{
			"formats": frame.Formats(),
		},
	})
}

// handleV1Connect opens the configured gateway transport
// POST /api/v1/session/connect
func (s *Server) handleV1Connect(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	id, err := s.session.Connect(ctx)
	if err != nil {
		if errors.Is(err, session.ErrAlreadyConnected) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error().Err(err).Msg("Gateway connect failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": s.session.State(),
		"meta": gin.H{"session_id": id},
	})
}

// handleV1Disconnect closes the gateway transport
// POST /api/v1/session/disconnect
func (s *Server) handleV1Disconnect(c *gin.Context) {
	if err := s.session.Disconnect(); err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.session.State()})
}

// handleV1Pause toggles batch application
// POST /api/v1/session/pause
func (s *Server) handleV1Pause(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paused is required"})
		return
	}

	s.session.SetPaused(*req.Paused)
	c.JSON(http.StatusOK, gin.H{"data": s.session.State()})
}

// handleV1Format switches the active wire format
// POST /api/v1/session/format
func (s *Server) handleV1Format(c *gin.Context) {
	var req formatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format is required"})
		return
	}

	format, err := frame.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.session.SetFormat(format)
	c.JSON(http.StatusOK, gin.H{"data": s.session.State()})
}

// handleV1Refresh clears the device table
// POST /api/v1/session/refresh
func (s *Server) handleV1Refresh(c *gin.Context) {
	s.session.Refresh()
	c.JSON(http.StatusOK, gin.H{"data": s.session.State()})
}

// handleV1ResetCounters zeroes update counts
// POST /api/v1/session/reset-counters
func (s *Server) handleV1ResetCounters(c *gin.Context) {
	s.session.ResetCounters()
	c.JSON(http.StatusOK, gin.H{"data": s.session.State()})
}

// handleV1View updates filter, sort and chart settings. Omitted fields keep
// their current value.
// POST /api/v1/session/view
func (s *Server) handleV1View(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid view payload"})
		return
	}

	view, err := mergeView(s.session.GetView(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.session.SetView(view)
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// handleV1ClearNotice dismisses the connection-lost notice
// DELETE /api/v1/session/notice
func (s *Server) handleV1ClearNotice(c *gin.Context) {
	s.session.ClearNotice()
	c.Status(http.StatusNoContent)
}

func mergeView(current session.View, req viewRequest) (session.View, error) {
	view := current
	if req.Filter != nil {
		view.Filter = *req.Filter
	}
	if req.Sort != "" {
		mode, err := devices.ParseSortMode(req.Sort)
		if err != nil {
			return current, err
		}
		view.Sort = mode
	}
	if req.Chart != "" {
		kind, err := chart.ParseKind(req.Chart)
		if err != nil {
			return current, err
		}
		view.Chart = kind
	}
	if req.Metric != "" {
		metric, err := chart.ParseMetric(req.Metric)
		if err != nil {
			return current, err
		}
		view.Metric = metric
	}
	return view, nil
}
