package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/chart"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/protocol"
)

// handleV1ListDevices returns the filtered, sorted device projection.
// Query overrides: filter, sort.
// GET /api/v1/devices
func (s *Server) handleV1ListDevices(c *gin.Context) {
	view := s.session.GetView()

	if filter, ok := c.GetQuery("filter"); ok {
		view.Filter = filter
	}
	if sortStr := c.Query("sort"); sortStr != "" {
		mode, err := devices.ParseSortMode(sortStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		view.Sort = mode
	}

	records := s.session.DevicesWith(view)
	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"meta": gin.H{
			"count":  len(records),
			"total":  s.session.State().DeviceCount,
			"filter": view.Filter,
			"sort":   view.Sort,
		},
	})
}

// handleV1GetDevice returns one device by MAC
// GET /api/v1/devices/:mac
func (s *Server) handleV1GetDevice(c *gin.Context) {
	mac := protocol.NormalizeMAC(c.Param("mac"))
	if mac == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mac is required"})
		return
	}

	rec, ok := s.session.Device(mac)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": rec,
		"meta": gin.H{
			"signal_strength":   chart.NormalizeRSSI(rec.Measurement),
			"distance_estimate": chart.EstimateDistance(rec.Measurement),
		},
	})
}

// handleV1Chart renders the current view as chart data
// GET /api/v1/chart
func (s *Server) handleV1Chart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": s.session.Chart(),
		"meta": gin.H{"view": s.session.GetView()},
	})
}
