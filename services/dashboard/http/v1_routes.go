package http

// registerV1Routes sets up the v1 API structure
// Groups: /api/v1/session, /api/v1/devices, /api/v1/control
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header

	v1.GET("/ports", s.handleV1ListPorts)
	v1.GET("/chart", s.handleV1Chart)
	v1.GET("/stream", s.handleV1Stream)

	// Session endpoints - connection lifecycle and view settings
	sess := v1.Group("/session")
	{
		sess.GET("", s.handleV1SessionState)
		sess.POST("/connect", s.handleV1Connect)
		sess.POST("/disconnect", s.handleV1Disconnect)
		sess.POST("/pause", s.handleV1Pause)
		sess.POST("/format", s.handleV1Format)
		sess.POST("/refresh", s.handleV1Refresh)
		sess.POST("/reset-counters", s.handleV1ResetCounters)
		sess.POST("/view", s.handleV1View)
		sess.DELETE("/notice", s.handleV1ClearNotice)
	}

	// Device endpoints - the aggregated table
	devs := v1.Group("/devices")
	{
		devs.GET("", s.handleV1ListDevices)
		devs.GET("/:mac", s.handleV1GetDevice)
	}

	// Control endpoints - gateway commands and their responses
	ctl := v1.Group("/control")
	{
		ctl.GET("/commands", s.handleV1ListCommands)
		ctl.POST("/command", s.handleV1SendCommand)
		ctl.GET("/response", s.handleV1LatestResponse)
	}
}
