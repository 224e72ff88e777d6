package session

import (
	"time"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/chart"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/control"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
)

// State summarises the session for the UI.
type State struct {
	Connected    bool              `json:"connected"`
	SessionID    string            `json:"session_id,omitempty"`
	Transport    string            `json:"transport,omitempty"`
	ConnectedAt  *time.Time        `json:"connected_at,omitempty"`
	Format       frame.Format      `json:"format"`
	Paused       bool              `json:"paused"`
	View         View              `json:"view"`
	DeviceCount  int               `json:"device_count"`
	AwaitingList bool              `json:"awaiting_list"`
	CarryOver    int               `json:"carry_over_bytes"`
	Response     *control.Response `json:"response,omitempty"`
	Notice       string            `json:"notice,omitempty"`
}

// State returns a consistent summary of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Connected:    s.conn != nil,
		Format:       s.decoder.Format(),
		Paused:       s.paused,
		View:         s.view,
		DeviceCount:  s.table.Len(),
		AwaitingList: s.classifier.AwaitingList(),
		CarryOver:    s.decoder.Pending(),
		Notice:       s.notice,
	}
	if s.opener != nil {
		st.Transport = s.opener.Describe()
	}
	if s.conn != nil {
		st.SessionID = s.conn.id
		at := s.connectedAt
		st.ConnectedAt = &at
	}
	if s.response != nil {
		resp := *s.response
		st.Response = &resp
	}
	return st
}

// Snapshot returns every record in first-seen order.
func (s *Session) Snapshot() []devices.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Snapshot()
}

// Devices returns the filtered and sorted projection for the current view.
func (s *Session) Devices() []devices.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectLocked(s.view)
}

// DevicesWith projects the table with an ad-hoc view, leaving the stored
// view untouched.
func (s *Session) DevicesWith(v View) []devices.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectLocked(v)
}

// Device returns one record by MAC.
func (s *Session) Device(mac string) (devices.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Get(mac)
}

// Chart renders the current view for the rendering sink.
func (s *Session) Chart() chart.Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chart.Build(s.projectLocked(s.view), s.view.Chart, s.view.Metric)
}

// Response returns the latest control response, if any.
func (s *Session) Response() (control.Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.response == nil {
		return control.Response{}, false
	}
	return *s.response, true
}

// GetView returns the stored projection settings.
func (s *Session) GetView() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) projectLocked(v View) []devices.Record {
	records := devices.Filter(s.table.Snapshot(), v.Filter)
	return devices.Sort(records, v.Sort, s.collator)
}
