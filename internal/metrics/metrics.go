// Package metrics exposes ingestion counters for the gateway session.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gateway"

// Metrics contains every ingestion metric of one process.
type Metrics struct {
	registry *prometheus.Registry

	ChunksReceived   prometheus.Counter
	FramesDecoded    *prometheus.CounterVec
	FramesDropped    *prometheus.CounterVec
	ControlResponses *prometheus.CounterVec
	DevicesEvicted   prometheus.Counter
	DevicesTracked   prometheus.Gauge
	CarryOverBytes   prometheus.Gauge
	Connected        prometheus.Gauge
	TransportErrors  prometheus.Counter
}

// New creates the metrics and registers them on a private registry together
// with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ChunksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "chunks_total",
			Help:      "Total number of chunks read from the gateway",
		}),

		FramesDecoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "frames",
				Name:      "decoded_total",
				Help:      "Frames turned into device observations",
			},
			[]string{"format"},
		),

		FramesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "frames",
				Name:      "dropped_total",
				Help:      "Malformed frames dropped by the parsers",
			},
			[]string{"format", "reason"},
		),

		ControlResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "control",
				Name:      "responses_total",
				Help:      "Control channel responses by keyword",
			},
			[]string{"kind"},
		),

		DevicesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devices",
			Name:      "evicted_total",
			Help:      "Devices removed after going stale",
		}),

		DevicesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "devices",
			Name:      "tracked",
			Help:      "Devices currently in the table",
		}),

		CarryOverBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "carry_over_bytes",
			Help:      "Bytes waiting in the frame decoder buffer",
		}),

		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "connected",
			Help:      "1 while a gateway connection is open",
		}),

		TransportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "failures_total",
			Help:      "Connections lost to read errors or unexpected end of stream",
		}),
	}

	m.registry.MustRegister(
		m.ChunksReceived,
		m.FramesDecoded,
		m.FramesDropped,
		m.ControlResponses,
		m.DevicesEvicted,
		m.DevicesTracked,
		m.CarryOverBytes,
		m.Connected,
		m.TransportErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
