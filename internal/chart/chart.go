// Package chart shapes the device table into what the browser charts draw.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
)

// Kind is the chart style.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
)

// Metric is the meaning of a record's measurement.
type Metric string

const (
	MetricSignal    Metric = "signal"
	MetricHeartRate Metric = "heart_rate"
)

const (
	rssiFloor = -100.0
	rssiCeil  = -30.0

	// reference RSSI at one metre and the path-loss exponent of the distance model
	rssiAtOneMetre = -60.0
	pathLoss       = 2.5

	heartRateAxisMax = 220.0
)

// ParseKind validates a chart kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindBar, KindLine:
		return k, nil
	default:
		return KindBar, fmt.Errorf("unknown chart kind %q", s)
	}
}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricSignal, MetricHeartRate:
		return m, nil
	case "hr", "heartrate":
		return MetricHeartRate, nil
	case "rssi":
		return MetricSignal, nil
	default:
		return MetricSignal, fmt.Errorf("unknown metric %q", s)
	}
}

// Axis describes the value axis.
type Axis struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Unit  string  `json:"unit"`
	Title string  `json:"title"`
}

// Bar is one device in the bar chart.
type Bar struct {
	MAC         string   `json:"mac_address"`
	Label       string   `json:"label"`
	Detail      string   `json:"detail"`
	Value       float64  `json:"value"`
	Color       string   `json:"color"`
	Measurement int      `json:"measurement"`
	Distance    *float64 `json:"distance_m,omitempty"`
	UpdateCount int      `json:"update_count"`
	Tooltip     []string `json:"tooltip"`
}

// Point is one history sample in the line chart.
type Point struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// Series is one device in the line chart.
type Series struct {
	MAC    string  `json:"mac_address"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Chart is the payload handed to the rendering layer.
type Chart struct {
	Kind   Kind     `json:"kind"`
	Metric Metric   `json:"metric"`
	Axis   Axis     `json:"axis"`
	Height int      `json:"height"`
	Bars   []Bar    `json:"bars,omitempty"`
	Series []Series `json:"series,omitempty"`
}

// Build renders records, already filtered and sorted, into a chart.
func Build(records []devices.Record, kind Kind, metric Metric) Chart {
	c := Chart{
		Kind:   kind,
		Metric: metric,
		Axis:   axisFor(metric),
		Height: ContainerHeight(kind, len(records)),
	}

	if kind == KindLine {
		c.Series = make([]Series, 0, len(records))
		for _, rec := range records {
			points := make([]Point, 0, len(rec.History))
			for _, s := range rec.History {
				points = append(points, Point{X: s.At.UnixMilli(), Y: scale(s.Value, metric)})
			}
			c.Series = append(c.Series, Series{
				MAC:    rec.MAC,
				Label:  displayName(rec),
				Color:  SignalColor(scale(rec.Measurement, metric) / c.Axis.Max * 100),
				Points: points,
			})
		}
		return c
	}

	c.Bars = make([]Bar, 0, len(records))
	for _, rec := range records {
		value := scale(rec.Measurement, metric)
		bar := Bar{
			MAC:         rec.MAC,
			Label:       displayName(rec),
			Value:       value,
			Color:       SignalColor(value / c.Axis.Max * 100),
			Measurement: rec.Measurement,
			UpdateCount: rec.UpdateCount,
		}
		if metric == MetricHeartRate {
			bar.Detail = fmt.Sprintf("(%d bpm, %d updates)", rec.Measurement, rec.UpdateCount)
			bar.Tooltip = []string{
				"MAC: " + rec.MAC,
				fmt.Sprintf("Heart rate: %d bpm", rec.Measurement),
				fmt.Sprintf("Updates: %d", rec.UpdateCount),
			}
		} else {
			distance := EstimateDistance(rec.Measurement)
			bar.Distance = &distance
			bar.Detail = fmt.Sprintf("(%d dBm, ~%gm, %d updates)", rec.Measurement, distance, rec.UpdateCount)
			bar.Tooltip = []string{
				"MAC: " + rec.MAC,
				fmt.Sprintf("RSSI: %d dBm", rec.Measurement),
				fmt.Sprintf("Estimated distance: %g m", distance),
				fmt.Sprintf("Signal strength: %.1f%%", value),
				fmt.Sprintf("Updates: %d", rec.UpdateCount),
			}
		}
		c.Bars = append(c.Bars, bar)
	}
	return c
}

// NormalizeRSSI maps -100..-30 dBm onto 0..100.
func NormalizeRSSI(rssi int) float64 {
	v := (float64(rssi) - rssiFloor) / (rssiCeil - rssiFloor) * 100
	return math.Max(0, math.Min(100, v))
}

// EstimateDistance converts RSSI to metres with a log-distance model,
// rounded to 0.1 m.
func EstimateDistance(rssi int) float64 {
	d := math.Pow(10, (math.Abs(float64(rssi))-math.Abs(rssiAtOneMetre))/(10*pathLoss))
	return math.Round(d*10) / 10
}

// SignalColor maps a 0..100 strength to a red-to-green hue.
func SignalColor(strength float64) string {
	return fmt.Sprintf("hsla(%g, 70%%, 50%%, 0.8)", math.Round(strength*1.2*10)/10)
}

// ContainerHeight mirrors the sizing used by the bar chart layout.
func ContainerHeight(kind Kind, devicesShown int) int {
	if kind == KindBar {
		return max(600, devicesShown*50+200)
	}
	return 600
}

func scale(value int, metric Metric) float64 {
	if metric == MetricHeartRate {
		return math.Max(0, math.Min(heartRateAxisMax, float64(value)))
	}
	return NormalizeRSSI(value)
}

func axisFor(metric Metric) Axis {
	if metric == MetricHeartRate {
		return Axis{Min: 0, Max: heartRateAxisMax, Unit: "bpm", Title: "Heart rate"}
	}
	return Axis{Min: 0, Max: 100, Unit: "%", Title: "Signal strength"}
}

func displayName(rec devices.Record) string {
	if rec.Name == "" {
		return "Unknown device"
	}
	return rec.Name
}
