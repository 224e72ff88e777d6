package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
)

func TestNormalizeRSSI(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeRSSI(-120))
	assert.Equal(t, 0.0, NormalizeRSSI(-100))
	assert.Equal(t, 50.0, NormalizeRSSI(-65))
	assert.Equal(t, 100.0, NormalizeRSSI(-30))
	assert.Equal(t, 100.0, NormalizeRSSI(-10))
}

func TestEstimateDistance(t *testing.T) {
	assert.Equal(t, 1.0, EstimateDistance(-60))
	assert.Equal(t, 10.0, EstimateDistance(-85))
	assert.Equal(t, 2.5, EstimateDistance(-70))
}

func TestSignalColor(t *testing.T) {
	assert.Equal(t, "hsla(120, 70%, 50%, 0.8)", SignalColor(100))
	assert.Equal(t, "hsla(0, 70%, 50%, 0.8)", SignalColor(0))
}

func TestParse(t *testing.T) {
	k, err := ParseKind("LINE")
	require.NoError(t, err)
	assert.Equal(t, KindLine, k)
	_, err = ParseKind("pie")
	assert.Error(t, err)

	m, err := ParseMetric("hr")
	require.NoError(t, err)
	assert.Equal(t, MetricHeartRate, m)
	_, err = ParseMetric("temperature")
	assert.Error(t, err)
}

func TestBuildBarSignal(t *testing.T) {
	records := []devices.Record{
		{MAC: "aa", Name: "Cadence", Measurement: -65, UpdateCount: 3},
		{MAC: "bb", Name: "", Measurement: -100, UpdateCount: 1},
	}
	c := Build(records, KindBar, MetricSignal)

	assert.Equal(t, KindBar, c.Kind)
	assert.Equal(t, 100.0, c.Axis.Max)
	assert.Equal(t, "%", c.Axis.Unit)
	assert.Equal(t, 600, c.Height)
	require.Len(t, c.Bars, 2)
	assert.Empty(t, c.Series)

	bar := c.Bars[0]
	assert.Equal(t, "Cadence", bar.Label)
	assert.Equal(t, 50.0, bar.Value)
	require.NotNil(t, bar.Distance)
	assert.Contains(t, bar.Detail, "-65 dBm")
	assert.Contains(t, bar.Tooltip, "RSSI: -65 dBm")

	assert.Equal(t, "Unknown device", c.Bars[1].Label)
}

func TestBuildBarHeartRate(t *testing.T) {
	c := Build([]devices.Record{{MAC: "aa", Name: "HRM", Measurement: 150}}, KindBar, MetricHeartRate)
	require.Len(t, c.Bars, 1)
	assert.Equal(t, 220.0, c.Axis.Max)
	assert.Equal(t, "bpm", c.Axis.Unit)
	assert.Equal(t, 150.0, c.Bars[0].Value)
	assert.Nil(t, c.Bars[0].Distance)
	assert.Contains(t, c.Bars[0].Tooltip, "Heart rate: 150 bpm")
}

func TestBuildLine(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	records := []devices.Record{{
		MAC: "aa", Name: "Cadence", Measurement: -30,
		History: []devices.Sample{{At: at, Value: -100}, {At: at.Add(time.Second), Value: -30}},
	}}
	c := Build(records, KindLine, MetricSignal)

	require.Len(t, c.Series, 1)
	assert.Empty(t, c.Bars)
	assert.Equal(t, []Point{{X: at.UnixMilli(), Y: 0}, {X: at.UnixMilli() + 1000, Y: 100}}, c.Series[0].Points)
	assert.Equal(t, 600, c.Height)
}

func TestContainerHeight(t *testing.T) {
	assert.Equal(t, 600, ContainerHeight(KindBar, 3))
	assert.Equal(t, 1200, ContainerHeight(KindBar, 20))
	assert.Equal(t, 600, ContainerHeight(KindLine, 20))
}
