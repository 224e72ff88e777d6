package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
)

var observedAt = time.UnixMilli(1_700_000_000_000)

func TestFor(t *testing.T) {
	for _, f := range frame.Formats() {
		assert.Equal(t, f, For(f).Format())
	}
}

func TestLegacyParser(t *testing.T) {
	p := LegacyParser{}

	t.Run("valid frame", func(t *testing.T) {
		obs, err := p.Parse("\r\nBLE_DEVICE:AA:BB:CC ,-70,Sensor1", observedAt)
		require.NoError(t, err)
		assert.Equal(t, "aa:bb:cc", obs.MAC)
		assert.Equal(t, -70, obs.Measurement)
		assert.Equal(t, "Sensor1", obs.DisplayName)
		assert.Equal(t, observedAt, obs.ObservedAt)
		assert.Nil(t, obs.Extra)
	})

	t.Run("manufacturer data kept", func(t *testing.T) {
		obs, err := p.Parse("BLE_DEVICE:aa,-40,Cadence,4C00", observedAt)
		require.NoError(t, err)
		assert.Equal(t, "4C00", obs.Extra["manufacturer_data"])
	})

	t.Run("typographic minus accepted", func(t *testing.T) {
		obs, err := p.Parse("BLE_DEVICE:aa,\u221270,Sensor1", observedAt)
		require.NoError(t, err)
		assert.Equal(t, -70, obs.Measurement)
	})

	t.Run("not a device frame", func(t *testing.T) {
		_, err := p.Parse("OK", observedAt)
		assert.ErrorIs(t, err, ErrNotDeviceFrame)
	})

	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"missing name", "BLE_DEVICE:aa,-70", ErrMissingField},
		{"empty mac", "BLE_DEVICE:,-70,x", ErrMissingField},
		{"non-integer rssi", "BLE_DEVICE:aa,strong,x", ErrInvalidInteger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.frame, observedAt)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, frame.FormatLegacy, perr.Format)
			assert.Equal(t, tt.frame, perr.Frame)
		})
	}
}

func TestTupleParser(t *testing.T) {
	p := TupleParser{}

	obs, err := p.Parse("(HR,AA:BB,[72,73,74])", observedAt)
	require.NoError(t, err)
	assert.Equal(t, "aa:bb", obs.MAC)
	assert.Equal(t, 0, obs.Measurement)
	assert.Equal(t, "HR", obs.DisplayName)
	assert.Equal(t, "[72,73,74]", obs.Extra["values"])

	_, err = p.Parse("(HR)", observedAt)
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = p.Parse("(,AA,[1])", observedAt)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestProfileParser(t *testing.T) {
	p := ProfileParser{}

	t.Run("valid frame", func(t *testing.T) {
		obs, err := p.Parse(`PROFILE_JSON:HRM,AA:BB,{"rssi":-61.6,"hr":80}`, observedAt)
		require.NoError(t, err)
		assert.Equal(t, "aa:bb", obs.MAC)
		assert.Equal(t, -62, obs.Measurement)
		assert.Equal(t, "aa:bb", obs.DisplayName)
		assert.Equal(t, "HRM", obs.Extra["tag"])
	})

	t.Run("non-numeric rssi", func(t *testing.T) {
		_, err := p.Parse(`PROFILE_JSON:HRM,aa,{"rssi":"-60"}`, observedAt)
		assert.ErrorIs(t, err, ErrMissingRSSI)
	})

	t.Run("missing rssi", func(t *testing.T) {
		_, err := p.Parse(`PROFILE_JSON:HRM,aa,{"hr":60}`, observedAt)
		assert.ErrorIs(t, err, ErrMissingRSSI)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := p.Parse(`PROFILE_JSON:HRM,aa,{rssi:-60}`, observedAt)
		assert.ErrorIs(t, err, ErrMalformedJSON)

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "malformed_json", perr.Kind())
	})

	t.Run("wrong prefix", func(t *testing.T) {
		_, err := p.Parse(`BLE_DEVICE:aa,-70,x`, observedAt)
		assert.ErrorIs(t, err, ErrNotDeviceFrame)
	})
}

func TestNormalizeMAC(t *testing.T) {
	assert.Equal(t, NormalizeMAC("AA:BB:CC"), NormalizeMAC("aa:bb:cc "))
}
