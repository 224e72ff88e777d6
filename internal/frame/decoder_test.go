package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoder(t *testing.T) {
	d := NewDecoder(FormatLegacy)
	assert.Equal(t, FormatLegacy, d.Format())

	assert.Empty(t, d.Feed("BLE_DEVICE:aa,"))
	assert.Equal(t, len("BLE_DEVICE:aa,"), d.Pending())

	frames := d.Feed("-70,A;")
	assert.Equal(t, []string{"BLE_DEVICE:aa,-70,A"}, frames)
	assert.Zero(t, d.Pending())

	d.Feed("leftover")
	d.SetFormat(FormatTuple)
	assert.Zero(t, d.Pending())
	assert.Equal(t, FormatTuple, d.Format())

	d.Feed("(HR,")
	d.Reset()
	assert.Zero(t, d.Pending())
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		parsed, err := ParseFormat(f.String())
		assert.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	parsed, err := ParseFormat(" JSON ")
	assert.NoError(t, err)
	assert.Equal(t, FormatProfile, parsed)

	_, err = ParseFormat("morse")
	assert.Error(t, err)
}
