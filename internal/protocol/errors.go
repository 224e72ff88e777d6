package protocol

import (
	"errors"
	"fmt"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
)

var (
	// ErrNotDeviceFrame marks a frame that is not a telemetry record at all.
	ErrNotDeviceFrame = errors.New("not a device frame")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidInteger = errors.New("invalid integer")
	ErrMalformedJSON  = errors.New("malformed json")
	ErrMissingRSSI    = errors.New("missing numeric rssi")
)

// ParseError describes a dropped frame.
type ParseError struct {
	Format frame.Format
	Frame  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s frame %q: %s: %v", e.Format, e.Frame, e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Kind returns a short label for the wrapped sentinel, suitable as a metric label.
func (e *ParseError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrMissingField):
		return "missing_field"
	case errors.Is(e.Err, ErrInvalidInteger):
		return "invalid_integer"
	case errors.Is(e.Err, ErrMalformedJSON):
		return "malformed_json"
	case errors.Is(e.Err, ErrMissingRSSI):
		return "missing_rssi"
	default:
		return "other"
	}
}

func newParseError(format frame.Format, raw, reason string, err error) *ParseError {
	return &ParseError{Format: format, Frame: raw, Reason: reason, Err: err}
}
