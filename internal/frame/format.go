package frame

import (
	"fmt"
	"strings"
)

// Format selects which wire format the gateway is currently emitting.
type Format int

const (
	// FormatLegacy is the `BLE_DEVICE:mac,rssi,name[,mfg];` stream.
	FormatLegacy Format = iota
	// FormatTuple is the `(TYPE,MAC,[v1,v2,...])` stream.
	FormatTuple
	// FormatProfile is the `PROFILE_JSON:tag,mac,{...};` stream.
	FormatProfile
)

var formatNames = map[Format]string{
	FormatLegacy:  "legacy",
	FormatTuple:   "tuple",
	FormatProfile: "profile",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Formats lists every supported format in declaration order.
func Formats() []Format {
	return []Format{FormatLegacy, FormatTuple, FormatProfile}
}

// ParseFormat resolves a format name. Aliases used by the gateway firmware
// docs ("delimited", "bracket", "json") are accepted as well.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "delimited", "ble_device":
		return FormatLegacy, nil
	case "tuple", "bracket":
		return FormatTuple, nil
	case "profile", "json", "profile_json":
		return FormatProfile, nil
	default:
		return FormatLegacy, fmt.Errorf("unknown wire format %q", s)
	}
}

// MarshalText lets formats travel as their names in JSON payloads.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
