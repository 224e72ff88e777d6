package protocol

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/frame"
)

const (
	legacyPrefix  = "BLE_DEVICE:"
	profilePrefix = "PROFILE_JSON:"
)

// Parser decodes one extracted frame. Implementations return
// ErrNotDeviceFrame for frames that carry no telemetry and a *ParseError for
// malformed records.
type Parser interface {
	Format() frame.Format
	Parse(raw string, observedAt time.Time) (Observation, error)
}

// For returns the parser variant for a wire format.
func For(format frame.Format) Parser {
	switch format {
	case frame.FormatTuple:
		return TupleParser{}
	case frame.FormatProfile:
		return ProfileParser{}
	default:
		return LegacyParser{}
	}
}

// LegacyParser handles `BLE_DEVICE:mac,rssi,name[,mfgdata]`.
type LegacyParser struct{}

func (LegacyParser) Format() frame.Format { return frame.FormatLegacy }

func (p LegacyParser) Parse(raw string, observedAt time.Time) (Observation, error) {
	entry := strings.TrimSpace(raw)
	if !strings.HasPrefix(entry, legacyPrefix) {
		return Observation{}, ErrNotDeviceFrame
	}

	fields := strings.Split(strings.TrimPrefix(entry, legacyPrefix), ",")
	for len(fields) < 3 {
		fields = append(fields, "")
	}
	mac := strings.TrimSpace(fields[0])
	// Some gateways print the typographic minus sign.
	rssiText := strings.ReplaceAll(strings.TrimSpace(fields[1]), "\u2212", "-")
	name := strings.TrimSpace(fields[2])
	if mac == "" || rssiText == "" || name == "" {
		return Observation{}, newParseError(p.Format(), raw, "mac, rssi and name are required", ErrMissingField)
	}

	rssi, err := strconv.Atoi(rssiText)
	if err != nil {
		return Observation{}, newParseError(p.Format(), raw, "rssi "+strconv.Quote(rssiText), ErrInvalidInteger)
	}

	obs := Observation{
		MAC:         NormalizeMAC(mac),
		Measurement: rssi,
		DisplayName: name,
		ObservedAt:  observedAt,
	}
	if len(fields) > 3 {
		obs.Extra = map[string]string{"manufacturer_data": strings.Join(fields[3:], ",")}
	}
	return obs, nil
}

// TupleParser handles `(type,mac,[v1,v2,...])`. The value array is carried
// along untouched; the measurement is always 0.
type TupleParser struct{}

func (TupleParser) Format() frame.Format { return frame.FormatTuple }

func (p TupleParser) Parse(raw string, observedAt time.Time) (Observation, error) {
	inner := strings.TrimSpace(raw)
	inner = strings.TrimPrefix(inner, "(")
	inner = strings.TrimSuffix(inner, ")")

	fields := strings.SplitN(inner, ",", 3)
	if len(fields) < 3 {
		return Observation{}, newParseError(p.Format(), raw, "expected type, mac and values", ErrMissingField)
	}
	recordType := strings.TrimSpace(fields[0])
	mac := strings.TrimSpace(fields[1])
	if recordType == "" || mac == "" {
		return Observation{}, newParseError(p.Format(), raw, "type and mac are required", ErrMissingField)
	}

	return Observation{
		MAC:         NormalizeMAC(mac),
		Measurement: 0,
		DisplayName: recordType,
		ObservedAt:  observedAt,
		Extra:       map[string]string{"values": strings.TrimSpace(fields[2])},
	}, nil
}

// ProfileParser handles `PROFILE_JSON:tag,mac,{json}` where the object must
// hold a numeric rssi.
type ProfileParser struct{}

func (ProfileParser) Format() frame.Format { return frame.FormatProfile }

func (p ProfileParser) Parse(raw string, observedAt time.Time) (Observation, error) {
	entry := strings.TrimSuffix(strings.TrimSpace(raw), ";")
	if !strings.HasPrefix(entry, profilePrefix) {
		return Observation{}, ErrNotDeviceFrame
	}

	fields := strings.SplitN(strings.TrimPrefix(entry, profilePrefix), ",", 3)
	if len(fields) < 3 {
		return Observation{}, newParseError(p.Format(), raw, "expected tag, mac and object", ErrMissingField)
	}
	tag := strings.TrimSpace(fields[0])
	mac := strings.TrimSpace(fields[1])
	if mac == "" {
		return Observation{}, newParseError(p.Format(), raw, "mac is required", ErrMissingField)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(fields[2]), &payload); err != nil {
		return Observation{}, newParseError(p.Format(), raw, err.Error(), ErrMalformedJSON)
	}

	rssi, ok := payload["rssi"].(float64)
	if !ok {
		return Observation{}, newParseError(p.Format(), raw, "rssi field", ErrMissingRSSI)
	}

	normalized := NormalizeMAC(mac)
	return Observation{
		MAC:         normalized,
		Measurement: int(math.Round(rssi)),
		DisplayName: normalized,
		ObservedAt:  observedAt,
		Extra:       map[string]string{"tag": tag},
	}, nil
}
