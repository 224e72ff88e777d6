// Package protocol turns extracted gateway frames into device observations.
package protocol

import (
	"strings"
	"time"
)

// Observation is one device sighting decoded from a single frame.
type Observation struct {
	MAC         string
	Measurement int
	DisplayName string
	ObservedAt  time.Time
	// Extra carries format specific leftovers such as legacy manufacturer data.
	Extra map[string]string
}

// NormalizeMAC produces the identity key used across the device table.
func NormalizeMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}
