// Package frame reassembles gateway telemetry frames from an arbitrarily
// chunked text stream.
//
// Extraction is a pure function of (carry-over, chunk): nothing here touches
// shared state, so the rules can be tested in isolation and the Decoder is a
// thin holder of the carry-over string.
package frame

import (
	"regexp"
	"strings"
)

const frameTerminator = ";"

var (
	tuplePattern   = regexp.MustCompile(`\(([^,()]+),([^,()]+),\[([^\]]*)\]\)`)
	profilePattern = regexp.MustCompile(`PROFILE_JSON:([^,;]+),([^,;]+),(\{[^{}]*\});?`)
)

// Extract appends chunk to buffer and pulls out every complete frame of the
// given format. The returned buffer holds whatever could not be consumed yet.
func Extract(format Format, buffer, chunk string) (string, []string) {
	if chunk == "" {
		return buffer, nil
	}
	data := buffer + chunk

	switch format {
	case FormatTuple:
		return extractMatches(tuplePattern, data)
	case FormatProfile:
		return extractMatches(profilePattern, data)
	default:
		return extractLegacy(data)
	}
}

func extractLegacy(data string) (string, []string) {
	if !strings.Contains(data, frameTerminator) {
		return data, nil
	}
	parts := strings.Split(data, frameTerminator)
	return parts[len(parts)-1], parts[:len(parts)-1]
}

// extractMatches removes every matched span from data. Text between and
// around matches stays in the buffer untouched. A trailing terminator is
// consumed with the match but not returned as part of the frame.
func extractMatches(pattern *regexp.Regexp, data string) (string, []string) {
	spans := pattern.FindAllStringIndex(data, -1)
	if len(spans) == 0 {
		return data, nil
	}

	frames := make([]string, 0, len(spans))
	var rest strings.Builder
	last := 0
	for _, span := range spans {
		rest.WriteString(data[last:span[0]])
		frames = append(frames, strings.TrimSuffix(data[span[0]:span[1]], frameTerminator))
		last = span[1]
	}
	rest.WriteString(data[last:])
	return rest.String(), frames
}
