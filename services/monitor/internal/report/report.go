// Package report diffs successive device snapshots for the monitor log.
package report

import (
	"sort"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
)

// Change is a device whose measurement moved between two snapshots.
type Change struct {
	MAC      string `json:"mac_address"`
	Name     string `json:"name"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}

// Report summarises what happened between two snapshots.
type Report struct {
	Total     int              `json:"total"`
	Appeared  []devices.Record `json:"appeared"`
	Lost      []devices.Record `json:"lost"`
	Changed   []Change         `json:"changed"`
	Strongest []devices.Record `json:"strongest"`
}

// Empty reports whether nothing appeared, vanished or moved.
func (r Report) Empty() bool {
	return len(r.Appeared) == 0 && len(r.Lost) == 0 && len(r.Changed) == 0
}

// Diff compares prev and curr. A measurement counts as changed when it
// moved by at least minDelta; minDelta 0 reports every difference. The
// strongest list holds at most top records by descending measurement.
func Diff(prev, curr []devices.Record, top, minDelta int) Report {
	last := make(map[string]devices.Record, len(prev))
	for _, rec := range prev {
		last[rec.MAC] = rec
	}

	r := Report{Total: len(curr)}
	seen := make(map[string]struct{}, len(curr))
	for _, rec := range curr {
		seen[rec.MAC] = struct{}{}

		old, ok := last[rec.MAC]
		if !ok {
			r.Appeared = append(r.Appeared, rec)
			continue
		}
		if moved(old.Measurement, rec.Measurement, minDelta) {
			r.Changed = append(r.Changed, Change{
				MAC:      rec.MAC,
				Name:     rec.Name,
				Previous: old.Measurement,
				Current:  rec.Measurement,
			})
		}
	}

	for _, rec := range prev {
		if _, ok := seen[rec.MAC]; !ok {
			r.Lost = append(r.Lost, rec)
		}
	}

	r.Strongest = Strongest(curr, top)
	return r
}

// Strongest returns up to n records ordered by descending measurement.
func Strongest(records []devices.Record, n int) []devices.Record {
	sorted := devices.Sort(records, devices.SortByMeasurement, nil)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// MACs lists the identities of records, sorted, for compact logging.
func MACs(records []devices.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.MAC)
	}
	sort.Strings(out)
	return out
}

func moved(a, b, minDelta int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	if minDelta <= 0 {
		return d > 0
	}
	return d >= minDelta
}
