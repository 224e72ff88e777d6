// Package devices keeps the authoritative table of observed gateway devices.
package devices

import (
	"time"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/protocol"
)

const (
	// HistoryLimit caps the rolling history kept per device.
	HistoryLimit = 50
	// StaleAfter is the last-seen age beyond which a device is evicted.
	StaleAfter = 30 * time.Second
)

// Sample is one point of a device's rolling history.
type Sample struct {
	At    time.Time `json:"timestamp"`
	Value int       `json:"value"`
}

// Record is the aggregated state of one device.
type Record struct {
	MAC         string    `json:"mac_address"`
	Name        string    `json:"name"`
	Measurement int       `json:"measurement"`
	LastSeen    time.Time `json:"last_seen"`
	UpdateCount int       `json:"update_count"`
	History     []Sample  `json:"history"`
}

func (r *Record) clone() Record {
	cp := *r
	cp.History = append([]Sample(nil), r.History...)
	return cp
}

// Table is not safe for concurrent use; callers serialise access.
type Table struct {
	records map[string]*Record
	order   []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{records: make(map[string]*Record)}
}

// ApplyBatch merges a batch of observations, evicts stale records and
// returns the resulting snapshot. It reports how many records were evicted.
func (t *Table) ApplyBatch(batch []protocol.Observation, now time.Time) ([]Record, int) {
	for _, obs := range batch {
		t.apply(obs)
	}
	evicted := t.evict(now)
	return t.Snapshot(), evicted
}

func (t *Table) apply(obs protocol.Observation) {
	key := protocol.NormalizeMAC(obs.MAC)
	sample := Sample{At: obs.ObservedAt, Value: obs.Measurement}

	existing, ok := t.records[key]
	if !ok {
		t.records[key] = &Record{
			MAC:         key,
			Name:        obs.DisplayName,
			Measurement: obs.Measurement,
			LastSeen:    obs.ObservedAt,
			UpdateCount: 1,
			History:     []Sample{sample},
		}
		t.order = append(t.order, key)
		return
	}

	existing.Name = obs.DisplayName
	existing.Measurement = obs.Measurement
	existing.LastSeen = obs.ObservedAt
	existing.UpdateCount++
	existing.History = append(existing.History, sample)
	if overflow := len(existing.History) - HistoryLimit; overflow > 0 {
		existing.History = append([]Sample(nil), existing.History[overflow:]...)
	}
}

func (t *Table) evict(now time.Time) int {
	kept := t.order[:0]
	evicted := 0
	for _, key := range t.order {
		if now.Sub(t.records[key].LastSeen) > StaleAfter {
			delete(t.records, key)
			evicted++
			continue
		}
		kept = append(kept, key)
	}
	t.order = kept
	return evicted
}

// Snapshot returns deep copies of every record in first-seen order.
func (t *Table) Snapshot() []Record {
	out := make([]Record, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.records[key].clone())
	}
	return out
}

// Get returns a copy of the record for mac, if present.
func (t *Table) Get(mac string) (Record, bool) {
	rec, ok := t.records[protocol.NormalizeMAC(mac)]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Len returns the number of tracked devices.
func (t *Table) Len() int {
	return len(t.order)
}

// Clear drops every record.
func (t *Table) Clear() {
	t.records = make(map[string]*Record)
	t.order = nil
}

// ResetCounters zeroes every update count and optionally wipes history,
// leaving the records themselves in place.
func (t *Table) ResetCounters(clearHistory bool) {
	for _, rec := range t.records {
		rec.UpdateCount = 0
		if clearHistory {
			rec.History = nil
		}
	}
}
