package devices

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode orders a projection of the table.
type SortMode string

const (
	SortByMeasurement SortMode = "measurement"
	SortByName        SortMode = "name"
)

// ParseSortMode validates a sort mode name.
func ParseSortMode(s string) (SortMode, error) {
	switch mode := SortMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case SortByMeasurement, SortByName:
		return mode, nil
	case "rssi", "signal":
		return SortByMeasurement, nil
	default:
		return SortByMeasurement, fmt.Errorf("unknown sort mode %q", s)
	}
}

// NewCollator builds the numeric-aware collator used for name ordering.
func NewCollator(locale string) (*collate.Collator, error) {
	tag := language.English
	if locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid collation locale %q: %w", locale, err)
		}
		tag = parsed
	}
	return collate.New(tag, collate.Numeric), nil
}

// Filter keeps records whose name or MAC contains keyword, ignoring case.
// The input slice is not modified.
func Filter(records []Record, keyword string) []Record {
	needle := strings.ToLower(keyword)
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if needle == "" ||
			strings.Contains(strings.ToLower(rec.Name), needle) ||
			strings.Contains(strings.ToLower(rec.MAC), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// Sort returns a sorted copy of records. col is only consulted for
// SortByName; nil falls back to an English collator.
func Sort(records []Record, mode SortMode, col *collate.Collator) []Record {
	out := append([]Record(nil), records...)

	switch mode {
	case SortByName:
		if col == nil {
			col = collate.New(language.English, collate.Numeric)
		}
		sort.SliceStable(out, func(i, j int) bool {
			if c := col.CompareString(out[i].Name, out[j].Name); c != 0 {
				return c < 0
			}
			return out[i].MAC < out[j].MAC
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Measurement > out[j].Measurement
		})
	}
	return out
}
