// Package interval defines the fixed set of mail poll intervals a user can pick.
package interval

import (
	"errors"
	"fmt"
)

// Interval is a poll interval in seconds. Values outside the catalog can only
// be built by conversion; Parse and At are the checked entry points.
type Interval uint64

// catalog is the ordered list of selectable intervals. Order is display order.
var catalog = [...]Interval{15, 30, 60, 150, 300, 600, 1800, 3600}

// DefaultInterval is used when nothing has been persisted yet (5 minutes).
const DefaultInterval Interval = 300

// ErrNotInCatalog is returned when a value is not one of the selectable intervals.
var ErrNotInCatalog = errors.New("poll interval not in catalog")

// Catalog returns a copy of the selectable intervals in display order.
func Catalog() []Interval {
	out := make([]Interval, len(catalog))
	copy(out, catalog[:])
	return out
}

// Len returns the number of catalog entries.
func Len() int {
	return len(catalog)
}

// At returns the catalog entry at index i.
func At(i int) (Interval, bool) {
	if i < 0 || i >= len(catalog) {
		return 0, false
	}
	return catalog[i], true
}

// Parse maps a number of seconds to its catalog entry.
func Parse(seconds uint64) (Interval, error) {
	for _, iv := range catalog {
		if uint64(iv) == seconds {
			return iv, nil
		}
	}
	return 0, fmt.Errorf("%d seconds: %w", seconds, ErrNotInCatalog)
}

// Seconds returns the interval as a plain number of seconds.
func (iv Interval) Seconds() uint64 {
	return uint64(iv)
}

// Index returns the position of iv in the catalog, or -1.
func (iv Interval) Index() int {
	for i, c := range catalog {
		if c == iv {
			return i
		}
	}
	return -1
}

// Format renders iv with the given unit labels.
func (iv Interval) Format(labels Labels) string {
	return FormatSeconds(uint64(iv), labels)
}
