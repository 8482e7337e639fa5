// Package rate turns successive absolute counter readings into per-interval deltas.
package rate

import (
	"sync"
	"time"

	models "github.com/Schera-ole/hostagent/internal/model"
)

// Key identifies one tracked entity: a cpu, a device, a container, a database.
type Key struct {
	Kind models.Kind
	ID   string
}

type observation struct {
	values []uint64
	at     time.Time
}

// Delta is the difference between two successive observations of one key.
type Delta struct {
	// Values holds one delta per observed counter, in observation order
	Values []uint64

	// Seconds is the time elapsed between the two observations
	Seconds float64
}

// Rate returns the i-th delta divided by the elapsed seconds.
func (d Delta) Rate(i int) float64 {
	return float64(d.Values[i]) / d.Seconds
}

// Tracker keeps the last raw counters per key for the lifetime of the process.
type Tracker struct {
	mu   sync.Mutex
	last map[Key]observation
}

func NewTracker() *Tracker {
	return &Tracker{last: make(map[Key]observation)}
}

// Observe records raw counters for key at the given time and returns the delta
// against the previous observation.
//
// ok is false when there is no usable baseline: the key is new, any counter went
// backwards, the number of counters changed, or no time has elapsed. In every case
// the new reading becomes the baseline.
func (t *Tracker) Observe(key Key, at time.Time, raw ...uint64) (Delta, bool) {
	cur := observation{values: append([]uint64(nil), raw...), at: at}

	t.mu.Lock()
	prev, exists := t.last[key]
	t.last[key] = cur
	t.mu.Unlock()

	if !exists || len(prev.values) != len(cur.values) {
		return Delta{}, false
	}
	seconds := at.Sub(prev.at).Seconds()
	if seconds <= 0 {
		return Delta{}, false
	}

	deltas := make([]uint64, len(cur.values))
	for i, v := range cur.values {
		if v < prev.values[i] {
			// counter reset or wraparound
			return Delta{}, false
		}
		deltas[i] = v - prev.values[i]
	}
	return Delta{Values: deltas, Seconds: seconds}, true
}

// Forget drops keys whose last observation is older than before and reports how
// many were removed.
func (t *Tracker) Forget(before time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, obs := range t.last {
		if obs.at.Before(before) {
			delete(t.last, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}
