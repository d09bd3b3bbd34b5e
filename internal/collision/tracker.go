// Package collision detects xxHash64 collisions between channel-tagged
// signal names while a catalog is being built.
//
// Signal names are identified by their 64-bit hash in every hot path, so two
// distinct names mapping to the same hash would silently merge their sample
// streams. The tracker turns that into an explicit error at catalog build
// time, which is the only place new names are introduced.
package collision

import (
	"fmt"

	"github.com/canlab/blfview/errs"
)

// Tracker records signal names by hash and reports collisions.
type Tracker struct {
	names map[uint64]string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{names: make(map[uint64]string)}
}

// Track registers a signal name with its hash.
//
// Registering the same name twice is a no-op: the same (channel, id) message
// can be rebuilt when a later DBC overrides an earlier one. A different name
// with the same hash returns errs.ErrHashCollision.
func (t *Tracker) Track(name string, hash uint64) error {
	existing, ok := t.names[hash]
	if !ok {
		t.names[hash] = name
		return nil
	}

	if existing != name {
		return fmt.Errorf("%w: %q and %q both hash to %#x", errs.ErrHashCollision, existing, name, hash)
	}

	return nil
}

// Len returns the number of distinct names tracked.
func (t *Tracker) Len() int {
	return len(t.names)
}
