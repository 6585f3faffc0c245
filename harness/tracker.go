// Package harness provides an accounting queue.Allocator that records every
// block a queue obtains and releases, refuses allocations on demand, and
// reports leaked or doubly released storage.
package harness

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/reeveci/strqueue/queue"
)

var ErrInjected = errors.New("injected allocation failure")

// Stats is a snapshot of the storage currently held through a Tracker.
type Stats struct {
	Queues   int
	Elements int
	Values   int
	Bytes    int

	// Refused counts allocations failed on purpose since the tracker was
	// created.
	Refused int
	// FailPercent is the current random failure rate.
	FailPercent int
}

// Blocks returns the number of live blocks of any kind.
func (s Stats) Blocks() int {
	return s.Queues + s.Elements + s.Values
}

// A Tracker is a queue.Allocator. It is not safe for concurrent use.
type Tracker struct {
	stats Stats

	failPercent int
	failAt      int
	rng         *rand.Rand

	invalid []error
}

// NewTracker returns a tracker whose random failures are drawn from a PCG
// source seeded with seed.
func NewTracker(seed uint64) *Tracker {
	return &Tracker{
		failAt: -1,
		rng:    rand.New(rand.NewPCG(seed, seed)),
	}
}

// SetFailPercent makes every following allocation fail with probability
// percent/100. Values are clamped to [0, 100].
func (t *Tracker) SetFailPercent(percent int) {
	t.failPercent = max(0, min(percent, 100))
}

func (t *Tracker) FailPercent() int {
	return t.failPercent
}

// FailAt refuses the n'th allocation from now (counting from zero), once.
// A negative n cancels a pending failure.
func (t *Tracker) FailAt(n int) {
	t.failAt = n
}

func (t *Tracker) refuse() bool {
	if t.failAt >= 0 {
		t.failAt -= 1
		if t.failAt < 0 {
			return true
		}
	}
	return t.failPercent > 0 && t.rng.IntN(100) < t.failPercent
}

func (t *Tracker) counter(kind queue.Kind) *int {
	switch kind {
	case queue.KindQueue:
		return &t.stats.Queues
	case queue.KindElement:
		return &t.stats.Elements
	case queue.KindValue:
		return &t.stats.Values
	default:
		return nil
	}
}

func (t *Tracker) Alloc(kind queue.Kind, size int) error {
	counter := t.counter(kind)
	if counter == nil {
		return fmt.Errorf("unknown storage kind %d", kind)
	}

	if t.refuse() {
		t.stats.Refused += 1
		return ErrInjected
	}

	*counter += 1
	t.stats.Bytes += size
	return nil
}

func (t *Tracker) Free(kind queue.Kind, size int) {
	counter := t.counter(kind)
	switch {
	case counter == nil:
		t.invalid = append(t.invalid, fmt.Errorf("free of unknown storage kind %d", kind))
	case *counter == 0:
		t.invalid = append(t.invalid, fmt.Errorf("free of %s (%d bytes) without a live allocation", kind, size))
	default:
		*counter -= 1
		t.stats.Bytes -= size
	}
}

func (t *Tracker) Stats() Stats {
	s := t.stats
	s.FailPercent = t.failPercent
	return s
}

// Err reports every release that did not match a live allocation.
func (t *Tracker) Err() error {
	return errors.Join(t.invalid...)
}

// Leaks reports storage that is still allocated.
func (t *Tracker) Leaks() error {
	if t.stats.Blocks() == 0 && t.stats.Bytes == 0 {
		return nil
	}
	return fmt.Errorf("%d blocks still allocated (%d queues, %d elements, %d values, %d bytes)",
		t.stats.Blocks(), t.stats.Queues, t.stats.Elements, t.stats.Values, t.stats.Bytes)
}

var _ queue.Allocator = (*Tracker)(nil)
